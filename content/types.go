package content

import (
	"bytes"
	"encoding/json"
)

// Document types as named in the content store.
const (
	TypeProject = "portfolioProject"
	TypeVideo   = "aiFilmLabVideo"
	TypeImage   = "visualGenerationImage"
)

// Categories lists the allowed project categories.
var Categories = []string{
	"fintech-commerce",
	"quantum-design",
	"neural-interface",
	"void-architecture",
	"luminous-systems",
	"silent-mono",
}

// VideoPlatforms lists the film-lab generation platforms.
var VideoPlatforms = []string{"runway", "veo", "sora", "kling", "pika", "luma"}

// ImagePlatforms lists the visual-generation platforms.
var ImagePlatforms = []string{"midjourney", "nano-banana", "dalle", "meshy"}

// Slug is a URL-safe project identifier.
type Slug struct {
	Current string `json:"current" validate:"required"`
}

// AssetRef points at an uploaded asset.
type AssetRef struct {
	Ref  string `json:"_ref" validate:"required"`
	Type string `json:"_type,omitempty"`
}

// ImageRef is an image field as stored. It is passed through untouched;
// clients build their own CDN URLs from it.
type ImageRef struct {
	Type    string          `json:"_type,omitempty"`
	Asset   *AssetRef       `json:"asset" validate:"required"`
	Alt     string          `json:"alt,omitempty"`
	Hotspot json.RawMessage `json:"hotspot,omitempty"`
	Crop    json.RawMessage `json:"crop,omitempty"`
}

// Project is a portfolio project.
type Project struct {
	ID          string          `json:"_id" validate:"required"`
	Type        string          `json:"_type"`
	Title       string          `json:"title" validate:"required"`
	Slug        Slug            `json:"slug"`
	Category    string          `json:"category" validate:"required,oneof=fintech-commerce quantum-design neural-interface void-architecture luminous-systems silent-mono"`
	Image       *ImageRef       `json:"image" validate:"required"`
	Description string          `json:"description,omitempty"`
	Details     json.RawMessage `json:"details,omitempty"`
	OrderRank   float64         `json:"orderRank"`
}

// Video is a film-lab video.
type Video struct {
	ID             string    `json:"_id" validate:"required"`
	Type           string    `json:"_type"`
	Title          string    `json:"title" validate:"required"`
	Platform       string    `json:"platform" validate:"required,oneof=runway veo sora kling pika luma"`
	Subtitle       string    `json:"subtitle,omitempty"`
	VideoFile      string    `json:"videoFile,omitempty" validate:"omitempty,url"`
	VideoURL       string    `json:"videoUrl,omitempty" validate:"omitempty,url"`
	ThumbnailImage *ImageRef `json:"thumbnailImage" validate:"required"`
	Description    string    `json:"description,omitempty"`
	OrderRank      float64   `json:"orderRank"`
}

// Image is a visual-generation image.
type Image struct {
	ID          string    `json:"_id" validate:"required"`
	Type        string    `json:"_type"`
	Title       string    `json:"title" validate:"required"`
	Platform    string    `json:"platform" validate:"required,oneof=midjourney nano-banana dalle meshy"`
	Subtitle    string    `json:"subtitle,omitempty"`
	Image       *ImageRef `json:"image" validate:"required"`
	Is3D        bool      `json:"is3D"`
	Description string    `json:"description,omitempty"`
	Prompt      string    `json:"prompt,omitempty"`
	OrderRank   float64   `json:"orderRank"`
}

// Home bundles every collection for the landing page.
type Home struct {
	Projects []Project `json:"projects"`
	Videos   []Video   `json:"videos"`
	Images   []Image   `json:"images"`
}

// document is implemented by every collection element.
type document interface {
	Project | Video | Image
}

func rankOf[T document](d *T) float64 {
	switch v := any(d).(type) {
	case *Project:
		return v.OrderRank
	case *Video:
		return v.OrderRank
	case *Image:
		return v.OrderRank
	}
	return 0
}

func idOf[T document](d *T) string {
	switch v := any(d).(type) {
	case *Project:
		return v.ID
	case *Video:
		return v.ID
	case *Image:
		return v.ID
	}
	return ""
}

// normalize clears projected nulls so they are omitted on output.
func normalize[T document](d *T) {
	if p, ok := any(d).(*Project); ok && isNull(p.Details) {
		p.Details = nil
	}
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
