package site

import (
	"io"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/folio/content"
	"github.com/kbukum/folio/errors"
	"github.com/kbukum/folio/server"
	"github.com/kbukum/folio/server/middleware"
	"github.com/kbukum/folio/validation"
)

// PointerStatus is the body of GET /api/pointer.
type PointerStatus struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Subscribers int     `json:"subscribers"`
	Attached    bool    `json:"attached"`
	Accepted    uint64  `json:"accepted"`
	Dropped     uint64  `json:"dropped"`
}

// WebhookAck is the body of an accepted webhook call.
type WebhookAck struct {
	Status string `json:"status"`
}

func (s *Site) registerAPI(limit WebhookLimitConfig) {
	api := s.Server.GinEngine().Group("/api")
	api.GET("/projects", s.listProjects)
	api.GET("/projects/:slug", s.getProject)
	api.GET("/videos", s.listVideos)
	api.GET("/images", s.listImages)
	api.GET("/home", s.home)
	api.GET("/pointer", s.pointerStatus)
	api.POST("/webhooks/content",
		middleware.RateLimit(middleware.RateLimitConfig{Rate: limit.Rate, Burst: limit.Burst}),
		s.contentWebhook)
}

func (s *Site) listProjects(c *gin.Context) {
	projects, err := s.Content.Projects(c.Request.Context())
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, projects)
}

func (s *Site) getProject(c *gin.Context) {
	project, err := s.Content.ProjectBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, project)
}

func (s *Site) listVideos(c *gin.Context) {
	platform := c.Query("platform")
	if err := checkPlatform(platform, content.VideoPlatforms); err != nil {
		server.RespondWithError(c, err)
		return
	}
	videos, err := s.Content.VideosByPlatform(c.Request.Context(), platform)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, videos)
}

func (s *Site) listImages(c *gin.Context) {
	platform := c.Query("platform")
	if err := checkPlatform(platform, content.ImagePlatforms); err != nil {
		server.RespondWithError(c, err)
		return
	}
	images, err := s.Content.ImagesByPlatform(c.Request.Context(), platform)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, images)
}

func (s *Site) home(c *gin.Context) {
	home, err := s.Content.Home(c.Request.Context())
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, home)
}

func (s *Site) pointerStatus(c *gin.Context) {
	pos := s.Broadcaster.Position()
	accepted, dropped := s.Broadcaster.Stats()
	server.RespondOK(c, PointerStatus{
		X:           pos.X,
		Y:           pos.Y,
		Subscribers: s.Broadcaster.Subscribers(),
		Attached:    s.Broadcaster.Attached(),
		Accepted:    accepted,
		Dropped:     dropped,
	})
}

func (s *Site) contentWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		server.RespondWithError(c, errors.InvalidInput("body", err.Error()))
		return
	}
	if err := s.Webhook.Accept(payload, c.GetHeader(content.SignatureHeader)); err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondAccepted(c, WebhookAck{Status: "scheduled"})
}

// checkPlatform accepts an empty platform or one of allowed, in any case.
func checkPlatform(platform string, allowed []string) error {
	if appErr := validation.New().OneOfFold("platform", platform, allowed).Validate(); appErr != nil {
		return appErr
	}
	return nil
}
