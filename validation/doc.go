// Package validation checks content documents, configuration sections and
// request parameters, reporting failures as errors.Validation.
//
// Struct tags:
//
//	type Project struct {
//	    Title string `json:"title" validate:"required"`
//	}
//	err := validation.Validate(p)
//
// Hand-written checks:
//
//	v := validation.New()
//	v.OneOfFold("platform", platform, content.VideoPlatforms)
//	if err := v.Validate(); err != nil { ... }
package validation
