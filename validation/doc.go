// Package validation checks configuration and inbound descriptors.
//
// Struct tags, backed by go-playground/validator:
//
//	type Submission struct {
//	    FileID   string `json:"file_id" validate:"required"`
//	    MimeType string `json:"mime_type" validate:"omitempty,media_mime"`
//	}
//	err := validation.Validate(sub)
//
// Programmatic checks with error collection:
//
//	v := validation.New()
//	v.Min("max_duration", cfg.MaxDuration, 1)
//	if appErr := v.Validate(); appErr != nil { ... }
//
// Both report an INVALID_INPUT AppError listing every failing field.
package validation
