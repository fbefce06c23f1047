// Package validation checks request values that binding tags cannot express.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/vidshare/engagement-engine/internal/models"
)

var (
	mediaURLRegex = regexp.MustCompile(`^https?://[^\s/?#]+[^\s]*$`)
	seedRegex     = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
)

// Validator checks request bodies and query values.
type Validator struct {
	validationEnabled bool
}

// New creates a Validator. A disabled validator accepts everything.
func New(enabled bool) *Validator {
	return &Validator{validationEnabled: enabled}
}

// ValidateVideo checks a publish request after binding.
func (v *Validator) ValidateVideo(req *models.PublishVideoRequest) error {
	if !v.validationEnabled {
		return nil
	}

	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Description) == "" {
		return errors.New("Title and description are required") //nolint:staticcheck // user-facing message
	}

	if !v.IsValidMediaURL(req.VideoURL) {
		return fmt.Errorf("invalid video locator: %s", req.VideoURL)
	}

	if !v.IsValidMediaURL(req.ThumbnailURL) {
		return fmt.Errorf("invalid thumbnail locator: %s", req.ThumbnailURL)
	}

	return nil
}

// ValidateSeed checks a client-supplied sampling seed. Empty seeds are valid.
func (v *Validator) ValidateSeed(seed string) error {
	if !v.validationEnabled || seed == "" {
		return nil
	}

	if !seedRegex.MatchString(seed) {
		return fmt.Errorf("invalid seed format: %s", seed)
	}

	return nil
}

// IsValidMediaURL reports whether s is an absolute http(s) locator.
func (v *Validator) IsValidMediaURL(s string) bool {
	return mediaURLRegex.MatchString(s)
}

// ParseID parses a path or query identifier. name appears in the error.
func ParseID(raw, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("Invalid %s format", name)
	}
	return id, nil
}
