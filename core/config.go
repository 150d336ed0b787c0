package core

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// DefaultBaseURL is the Azure DevOps Services endpoint.
const DefaultBaseURL = "https://dev.azure.com"

// Config is the bundle every extraction runs with.
type Config struct {
	PAT            string
	Organization   string
	Project        string
	BaseURL        string
	DownloadImages bool
	ImagesDir      string
}

// Validate checks, in order, the credential, organization, project and base
// URL. The first problem is reported as a *ConfigurationError naming the field.
func (c Config) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"pat", c.PAT},
		{"organization", c.Organization},
		{"project", c.Project},
	}
	for _, r := range required {
		if err := validation.Validate(strings.TrimSpace(r.value), validation.Required); err != nil {
			return &ConfigurationError{Field: r.field}
		}
	}
	if err := validation.Validate(c.BaseURL, is.RequestURL); err != nil {
		return &ConfigurationError{Field: "base_url", Err: err}
	}
	return nil
}

// ImagesRoot returns the directory downloaded images are written under.
// An empty ImagesDir selects DefaultImagesDir.
func (c Config) ImagesRoot() string {
	if dir := strings.TrimSpace(c.ImagesDir); dir != "" {
		return dir
	}
	return DefaultImagesDir()
}

// DefaultImagesDir is the per-user cache location for downloaded images.
func DefaultImagesDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "wipipe", "images")
}

// APIBase returns the project-scoped API root, e.g.
// https://dev.azure.com/org/My%20Project.
func (c Config) APIBase() string {
	base := strings.TrimSuffix(c.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return base + "/" + url.PathEscape(c.Organization) + "/" + url.PathEscape(c.Project)
}
