// Package config loads wipipe settings from a YAML file, WIPIPE_* environment
// variables and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/gaurav-prasanna/wipipe/core"
	"github.com/gaurav-prasanna/wipipe/pkg/log"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "WIPIPE"

// PATEnv is the credential variable shared with the Azure CLI devops
// extension. It overrides any configured PAT.
const PATEnv = "AZURE_DEVOPS_EXT_PAT"

type Config struct {
	AzureDevOps AzureDevOpsConfig
	Images      ImagesConfig
	RichText    string
	Search      SearchConfig
	Logger      log.ZapConfig
	Server      ServerConfig
}

type AzureDevOpsConfig struct {
	PAT          string
	Organization string
	Project      string
	BaseURL      string
	RateLimit    float64 // requests per second, 0 disables
}

type ImagesConfig struct {
	Download bool
	Dir      string
}

type SearchConfig struct {
	MaxResults int
}

type ServerConfig struct {
	Port int
	Mode string
}

// Core returns the settings the fetch pipeline consumes.
func (c *Config) Core() core.Config {
	return core.Config{
		PAT:            c.AzureDevOps.PAT,
		Organization:   c.AzureDevOps.Organization,
		Project:        c.AzureDevOps.Project,
		BaseURL:        c.AzureDevOps.BaseURL,
		DownloadImages: c.Images.Download,
		ImagesDir:      c.Images.Dir,
	}
}

// Load reads configuration into v and returns the resolved settings. When
// file is empty, wipipe.yaml is searched in ./, ./config and
// $HOME/.config/wipipe; a missing file is not an error.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("wipipe")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "wipipe"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}

	cfg.AzureDevOps.PAT = v.GetString("azure_devops.pat")
	cfg.AzureDevOps.Organization = v.GetString("azure_devops.organization")
	cfg.AzureDevOps.Project = v.GetString("azure_devops.project")
	cfg.AzureDevOps.BaseURL = v.GetString("azure_devops.base_url")
	cfg.AzureDevOps.RateLimit = v.GetFloat64("azure_devops.rate_limit")
	if pat := os.Getenv(PATEnv); pat != "" {
		cfg.AzureDevOps.PAT = pat
	}

	cfg.Images.Download = v.GetBool("images.download")
	cfg.Images.Dir = v.GetString("images.dir")

	cfg.RichText = v.GetString("rich_text")
	cfg.Search.MaxResults = v.GetInt("search.max_results")

	cfg.Logger.Level = v.GetString("logger.level")
	cfg.Logger.Mode = v.GetString("logger.mode")
	cfg.Logger.Encoding = v.GetString("logger.encoding")
	cfg.Logger.ColorEnabled = v.GetBool("logger.color_enabled")

	cfg.Server.Port = v.GetInt("server.port")
	cfg.Server.Mode = v.GetString("server.mode")

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("azure_devops.base_url", core.DefaultBaseURL)
	v.SetDefault("azure_devops.rate_limit", 0)
	v.SetDefault("images.download", false)
	v.SetDefault("images.dir", core.DefaultImagesDir())
	v.SetDefault("rich_text", "plain")
	v.SetDefault("search.max_results", 50)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.mode", "production")
	v.SetDefault("logger.encoding", "console")
	v.SetDefault("logger.color_enabled", false)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
}
