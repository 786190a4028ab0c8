package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/eringen/pubcms"
)

// loadConfig reads the optional YAML file, then applies environment
// overrides. Environment variables win over the file.
func loadConfig(path string) (pubcms.SiteConfig, error) {
	var cfg pubcms.SiteConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *pubcms.SiteConfig) error {
	setString(&cfg.Name, "SITE_NAME")
	setString(&cfg.URL, "SITE_URL")
	setString(&cfg.Description, "SITE_DESCRIPTION")
	setString(&cfg.Author, "SITE_AUTHOR")
	setString(&cfg.RelAuthor, "SITE_REL_AUTHOR")
	setString(&cfg.Addr, "ADDR")
	setString(&cfg.DatabasePath, "DATABASE_PATH")
	setString(&cfg.CMSToken, "CMS_TOKEN")
	setString(&cfg.CMSBaseURL, "CMS_BASE_URL")
	setString(&cfg.PreviewPassword, "PREVIEW_PASSWORD")
	setString(&cfg.SessionSecret, "SESSION_SECRET")

	if err := setDuration(&cfg.CMSTimeout, "CMS_TIMEOUT"); err != nil {
		return err
	}
	if err := setDuration(&cfg.PostCacheTTL, "POST_CACHE_TTL"); err != nil {
		return err
	}
	if v := os.Getenv("PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PAGE_SIZE: %w", err)
		}
		cfg.PageSize = n
	}
	setBool(&cfg.CookieSecure, "COOKIE_SECURE")
	setBool(&cfg.OGImageProxy, "OG_IMAGE_PROXY")
	setBool(&cfg.Debug, "DEBUG")
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = strings.EqualFold(v, "true") || v == "1"
	}
}
