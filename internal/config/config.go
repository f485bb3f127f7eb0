package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
)

// Create new config instance
func NewConfig() *Config {
	return &Config{}
}

// Load configuration file in json format
func (c *Config) Read(file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", file, err)
	}
	c.applyDefaults()
	return c.Validate()
}

// Validate checks the loaded configuration once at startup. A queue prefix
// outside the closed set is a configuration error, not a per-request one.
func (c *Config) Validate() error {
	if p := c.Gateway.QueuePrefix; p != "" && p != DevPrefix {
		return fmt.Errorf("unexpected queue prefix %q: expected %q or %q", p, "", DevPrefix)
	}
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	prefix := c.Gateway.QueuePrefix

	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30
	}
	if c.Redis.HealthCheckInterval == 0 {
		c.Redis.HealthCheckInterval = 30
	}

	if c.Gateway.AllowedDomain == "" {
		c.Gateway.AllowedDomain = "door43.org"
	}
	if c.Gateway.JobTimeout == "" {
		// Prefixed (dev) instances get a little longer before the broker
		// considers a running job to have failed.
		if prefix != "" {
			c.Gateway.JobTimeout = "900s"
		} else {
			c.Gateway.JobTimeout = "800s"
		}
	}
	if c.Gateway.EnqueueTimeout == 0 {
		c.Gateway.EnqueueTimeout = 5
	}
	if c.Gateway.MaxRequestBodyKB == 0 {
		c.Gateway.MaxRequestBodyKB = 256
	}

	if c.Identity.BaseURL == "" {
		c.Identity.BaseURL = "https://git.door43.org"
	}
	if c.Identity.Timeout == 0 {
		c.Identity.Timeout = 10
	}
	if c.Identity.CacheTTL == 0 {
		c.Identity.CacheTTL = 300
	}

	if c.CDN.JobBase == "" {
		c.CDN.JobBase = fmt.Sprintf("https://%scdn.door43.org/tx/job/", prefix)
	}
	if c.CDN.PDFBase == "" {
		c.CDN.PDFBase = fmt.Sprintf("https://%scdn.door43.org/u/", prefix)
	}

	if c.Routing.HTMLQueue == "" {
		c.Routing.HTMLQueue = "tx_job_handler"
	}
	if c.Routing.OBSPDFQueue == "" {
		c.Routing.OBSPDFQueue = "tx_obs_pdf_job_handler"
	}
	if c.Routing.OtherPDFQueue == "" {
		c.Routing.OtherPDFQueue = "tx_other_pdf_job_handler"
	}
	if len(c.Routing.OBSSubjects) == 0 {
		c.Routing.OBSSubjects = []string{
			"Open_Bible_Stories", "OBS_Translation_Notes", "OBS_Translation_Questions",
			"OBS_Study_Notes", "OBS_Study_Questions", "obs",
		}
	}
}
