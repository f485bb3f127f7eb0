package config

import (
	"fmt"
	"time"
)

// DevPrefix is the only non-empty queue prefix a deployment may use.
const DevPrefix = "dev-"

type Config struct {
	Server   ServerConfig   `json:"server"`
	Redis    RedisConfig    `json:"redis"`
	Gateway  GatewayConfig  `json:"gateway"`
	Identity IdentityConfig `json:"identity"`
	CDN      CDNConfig      `json:"cdn"`
	Routing  RoutingConfig  `json:"routing"`
	Sentry   SentryConfig   `json:"sentry"`
}

type ServerConfig struct {
	Port         int           `json:"port" validate:"required,gt=0"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

type RedisConfig struct {
	Password            string        `json:"password"`
	DatabaseID          int           `json:"database_id"`
	HealthCheckInterval time.Duration `json:"health_check_interval"`
	DialTimeout         time.Duration `json:"dial_timeout"`
	ReadTimeout         time.Duration `json:"read_timeout"`
	WriteTimeout        time.Duration `json:"write_timeout"`
	PoolSize            int           `json:"pool_size"`
	Nodes               []RedisNode   `json:"nodes" validate:"required,min=1,dive"`
}

type RedisNode struct {
	Host string `json:"host" validate:"required"`
	Port int    `json:"port" validate:"required"`
}

func (n RedisNode) Addr() string { return fmt.Sprintf("%s:%d", n.Host, n.Port) }

// GatewayConfig holds the intake-side knobs. QueuePrefix must be "" or
// DevPrefix so non-production traffic never shares a queue with production.
type GatewayConfig struct {
	QueuePrefix      string        `json:"queue_prefix"`
	DebugMode        bool          `json:"debug_mode"`
	AllowedDomain    string        `json:"allowed_domain"`
	JobTimeout       string        `json:"job_timeout"`      // max run time handed to the broker, e.g. "800s"
	EnqueueTimeout   time.Duration `json:"enqueue_timeout"`  // seconds; bound on the enqueue call
	MaxRequestBodyKB int64         `json:"max_request_body"` // KB
}

type IdentityConfig struct {
	BaseURL  string        `json:"base_url" validate:"required,url"`
	Timeout  time.Duration `json:"timeout"`   // seconds
	CacheTTL int           `json:"cache_ttl"` // seconds; verified-token cache lifetime
}

type CDNConfig struct {
	JobBase string `json:"job_base" validate:"required,url"`
	PDFBase string `json:"pdf_base" validate:"required,url"`
}

// RoutingConfig is the subject-to-queue routing table. Queue names here are
// unprefixed; the deployment prefix is applied when the table is built.
type RoutingConfig struct {
	HTMLQueue     string   `json:"html_queue" validate:"required"`
	OBSPDFQueue   string   `json:"obs_pdf_queue" validate:"required"`
	OtherPDFQueue string   `json:"other_pdf_queue" validate:"required"`
	OBSSubjects   []string `json:"obs_subjects"`
}

type SentryConfig struct {
	SentryDSN   string `json:"sentry_dsn"`
	Environment string `json:"environment"`
}
