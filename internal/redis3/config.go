// Package redis3 implements Component F: the run supervisor that owns a
// transport, performs the RESP3 handshake, drives health checks, and
// coordinates reconnection with backoff, including Redis Sentinel master
// discovery.
package redis3

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Addr is a host/port pair (spec §3 addr.host / addr.port).
type Addr struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

func (a Addr) String() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// SentinelConfig configures master discovery through Redis Sentinel.
type SentinelConfig struct {
	Addresses   []Addr `yaml:"addresses"`
	MasterName  string `yaml:"masterName"`
	SetupConfig *Setup `yaml:"setup"`
}

// Setup holds the fields used to compose the HELLO/AUTH/SETNAME/SELECT
// setup request (spec §4.F).
type Setup struct {
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	ClientName string `yaml:"clientname"`
	Database   *int   `yaml:"databaseIndex"`
}

// Config is the full set of fields the core consumes (spec §3
// "Configuration", §6 "Configuration surface").
type Config struct {
	Addr       Addr   `yaml:"addr"`
	UnixSocket string `yaml:"unixSocket"`
	UseSSL     bool   `yaml:"useSsl"`

	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	ClientName string `yaml:"clientname"`
	Database   *int   `yaml:"databaseIndex"`

	HealthCheckInterval time.Duration `yaml:"healthCheckInterval"`
	HealthCheckID       string        `yaml:"healthCheckId"`

	ResolveTimeout       time.Duration `yaml:"resolveTimeout"`
	ConnectTimeout       time.Duration `yaml:"connectTimeout"`
	SSLHandshakeTimeout  time.Duration `yaml:"sslHandshakeTimeout"`
	WriteTimeout         time.Duration `yaml:"writeTimeout"`
	ReconnectWaitInterval time.Duration `yaml:"reconnectWaitInterval"`

	MaxReadSize         int `yaml:"maxReadSize"`
	ReadBufferAppendSize int `yaml:"readBufferAppendSize"`

	Sentinel *SentinelConfig `yaml:"sentinel"`

	LogDir   string      `yaml:"logDir"`
	LogLevel string      `yaml:"logLevel"`

	path string
}

// ValidationError aggregates every configuration problem found by Validate,
// in the style of the migration tool's own ValidationError: one Path plus a
// flat list of short, Chinese-language complaints.
type ValidationError struct {
	Path   string
	Errors []string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("配置校验失败:")
	if e.Path != "" {
		b.WriteString(" ")
		b.WriteString(e.Path)
	}
	for _, err := range e.Errors {
		b.WriteString("\n - ")
		b.WriteString(err)
	}
	return b.String()
}

// LoadConfig reads and parses a YAML configuration file, applies defaults,
// and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("redis3: read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("redis3: parse config %s: %w", path, err)
	}
	cfg.path = path
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills in zero-value fields with the core's defaults.
func (c *Config) ApplyDefaults() {
	if c.ResolveTimeout == 0 {
		c.ResolveTimeout = 5 * time.Second
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 5 * time.Second
	}
	if c.SSLHandshakeTimeout == 0 {
		c.SSLHandshakeTimeout = 5 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 5 * time.Second
	}
	if c.ReconnectWaitInterval == 0 {
		c.ReconnectWaitInterval = 1 * time.Second
	}
	if c.MaxReadSize == 0 {
		c.MaxReadSize = 512 * 1024 * 1024
	}
	if c.ReadBufferAppendSize == 0 {
		c.ReadBufferAppendSize = 4096
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate reports every configuration contradiction the core can detect
// before attempting any I/O (spec §4.F, §7 "Configuration" error bucket).
func (c *Config) Validate() error {
	var errs []string

	if c.UnixSocket != "" {
		if c.UseSSL {
			errs = append(errs, unixSocketsSSLUnsupportedMsg)
		}
		if c.Sentinel != nil && len(c.Sentinel.Addresses) > 0 {
			errs = append(errs, sentinelUnixSocketsUnsupportedMsg)
		}
	}
	if c.UnixSocket == "" && c.Addr.Host == "" && (c.Sentinel == nil || len(c.Sentinel.Addresses) == 0) {
		errs = append(errs, "addr.host 与 unix_socket 必须至少配置一个")
	}
	if c.Sentinel != nil && len(c.Sentinel.Addresses) > 0 && c.Sentinel.MasterName == "" {
		errs = append(errs, "sentinel.masterName 必填")
	}
	if c.HealthCheckInterval < 0 {
		errs = append(errs, "healthCheckInterval 不能为负")
	}
	if c.ReconnectWaitInterval < 0 {
		errs = append(errs, "reconnectWaitInterval 不能为负")
	}

	if len(errs) == 0 {
		return nil
	}
	return &ValidationError{Path: c.path, Errors: errs}
}

// DatabaseIndex returns the configured database index, or 0 when unset.
func (c *Config) DatabaseIndex() int {
	if c.Database == nil {
		return 0
	}
	return *c.Database
}
