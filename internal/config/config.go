package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Audit    AuditConfig    `yaml:"audit"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	LogLevel string         `yaml:"log_level"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	UseCORS         bool          `yaml:"use_cors"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// DatabaseConfig falls back to the libpq environment variables (PGHOST, ...).
type DatabaseConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	User           string        `yaml:"user"`
	Password       string        `yaml:"password"`
	DBName         string        `yaml:"dbname"`
	SSLMode        string        `yaml:"sslmode"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

func (d DatabaseConfig) DSN() string {
	parts := []string{
		fmt.Sprintf("host=%s", d.Host),
		fmt.Sprintf("port=%d", d.Port),
	}
	if d.User != "" {
		parts = append(parts, fmt.Sprintf("user=%s", d.User))
	}
	if d.Password != "" {
		parts = append(parts, fmt.Sprintf("password=%s", d.Password))
	}
	if d.DBName != "" {
		parts = append(parts, fmt.Sprintf("dbname=%s", d.DBName))
	}
	parts = append(parts, fmt.Sprintf("sslmode=%s", d.SSLMode))
	return strings.Join(parts, " ")
}

type AuditConfig struct {
	UpTimeout       time.Duration `yaml:"up_timeout"`
	ChromePort      int           `yaml:"chrome_port"`
	ChromePath      string        `yaml:"chrome_path"`
	ChromeArgs      []string      `yaml:"chrome_args"`
	LighthousePath  string        `yaml:"lighthouse_path"`
	RunTimeout      time.Duration `yaml:"run_timeout"`
	PollInterval    time.Duration `yaml:"poll_interval"`
	MaxPollInterval time.Duration `yaml:"max_poll_interval"`
	// MaxConcurrent caps background pipelines; 0 means unlimited.
	MaxConcurrent int `yaml:"max_concurrent"`
}

type RabbitMQConfig struct {
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
	QueueName  string `yaml:"queue_name"`
}

// Enabled reports whether audit notifications should be published.
func (r RabbitMQConfig) Enabled() bool {
	return r.URL != ""
}

// Load reads the YAML file at path. A missing file is not an error: the
// configuration is then built from the environment and defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config file: %w", err)
	default:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.setDefaults()

	return &cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("LAS_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse LAS_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("LAS_USE_CORS"); v != "" {
		useCORS, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parse LAS_USE_CORS: %w", err)
		}
		c.Server.UseCORS = useCORS
	}
	if v := os.Getenv("CHROME_PATH"); v != "" && c.Audit.ChromePath == "" {
		c.Audit.ChromePath = v
	}
	if v := os.Getenv("LIGHTHOUSE_PATH"); v != "" && c.Audit.LighthousePath == "" {
		c.Audit.LighthousePath = v
	}
	if v := os.Getenv("RABBITMQ_URL"); v != "" && c.RabbitMQ.URL == "" {
		c.RabbitMQ.URL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}

	if c.Database.Host == "" {
		c.Database.Host = os.Getenv("PGHOST")
	}
	if c.Database.Port == 0 {
		if v := os.Getenv("PGPORT"); v != "" {
			port, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("parse PGPORT: %w", err)
			}
			c.Database.Port = port
		}
	}
	if c.Database.User == "" {
		c.Database.User = os.Getenv("PGUSER")
	}
	if c.Database.Password == "" {
		c.Database.Password = os.Getenv("PGPASSWORD")
	}
	if c.Database.DBName == "" {
		c.Database.DBName = os.Getenv("PGDATABASE")
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = os.Getenv("PGSSLMODE")
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 3003
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 30 * time.Second
	}
	if c.Database.Host == "" {
		c.Database.Host = "localhost"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.ConnectTimeout == 0 {
		c.Database.ConnectTimeout = 10 * time.Second
	}
	if c.Audit.UpTimeout == 0 {
		c.Audit.UpTimeout = 30 * time.Second
	}
	if c.Audit.ChromePort == 0 {
		c.Audit.ChromePort = 9222
	}
	if c.Audit.LighthousePath == "" {
		c.Audit.LighthousePath = "lighthouse"
	}
	if c.Audit.RunTimeout == 0 {
		c.Audit.RunTimeout = 5 * time.Minute
	}
	if c.Audit.PollInterval == 0 {
		c.Audit.PollInterval = 250 * time.Millisecond
	}
	if c.Audit.MaxPollInterval == 0 {
		c.Audit.MaxPollInterval = 5 * time.Second
	}
	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "lighthouse_audits"
	}
	if c.RabbitMQ.RoutingKey == "" {
		c.RabbitMQ.RoutingKey = "audits"
	}
	if c.RabbitMQ.QueueName == "" {
		c.RabbitMQ.QueueName = "audit_events"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
