package configuration

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ModelHeadRegression     = "regression"
	ModelHeadClassification = "classification"
)

// AppConfig represents the complete application configuration.
type AppConfig struct {
	// Logger — logger component configuration
	Logger LoggerConfig `mapstructure:"logger"`
	// Server — HTTP server configuration
	Server ServerConfig `mapstructure:"server"`
	// Model — inference backend configuration
	Model ModelConfig `mapstructure:"model"`
	// History — recent assessments kept per mission
	History HistoryConfig `mapstructure:"history"`
	// Journal — scored answers dataset
	Journal JournalConfig `mapstructure:"journal"`
}

// LoggerConfig defines logging settings.
type LoggerConfig struct {
	// Level — log level: debug, info, warn, warning, error.
	// Value is case-insensitive.
	Level string `mapstructure:"level"`
}

// ServerConfig contains HTTP server parameters.
type ServerConfig struct {
	// Address — address and port the server listens on (e.g., ":8080").
	Address string `mapstructure:"address"`
	// Port — when set (usually through the PORT environment variable), replaces the
	// port of Address.
	Port string `mapstructure:"port"`
	// WriteTimeout — maximum duration of a response, inference included.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// ModelConfig describes the model server hosting the answer classifier.
type ModelConfig struct {
	// Head — output head of the served model: regression or classification.
	Head string `mapstructure:"head"`
	// Url — base URL of the KServe v2 compatible model server.
	Url string `mapstructure:"url"`
	// Name — model name on the server.
	Name string `mapstructure:"name"`
	// Timeout — per inference request timeout.
	Timeout time.Duration `mapstructure:"timeout"`
	// MaxLength — token sequence length the model pads or truncates to.
	MaxLength int `mapstructure:"max_length"`
	// Rules — optional path to YAML bonus rules, classification head only.
	Rules string `mapstructure:"rules"`
}

// HistoryConfig defines how many assessments are kept per mission and for how long.
type HistoryConfig struct {
	// Length — maximum number of assessments kept per mission.
	Length int `mapstructure:"length"`
	// Ttl — idle time after which a mission is forgotten (e.g., "30m", "24h").
	Ttl time.Duration `mapstructure:"ttl"`
}

// JournalConfig defines the scored answers dataset.
type JournalConfig struct {
	// File — dataset file path; empty disables the journal.
	File string `mapstructure:"file"`
	// Size — maximal file size in megabytes before rotation.
	Size int `mapstructure:"size"`
	// Amount — number of rotated files kept.
	Amount int `mapstructure:"amount"`
}

// Validate checks the whole configuration and returns the first detected error.
func (c *AppConfig) Validate() error {
	if err := c.Logger.Validate(); err != nil {
		return err
	}

	if err := c.Server.Validate(); err != nil {
		return err
	}

	if err := c.Model.Validate(); err != nil {
		return err
	}

	if err := c.History.Validate(); err != nil {
		return err
	}

	return c.Journal.Validate()
}

// Validate checks that the log level is one of debug, info, warn, warning, error.
func (l *LoggerConfig) Validate() error {
	if l.Level == "" {
		return errors.New("logger.level: must be specified")
	}

	valid := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !valid[strings.ToLower(l.Level)] {
		return fmt.Errorf("logger.level: unsupported level '%s'", l.Level)
	}

	return nil
}

// Validate checks the listen address and applies Port on top of it.
func (s *ServerConfig) Validate() error {
	if s.Port != "" {
		port, err := strconv.Atoi(s.Port)
		if err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("server.port: '%s' must be a number between 1 and 65535", s.Port)
		}
		host := ""
		if i := strings.LastIndex(s.Address, ":"); i >= 0 {
			host = s.Address[:i]
		}
		s.Address = host + ":" + s.Port
	}

	if s.Address == "" {
		return errors.New("server.address: must be specified")
	}

	if s.WriteTimeout <= 0 {
		return errors.New("server.write_timeout: must be positive")
	}

	return nil
}

// Validate checks the model server settings.
func (m *ModelConfig) Validate() error {
	switch m.Head {
	case ModelHeadRegression, ModelHeadClassification:
	default:
		return fmt.Errorf("model.head: unsupported head '%s'", m.Head)
	}

	if m.Url == "" {
		return errors.New("model.url: must be specified")
	}
	u, err := url.Parse(m.Url)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("model.url: '%s' is not an absolute URL", m.Url)
	}

	if m.Name == "" {
		return errors.New("model.name: must be specified")
	}

	if m.MaxLength <= 0 {
		return errors.New("model.max_length: must be positive")
	}

	if m.Timeout <= 0 {
		return errors.New("model.timeout: must be positive")
	}

	if m.Rules != "" && m.Head != ModelHeadClassification {
		return errors.New("model.rules: bonus rules require the classification head")
	}

	return nil
}

// Validate checks history parameters.
func (h *HistoryConfig) Validate() error {
	if h.Length <= 0 {
		return errors.New("history.length: must be positive")
	}

	return nil
}

// Validate applies journal defaults.
func (j *JournalConfig) Validate() error {
	if j.Amount <= 0 {
		j.Amount = 20
	}

	if j.Size <= 0 {
		j.Size = 100
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("model.head", ModelHeadRegression)
	v.SetDefault("model.url", "")
	v.SetDefault("model.name", "")
	v.SetDefault("model.rules", "")
	v.SetDefault("model.timeout", 30*time.Second)
	v.SetDefault("model.max_length", 256)
	v.SetDefault("history.length", 20)
	v.SetDefault("history.ttl", time.Hour)
	v.SetDefault("journal.file", "")
	v.SetDefault("journal.size", 100)
	v.SetDefault("journal.amount", 20)
}

// LoadEnvFile loads variables from a dotenv file into the process environment.
// Variables already set are not overridden.
func LoadEnvFile(path string) error {
	return godotenv.Load(path)
}

// LoadConfig loads configuration from the specified YAML file using Viper.
// Environment variables override file values: nested keys use underscores
// (MODEL_URL for model.url), and PORT sets server.port.
//
// Returns an error if the file is not found or inaccessible, has an invalid format,
// or one of the sections fails validation.
func LoadConfig(configPath string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.BindEnv("server.port", "PORT"); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config AppConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}
