package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/at-ishikawa/neotutor/internal/contact"
	"github.com/at-ishikawa/neotutor/internal/inference/gemini"
	"github.com/at-ishikawa/neotutor/internal/tutor"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	TransportREST = "rest"
	TransportSDK  = "sdk"
)

type Config struct {
	Gemini  GeminiConfig  `mapstructure:"gemini" yaml:"gemini"`
	Tutor   TutorConfig   `mapstructure:"tutor" yaml:"tutor"`
	Retry   RetryConfig   `mapstructure:"retry" yaml:"retry"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Contact ContactConfig `mapstructure:"contact" yaml:"contact"`
}

type GeminiConfig struct {
	APIKey    string        `mapstructure:"api_key" yaml:"api_key"`
	Model     string        `mapstructure:"model" yaml:"model" validate:"required"`
	BaseURL   string        `mapstructure:"base_url" yaml:"base_url" validate:"required,url"`
	Transport string        `mapstructure:"transport" yaml:"transport" validate:"oneof=rest sdk"`
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gt=0"`
}

type TutorConfig struct {
	SystemInstruction string `mapstructure:"system_instruction" yaml:"system_instruction" validate:"required"`
	// SystemInstructionFile replaces SystemInstruction with the file contents when set
	SystemInstructionFile string `mapstructure:"system_instruction_file" yaml:"system_instruction_file,omitempty" validate:"omitempty,file"`
	MaxQuestionLength     int    `mapstructure:"max_question_length" yaml:"max_question_length" validate:"gt=0"`
}

type RetryConfig struct {
	MaxRetries uint          `mapstructure:"max_retries" yaml:"max_retries" validate:"lte=10"`
	TimeUnit   time.Duration `mapstructure:"time_unit" yaml:"time_unit" validate:"gt=0"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port" yaml:"port" validate:"gt=0,lte=65535"`
	CORS CORSConfig `mapstructure:"cors" yaml:"cors"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

type ContactConfig struct {
	BookingFormURL string `mapstructure:"booking_form_url" yaml:"booking_form_url" validate:"required,url"`
	MessagingURL   string `mapstructure:"messaging_url" yaml:"messaging_url" validate:"required,url"`
}

// Policy returns the retry policy of the tutor handler.
func (c RetryConfig) Policy() tutor.Policy {
	return tutor.Policy{
		MaxRetries: c.MaxRetries,
		TimeUnit:   c.TimeUnit,
	}
}

func (c ContactConfig) Links() contact.Links {
	return contact.Links{
		BookingFormURL: c.BookingFormURL,
		MessagingURL:   c.MessagingURL,
	}
}

// Instruction returns the system instruction, read from SystemInstructionFile if it is set.
func (c TutorConfig) Instruction() (string, error) {
	if c.SystemInstructionFile == "" {
		return c.SystemInstruction, nil
	}
	content, err := os.ReadFile(c.SystemInstructionFile)
	if err != nil {
		return "", fmt.Errorf("os.ReadFile(%s) > %w", c.SystemInstructionFile, err)
	}
	instruction := strings.TrimSpace(string(content))
	if instruction == "" {
		return "", fmt.Errorf("system instruction file %s is empty", c.SystemInstructionFile)
	}
	return instruction, nil
}

// Masked returns a copy that is safe to print.
func (c Config) Masked() Config {
	masked := c
	masked.Gemini.APIKey = maskSecret(c.Gemini.APIKey)
	masked.Server.CORS.AllowedOrigins = append([]string(nil), c.Server.CORS.AllowedOrigins...)
	return masked
}

func maskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(secret)-4) + secret[len(secret)-4:]
}

type ConfigLoader struct {
	viper      *viper.Viper
	validator  *validator.Validate
	translator ut.Translator
}

func NewConfigLoader(configFile string) (*ConfigLoader, error) {
	validate, trans, err := newValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create new validator: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/neotutor")
	}

	return &ConfigLoader{
		viper:      v,
		validator:  validate,
		translator: trans,
	}, nil
}

func (loader *ConfigLoader) Load() (*Config, error) {
	v := loader.viper

	v.SetDefault("gemini.model", gemini.DefaultModel)
	v.SetDefault("gemini.base_url", gemini.DefaultBaseURL)
	v.SetDefault("gemini.transport", TransportREST)
	v.SetDefault("gemini.timeout", gemini.DefaultTimeout)
	v.SetDefault("tutor.system_instruction", tutor.DefaultSystemInstruction)
	v.SetDefault("tutor.max_question_length", 2000)
	v.SetDefault("retry.max_retries", tutor.DefaultMaxRetries)
	v.SetDefault("retry.time_unit", tutor.DefaultTimeUnit)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("contact.booking_form_url", contact.DefaultBookingFormURL)
	v.SetDefault("contact.messaging_url", contact.DefaultMessagingURL)

	// The API key is read from the environment only
	if err := v.BindEnv("gemini.api_key", "GEMINI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind GEMINI_API_KEY environment variable: %w", err)
	}
	if err := v.BindEnv("gemini.model", "GEMINI_MODEL"); err != nil {
		return nil, fmt.Errorf("failed to bind GEMINI_MODEL environment variable: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("configuration file found but could not be read: %w. Please check the file format and permissions", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}

	if err := loader.validator.Struct(cfg); err != nil {
		validationErrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return nil, fmt.Errorf("validator.Struct > %w", err)
		}
		var errorMsgs []string
		for _, e := range validationErrors {
			errorMsgs = append(errorMsgs, e.Translate(loader.translator))
		}
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errorMsgs, ", "))
	}

	return &cfg, nil
}

// LoadEnvFile loads environment variables from .env style files that exist.
// Variables already set in the environment win.
func LoadEnvFile(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("os.Stat(%s) > %w", path, err)
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("godotenv.Load(%s) > %w", path, err)
		}
	}
	return nil
}
