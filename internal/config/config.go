// Package config loads vistoria settings from layered sources: defaults, the user config
// file, the project config file and VISTORIA_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/ariel-frischer/vistoria/internal/notify"
)

// EnvPrefix prefixes every environment override. Nested keys use a double underscore:
// VISTORIA_NOTIFICATIONS__SMTP__HOST -> notifications.smtp.host.
const EnvPrefix = "VISTORIA_"

// Configuration represents the vistoria configuration
type Configuration struct {
	DatabasePath     string `koanf:"database_path" json:"database_path" validate:"required"`
	ArtifactsDir     string `koanf:"artifacts_dir" json:"artifacts_dir" validate:"required"`
	PublicBaseURL    string `koanf:"public_base_url" json:"public_base_url" validate:"omitempty,url"`
	DefaultRecipient string `koanf:"default_recipient" json:"default_recipient" validate:"omitempty,email"`
	DefaultMode      string `koanf:"default_mode" json:"default_mode" validate:"oneof=compatibility enriched"`
	IncludeJSON      bool   `koanf:"include_json" json:"include_json"`
	IncludeWorkbook  bool   `koanf:"include_workbook" json:"include_workbook"`
	MaxRetries       int    `koanf:"max_retries" json:"max_retries" validate:"min=0,max=10"`
	// Timeout bounds one export in seconds (0 means no timeout)
	Timeout               int    `koanf:"timeout" json:"timeout" validate:"min=0,max=3600"`
	LogLevel              string `koanf:"log_level" json:"log_level" validate:"oneof=debug info warn error"`
	ThumbnailMaxDim       int    `koanf:"thumbnail_max_dim" json:"thumbnail_max_dim" validate:"min=64,max=4096"`
	ListenAddr            string `koanf:"listen_addr" json:"listen_addr" validate:"required,hostname_port"`
	ValidationConcurrency int    `koanf:"validation_concurrency" json:"validation_concurrency" validate:"min=1,max=64"`

	Notifications notify.NotificationConfig `koanf:"notifications" json:"notifications"`
}

// LoadOptions names the files Load reads. Empty paths are skipped.
type LoadOptions struct {
	UserConfigPath    string
	ProjectConfigPath string
	// SkipEnv ignores VISTORIA_* variables.
	SkipEnv bool
}

// Load loads configuration from user, project, and environment sources
// Priority: Environment variables > Project config > User config > Defaults
func Load(projectConfigPath string) (*Configuration, error) {
	userPath, err := UserConfigPath()
	if err != nil {
		userPath = ""
	}
	return LoadWithOptions(LoadOptions{UserConfigPath: userPath, ProjectConfigPath: projectConfigPath})
}

// LoadWithOptions loads configuration from the given sources.
func LoadWithOptions(opts LoadOptions) (*Configuration, error) {
	k := koanf.New(".")

	// Apply defaults first
	for key, value := range GetDefaults() {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("failed to apply default %s: %w", key, err)
		}
	}

	for _, src := range []struct{ name, path string }{
		{"user", opts.UserConfigPath},
		{"project", opts.ProjectConfigPath},
	} {
		if err := loadFile(k, src.path); err != nil {
			return nil, fmt.Errorf("failed to load %s config: %w", src.name, err)
		}
	}

	// Override with environment variables (highest priority)
	if !opts.SkipEnv {
		if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
			return nil, fmt.Errorf("failed to load environment: %w", err)
		}
	}

	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	source := firstNonEmpty(opts.ProjectConfigPath, opts.UserConfigPath, "defaults")
	if err := validateStruct(&cfg, source); err != nil {
		return nil, err
	}
	if err := ValidateConfigValues(&cfg, source); err != nil {
		return nil, err
	}

	cfg.DatabasePath = expandHomePath(cfg.DatabasePath)
	cfg.ArtifactsDir = expandHomePath(cfg.ArtifactsDir)
	return &cfg, nil
}

func loadFile(k *koanf.Koanf, path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := ValidateJSONSyntax(path); err != nil {
		return err
	}
	return k.Load(file.Provider(path), json.Parser())
}

var structValidator = newStructValidator()

// newStructValidator reports fields by their koanf key rather than the Go field name.
func newStructValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

func validateStruct(cfg *Configuration, source string) error {
	err := structValidator.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("config validation failed: %w", err)
	}
	fe := verrs[0]
	field := strings.TrimPrefix(fe.Namespace(), "Configuration.")
	return &ValidationError{
		FilePath: source,
		Field:    field,
		Message:  describeRule(fe),
	}
}

func describeRule(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "hostname_port":
		return "must be a host:port address"
	}
	return fmt.Sprintf("failed %q validation", fe.Tag())
}

// envTransform converts environment variable names to config keys
// Example: VISTORIA_MAX_RETRIES -> max_retries, VISTORIA_NOTIFICATIONS__ENABLED -> notifications.enabled
func envTransform(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// expandHomePath expands ~ to the user's home directory
func expandHomePath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(homeDir, path[2:])
		}
	}
	return path
}

// UserConfigPath returns ~/.vistoria/config.json.
func UserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".vistoria", "config.json"), nil
}

// ProjectConfigPath returns the project config path relative to the working directory.
func ProjectConfigPath() string {
	return filepath.Join(".vistoria", "config.json")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
