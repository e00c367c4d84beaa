package config

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ConfigValueType is the kind a `config set` value is converted to.
type ConfigValueType int

const (
	TypeBool ConfigValueType = iota
	TypeInt
	TypeDuration
	TypeString
	TypeEnum
)

func (t ConfigValueType) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	case TypeDuration:
		return "duration"
	case TypeString:
		return "string"
	case TypeEnum:
		return "enum"
	default:
		return "unknown"
	}
}

// ConfigKeySchema describes one key accepted by `config set`.
type ConfigKeySchema struct {
	Path          string
	Type          ConfigValueType
	AllowedValues []string // enum choices
	Rule          string   // validator tag checked after conversion, e.g. "min=0,max=10"
	Description   string
	Default       any
}

// KnownKeys lists every settable key. Paths mirror the koanf tags of Configuration.
var KnownKeys = map[string]ConfigKeySchema{
	"database_path": {
		Path:        "database_path",
		Type:        TypeString,
		Rule:        "required",
		Description: "Path of the SQLite database file",
		Default:     "~/.vistoria/vistoria.db",
	},
	"artifacts_dir": {
		Path:        "artifacts_dir",
		Type:        TypeString,
		Rule:        "required",
		Description: "Directory where exported reports are stored",
		Default:     "~/.vistoria/reports",
	},
	"public_base_url": {
		Path:        "public_base_url",
		Type:        TypeString,
		Rule:        "omitempty,url",
		Description: "Base URL under which exported reports are published (empty for file:// links)",
		Default:     "",
	},
	"default_recipient": {
		Path:        "default_recipient",
		Type:        TypeString,
		Rule:        "omitempty,email",
		Description: "Organizational address receiving reports when the client has no contact email",
		Default:     "",
	},
	"default_mode": {
		Path:          "default_mode",
		Type:          TypeEnum,
		AllowedValues: []string{"compatibility", "enriched"},
		Description:   "Report layout used when an export names none",
		Default:       "enriched",
	},
	"include_json": {
		Path:        "include_json",
		Type:        TypeBool,
		Description: "Export the JSON report alongside the PDF by default",
		Default:     false,
	},
	"include_workbook": {
		Path:        "include_workbook",
		Type:        TypeBool,
		Description: "Export the XLSX workbook alongside the PDF by default",
		Default:     false,
	},
	"max_retries": {
		Path:        "max_retries",
		Type:        TypeInt,
		Rule:        "min=0,max=10",
		Description: "Maximum number of delivery retries per export",
		Default:     3,
	},
	"timeout": {
		Path:        "timeout",
		Type:        TypeInt,
		Rule:        "min=0,max=3600",
		Description: "Timeout in seconds for one export (0 for none)",
		Default:     120,
	},
	"log_level": {
		Path:          "log_level",
		Type:          TypeEnum,
		AllowedValues: []string{"debug", "info", "warn", "error"},
		Description:   "Minimum log level",
		Default:       "info",
	},
	"thumbnail_max_dim": {
		Path:        "thumbnail_max_dim",
		Type:        TypeInt,
		Rule:        "min=64,max=4096",
		Description: "Longest side in pixels of photos embedded in the PDF",
		Default:     800,
	},
	"listen_addr": {
		Path:        "listen_addr",
		Type:        TypeString,
		Rule:        "hostname_port",
		Description: "Address of the HTTP API server",
		Default:     "127.0.0.1:8080",
	},
	"validation_concurrency": {
		Path:        "validation_concurrency",
		Type:        TypeInt,
		Rule:        "min=1,max=64",
		Description: "Inspections validated in parallel by validate --all",
		Default:     4,
	},
	"notifications.enabled": {
		Path:        "notifications.enabled",
		Type:        TypeBool,
		Description: "Enable or disable all notifications",
		Default:     false,
	},
	"notifications.channel": {
		Path:          "notifications.channel",
		Type:          TypeEnum,
		AllowedValues: []string{"email", "webhook", "log"},
		Description:   "Delivery channel for alerts and reports",
		Default:       "log",
	},
	"notifications.timeout": {
		Path:        "notifications.timeout",
		Type:        TypeDuration,
		Description: "Timeout of a single delivery (e.g., 10s, 1m)",
		Default:     "10s",
	},
	"notifications.webhook_url": {
		Path:        "notifications.webhook_url",
		Type:        TypeString,
		Rule:        "omitempty,url",
		Description: "URL receiving a JSON POST per notification",
		Default:     "",
	},
	"notifications.smtp.host": {
		Path:        "notifications.smtp.host",
		Type:        TypeString,
		Description: "SMTP relay host",
		Default:     "",
	},
	"notifications.smtp.port": {
		Path:        "notifications.smtp.port",
		Type:        TypeInt,
		Rule:        "min=1,max=65535",
		Description: "SMTP relay port",
		Default:     587,
	},
	"notifications.smtp.username": {
		Path:        "notifications.smtp.username",
		Type:        TypeString,
		Description: "SMTP username",
		Default:     "",
	},
	"notifications.smtp.password": {
		Path:        "notifications.smtp.password",
		Type:        TypeString,
		Description: "SMTP password",
		Default:     "",
	},
	"notifications.smtp.from": {
		Path:        "notifications.smtp.from",
		Type:        TypeString,
		Rule:        "omitempty,email",
		Description: "Sender address of notification emails",
		Default:     "",
	},
}

// ErrUnknownKey reports a key missing from KnownKeys.
type ErrUnknownKey struct {
	Key string
}

func (e ErrUnknownKey) Error() string {
	return "unknown configuration key: " + e.Key
}

// ValidKeys returns every known key, sorted.
func ValidKeys() []string {
	keys := make([]string, 0, len(KnownKeys))
	for k := range KnownKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetKeySchema looks up path, failing with ErrUnknownKey.
func GetKeySchema(path string) (ConfigKeySchema, error) {
	schema, ok := KnownKeys[path]
	if !ok {
		return ConfigKeySchema{}, ErrUnknownKey{Key: path}
	}
	return schema, nil
}

// ParsedValue is a value ready to be written to a config file.
type ParsedValue struct {
	Raw    string // as typed on the command line
	Parsed any
	Type   ConfigValueType
}

// ValidateValue converts value for key and applies the key's rule.
func ValidateValue(key, value string) (ParsedValue, error) {
	schema, err := GetKeySchema(key)
	if err != nil {
		return ParsedValue{}, err
	}
	return validateAgainstSchema(schema, value)
}

// validateAgainstSchema converts value to the key's type, then checks the key's rule.
func validateAgainstSchema(schema ConfigKeySchema, value string) (ParsedValue, error) {
	convert, ok := converters[schema.Type]
	if !ok {
		return ParsedValue{}, fmt.Errorf("unsupported type: %v", schema.Type)
	}
	parsed, err := convert(schema, value)
	if err != nil {
		return ParsedValue{}, err
	}
	if schema.Rule != "" {
		if err := structValidator.Var(parsed, schema.Rule); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) && len(verrs) > 0 {
				return ParsedValue{}, fmt.Errorf("invalid value %q for %s: %s", value, schema.Path, describeRule(verrs[0]))
			}
			return ParsedValue{}, fmt.Errorf("invalid value %q for %s: %w", value, schema.Path, err)
		}
	}
	return ParsedValue{Raw: value, Parsed: parsed, Type: schema.Type}, nil
}

var converters = map[ConfigValueType]func(ConfigKeySchema, string) (any, error){
	TypeBool: func(_ ConfigKeySchema, value string) (any, error) {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return nil, fmt.Errorf("invalid boolean: %q (expected true or false)", value)
	},
	TypeInt: func(_ ConfigKeySchema, value string) (any, error) {
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("invalid integer: %q", value)
		}
		return n, nil
	},
	// Durations are stored in their canonical form so koanf decodes them into time.Duration.
	TypeDuration: func(_ ConfigKeySchema, value string) (any, error) {
		d, err := time.ParseDuration(value)
		if err != nil {
			return nil, fmt.Errorf("invalid duration: %q (examples: 10s, 1m)", value)
		}
		return d.String(), nil
	},
	TypeEnum: func(schema ConfigKeySchema, value string) (any, error) {
		if !slices.Contains(schema.AllowedValues, value) {
			return nil, fmt.Errorf("invalid value: %q (valid options: %s)", value, strings.Join(schema.AllowedValues, ", "))
		}
		return value, nil
	},
	TypeString: func(_ ConfigKeySchema, value string) (any, error) {
		return strings.TrimSpace(value), nil
	},
}
