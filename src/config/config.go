package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	KeyHotkey            = "HOTKEY"
	KeyAPIKey            = "GEMINI_API_KEY"
	KeyAPIKeyFile        = "GEMINI_API_KEY_FILE"
	KeyEndpoint          = "GEMINI_ENDPOINT"
	KeyRequestTimeoutSec = "REQUEST_TIMEOUT_SEC"
	KeySecretService     = "SECRET_SERVICE"
	KeyEnableFileLogging = "ENABLE_FILE_LOGGING"
	KeyLogLevel          = "LOG_LEVEL"
	KeyLogFormat         = "LOG_FORMAT"
	KeyPortStart         = "SINGLEINSTANCE_PORT_START"
	KeyPortEnd           = "SINGLEINSTANCE_PORT_END"

	// EnvFileEnvVar points at a .env file when none sits next to the
	// executable.
	EnvFileEnvVar = "SELECT_TRANSLATE_ENV"

	defaultRequestTimeoutSec = 60
	defaultSecretService     = "TranslateGemini"
)

// flagKeys maps command-line flags onto configuration keys.
var flagKeys = map[string]string{
	"hotkey":     KeyHotkey,
	"log-level":  KeyLogLevel,
	"log-format": KeyLogFormat,
	"endpoint":   KeyEndpoint,
}

type LoadOptions struct {
	// ConfigFile is an explicit TOML file; empty means the default location,
	// which may be absent.
	ConfigFile string
	// EnvFile overrides .env discovery.
	EnvFile string
	// Flags, when set, take precedence over every other source.
	Flags *pflag.FlagSet
}

type Config struct {
	Hotkey            string
	APIKey            string
	APIKeyPath        string
	Endpoint          string
	RequestTimeoutSec int
	SecretService     string
	EnableFileLogging bool
	LogLevel          string
	LogFormat         string
	// PortStart and PortEnd bound the resident's loopback port scan; empty
	// means the built-in range.
	PortStart string
	PortEnd   string
	// ConfigFile is the TOML file that was read, if any.
	ConfigFile string
}

// DefaultHotkey is Cmd+Shift+L on macOS and Ctrl+Shift+L elsewhere.
func DefaultHotkey() string {
	if runtime.GOOS == "darwin" {
		return "Cmd+Shift+L"
	}
	return "Ctrl+Shift+L"
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

// LoadWithOptions resolves configuration from, lowest to highest: defaults,
// .env, the TOML file, the process environment, flags.
func LoadWithOptions(opts LoadOptions) (*Config, error) {
	v := viper.New()
	v.SetDefault(KeyHotkey, DefaultHotkey())
	v.SetDefault(KeyRequestTimeoutSec, defaultRequestTimeoutSec)
	v.SetDefault(KeySecretService, defaultSecretService)
	v.SetDefault(KeyEnableFileLogging, false)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "auto")

	envPath := opts.EnvFile
	if envPath == "" {
		envPath = resolveEnvPath()
	}
	for k, val := range readDotenvValues(envPath) {
		v.SetDefault(k, val)
	}

	configFile, err := readConfigFile(v, opts.ConfigFile)
	if err != nil {
		return nil, err
	}

	v.AutomaticEnv()

	if opts.Flags != nil {
		for name, key := range flagKeys {
			if f := opts.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	timeout := v.GetInt(KeyRequestTimeoutSec)
	if timeout <= 0 {
		timeout = defaultRequestTimeoutSec
	}
	keyPath := strings.TrimSpace(v.GetString(KeyAPIKeyFile))

	cfg := &Config{
		Hotkey:            strings.TrimSpace(v.GetString(KeyHotkey)),
		APIKey:            resolveAPIKey(keyPath, v.GetString(KeyAPIKey)),
		APIKeyPath:        keyPath,
		Endpoint:          strings.TrimSpace(v.GetString(KeyEndpoint)),
		RequestTimeoutSec: timeout,
		SecretService:     v.GetString(KeySecretService),
		EnableFileLogging: v.GetBool(KeyEnableFileLogging),
		LogLevel:          v.GetString(KeyLogLevel),
		LogFormat:         v.GetString(KeyLogFormat),
		PortStart:         strings.TrimSpace(v.GetString(KeyPortStart)),
		PortEnd:           strings.TrimSpace(v.GetString(KeyPortEnd)),
		ConfigFile:        configFile,
	}
	if cfg.Hotkey == "" {
		cfg.Hotkey = DefaultHotkey()
	}
	if cfg.SecretService == "" {
		cfg.SecretService = defaultSecretService
	}
	return cfg, nil
}

// DefaultConfigFile is $XDG_CONFIG_HOME/select-translate/config.toml, or its
// platform equivalent.
func DefaultConfigFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "select-translate", "config.toml")
}

func readConfigFile(v *viper.Viper, explicit string) (string, error) {
	path := explicit
	if path == "" {
		path = DefaultConfigFile()
		if path == "" {
			return "", nil
		}
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
	}
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return "", fmt.Errorf("config: %w", err)
	}
	return path, nil
}

func resolveEnvPath() string {
	execPath, err := os.Executable()
	if err == nil {
		exeEnv := filepath.Join(filepath.Dir(execPath), ".env")
		if _, err := os.Stat(exeEnv); err == nil {
			return exeEnv
		}
	}

	if alt := os.Getenv(EnvFileEnvVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

func readDotenvValues(envPath string) map[string]string {
	if envPath == "" {
		return map[string]string{}
	}

	values, err := godotenv.Read(envPath)
	if err != nil {
		return map[string]string{}
	}

	return values
}

// resolveAPIKey prefers a non-empty key file over the inline value.
func resolveAPIKey(keyPath, inline string) string {
	if keyPath != "" {
		if data, err := os.ReadFile(keyPath); err == nil {
			if fileKey := strings.TrimSpace(string(data)); fileKey != "" {
				return fileKey
			}
		}
	}
	return strings.TrimSpace(inline)
}
