package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	PrimaryKeyEnvVar     = "GEMINI_API_KEY"
	SecondaryKeyEnvVar   = "HUGGINGFACE_TOKEN"
	ModelEnvVar          = "GEMINI_MODEL"
	DefaultAPIKeyPath    = "/run/secrets/api_keys/gemini"
	APIKeyPathEnvVar     = "GEMINI_API_KEY_FILE"
	DefaultModel         = "gemini-2.5-pro"
	DefaultPrimaryURL    = "https://generativelanguage.googleapis.com/v1beta/openai/"
	DefaultSecondaryURL  = "https://api-inference.huggingface.co/models/microsoft/DialoGPT-large"
	defaultPortStart     = 49600
	defaultPortEnd       = 49650
	alternateEnvPathName = "STEALTH_OVERLAY_ENV"
)

type LoadOptions struct {
	APIKeyPathOverride string
	EnvPathOverride    string
}

type Config struct {
	APIKey            string
	APIKeyPath        string
	Model             string
	HFToken           string
	PrimaryBaseURL    string
	SecondaryEndpoint string
	ScratchDir        string
	HotkeysFile       string
	EnableFileLogging bool
	CopyResults       bool
	PortStart         int
	PortEnd           int
	Workers           int
	// EnvPath is the .env file that was loaded, or where credentials are persisted.
	EnvPath string
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	// Sources in priority order:
	// 1) explicit override
	// 2) .env in the executable directory
	// 3) STEALTH_OVERLAY_ENV path
	// 4) .env in the working directory
	envPath := resolveEnvPath(opts)
	dotenvValues := readDotenvValues(envPath)
	if envPath != "" {
		_ = godotenv.Load(envPath)
	}

	apiKeyPath := resolveAPIKeyPath(opts, dotenvValues)
	start, end := portRange()

	cfg := &Config{
		APIKey:            resolveAPIKey(apiKeyPath),
		APIKeyPath:        apiKeyPath,
		Model:             getEnvWithDefault(ModelEnvVar, DefaultModel),
		HFToken:           strings.TrimSpace(os.Getenv(SecondaryKeyEnvVar)),
		PrimaryBaseURL:    getEnvWithDefault("GEMINI_BASE_URL", DefaultPrimaryURL),
		SecondaryEndpoint: getEnvWithDefault("SECONDARY_ENDPOINT", DefaultSecondaryURL),
		ScratchDir:        os.Getenv("OVERLAY_SCRATCH_DIR"),
		HotkeysFile:       os.Getenv("HOTKEYS_FILE"),
		EnableFileLogging: strings.ToLower(os.Getenv("ENABLE_FILE_LOGGING")) == "true",
		CopyResults:       strings.ToLower(os.Getenv("COPY_RESULTS")) == "true",
		PortStart:         start,
		PortEnd:           end,
		Workers:           positiveInt("WORKERS", runtime.NumCPU()),
		EnvPath:           persistPath(envPath),
	}

	return cfg, nil
}

func resolveEnvPath(opts LoadOptions) string {
	if p := strings.TrimSpace(opts.EnvPathOverride); p != "" {
		return p
	}

	if execPath, err := os.Executable(); err == nil {
		exeEnv := filepath.Join(filepath.Dir(execPath), ".env")
		if _, err := os.Stat(exeEnv); err == nil {
			return exeEnv
		}
	}

	if alt := os.Getenv(alternateEnvPathName); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	if _, err := os.Stat(".env"); err == nil {
		return ".env"
	}

	return ""
}

// persistPath is where credential changes are written back: the loaded file,
// or a new .env next to the executable.
func persistPath(loaded string) string {
	if loaded != "" {
		return loaded
	}
	if execPath, err := os.Executable(); err == nil {
		return filepath.Join(filepath.Dir(execPath), ".env")
	}
	return ".env"
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

func resolveAPIKeyPath(opts LoadOptions, dotenvValues map[string]string) string {
	keyPath := DefaultAPIKeyPath

	if envPath := strings.TrimSpace(os.Getenv(APIKeyPathEnvVar)); envPath != "" {
		keyPath = envPath
	}

	if dotenvPath := strings.TrimSpace(dotenvValues[APIKeyPathEnvVar]); dotenvPath != "" {
		keyPath = dotenvPath
	}

	if overridePath := strings.TrimSpace(opts.APIKeyPathOverride); overridePath != "" {
		keyPath = overridePath
	}

	return keyPath
}

func resolveAPIKey(keyPath string) string {
	if data, err := os.ReadFile(keyPath); err == nil {
		if fileKey := strings.TrimSpace(string(data)); fileKey != "" {
			return fileKey
		}
	}

	return strings.TrimSpace(os.Getenv(PrimaryKeyEnvVar))
}

// portRange reads CONTROL_PORT_START/CONTROL_PORT_END, clamped to [1024, 65535].
func portRange() (int, int) {
	start := defaultPortStart
	end := defaultPortEnd
	if v := os.Getenv("CONTROL_PORT_START"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			start = n
		}
	}
	if v := os.Getenv("CONTROL_PORT_END"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			end = n
		}
	}
	if start < 1024 {
		start = 1024
	}
	if end > 65535 {
		end = 65535
	}
	if end < start {
		start, end = end, start
	}
	return start, end
}

func positiveInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}
