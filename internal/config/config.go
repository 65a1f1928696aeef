package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type TelemetryConfig struct {
	LogLevel       string `yaml:"log_level"`
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
	OTLPInsecure   bool   `yaml:"otlp_insecure"`
	PrometheusBind string `yaml:"prometheus_bind"`
}

type HTTPConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type BusConfig struct {
	Embedded       bool     `yaml:"embedded"`
	Port           int      `yaml:"port"`
	Servers        []string `yaml:"servers"`
	Username       string   `yaml:"username"`
	Password       string   `yaml:"password"`
	Token          string   `yaml:"token"`
	TLSInsecure    bool     `yaml:"tls_insecure"`
	ConnectTimeout int      `yaml:"connect_timeout_ms"`
}

type CacheConfig struct {
	Path          string `yaml:"path"`
	MemoryEntries int    `yaml:"memory_entries"`
}

type SpeechConfig struct {
	Engine         string  `yaml:"engine"` // remote, device
	Endpoint       string  `yaml:"endpoint"`
	Voice          string  `yaml:"voice"`
	Speed          float64 `yaml:"speed"`
	Locale         string  `yaml:"locale"`
	DeviceMode     string  `yaml:"device_mode"` // exec, mock
	DeviceCommand  string  `yaml:"device_command"`
	SynthTimeoutMS int     `yaml:"synth_timeout_ms"`
}

type PlaybackConfig struct {
	PrefetchAhead int `yaml:"prefetch_ahead"`
}

type Config struct {
	RuntimeName string          `yaml:"runtime_name"`
	Environment string          `yaml:"environment"`
	HTTP        HTTPConfig      `yaml:"http"`
	Telemetry   TelemetryConfig `yaml:"telemetry"`
	Bus         BusConfig       `yaml:"bus"`
	Cache       CacheConfig     `yaml:"cache"`
	Speech      SpeechConfig    `yaml:"speech"`
	Playback    PlaybackConfig  `yaml:"playback"`
}

func Default() Config {
	return Config{
		RuntimeName: "document-echo",
		Environment: "development",
		HTTP: HTTPConfig{
			Bind: "0.0.0.0",
			Port: 8080,
		},
		Telemetry: TelemetryConfig{
			LogLevel:       "info",
			OTLPEndpoint:   "",
			OTLPInsecure:   true,
			PrometheusBind: ":9091",
		},
		Bus: BusConfig{
			Embedded:       true,
			Port:           4222,
			Servers:        []string{"nats://localhost:4222"},
			ConnectTimeout: 2000,
		},
		Cache: CacheConfig{
			Path:          "./data/echo-audio.db",
			MemoryEntries: 256,
		},
		Speech: SpeechConfig{
			Engine:         "device",
			Endpoint:       "http://localhost:8880",
			Voice:          "af_heart",
			Speed:          1.0,
			Locale:         "en-us",
			DeviceMode:     "mock",
			SynthTimeoutMS: 45000,
		},
		Playback: PlaybackConfig{
			PrefetchAhead: 2,
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.RuntimeName, "ECHO_RUNTIME_NAME")
	overrideString(&cfg.Environment, "ECHO_RUNTIME_ENVIRONMENT")
	overrideString(&cfg.HTTP.Bind, "ECHO_HTTP_BIND")
	overrideInt(&cfg.HTTP.Port, "ECHO_HTTP_PORT")
	overrideString(&cfg.Telemetry.LogLevel, "ECHO_TELEMETRY_LOG_LEVEL")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "ECHO_TELEMETRY_OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.OTLPInsecure, "ECHO_TELEMETRY_OTLP_INSECURE")
	overrideString(&cfg.Telemetry.PrometheusBind, "ECHO_TELEMETRY_PROMETHEUS_BIND")
	overrideBool(&cfg.Bus.Embedded, "ECHO_BUS_EMBEDDED")
	overrideInt(&cfg.Bus.Port, "ECHO_BUS_PORT")
	overrideStringSlice(&cfg.Bus.Servers, "ECHO_BUS_SERVERS")
	overrideString(&cfg.Bus.Username, "ECHO_BUS_USERNAME")
	overrideString(&cfg.Bus.Password, "ECHO_BUS_PASSWORD")
	overrideString(&cfg.Bus.Token, "ECHO_BUS_TOKEN")
	overrideBool(&cfg.Bus.TLSInsecure, "ECHO_BUS_TLS_INSECURE")
	overrideInt(&cfg.Bus.ConnectTimeout, "ECHO_BUS_CONNECT_TIMEOUT_MS")
	overrideString(&cfg.Cache.Path, "ECHO_CACHE_PATH")
	overrideInt(&cfg.Cache.MemoryEntries, "ECHO_CACHE_MEMORY_ENTRIES")
	overrideString(&cfg.Speech.Engine, "ECHO_SPEECH_ENGINE")
	overrideString(&cfg.Speech.Endpoint, "ECHO_SPEECH_ENDPOINT")
	overrideString(&cfg.Speech.Voice, "ECHO_SPEECH_VOICE")
	overrideFloat(&cfg.Speech.Speed, "ECHO_SPEECH_SPEED")
	overrideString(&cfg.Speech.Locale, "ECHO_SPEECH_LOCALE")
	overrideString(&cfg.Speech.DeviceMode, "ECHO_SPEECH_DEVICE_MODE")
	overrideString(&cfg.Speech.DeviceCommand, "ECHO_SPEECH_DEVICE_COMMAND")
	overrideInt(&cfg.Speech.SynthTimeoutMS, "ECHO_SPEECH_SYNTH_TIMEOUT_MS")
	overrideInt(&cfg.Playback.PrefetchAhead, "ECHO_PLAYBACK_PREFETCH_AHEAD")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func overrideFloat(target *float64, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			*target = parsed
		}
	}
}

func overrideStringSlice(target *[]string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		parts := strings.Split(value, ",")
		var trimmed []string
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				trimmed = append(trimmed, s)
			}
		}
		if len(trimmed) > 0 {
			*target = trimmed
		}
	}
}

func validate(cfg Config) error {
	if cfg.RuntimeName == "" {
		return errors.New("runtime_name must not be empty")
	}
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return errors.New("http.port must be between 1 and 65535")
	}
	if cfg.Bus.Embedded {
		if cfg.Bus.Port <= 0 || cfg.Bus.Port > 65535 {
			return errors.New("bus.port must be between 1 and 65535 when embedded mode is enabled")
		}
	} else {
		if len(cfg.Bus.Servers) == 0 {
			return errors.New("bus.servers must not be empty when embedded mode is disabled")
		}
	}
	if cfg.Telemetry.PrometheusBind == "" {
		return errors.New("telemetry.prometheus_bind must not be empty")
	}
	if cfg.Cache.Path == "" {
		return errors.New("cache.path must not be empty")
	}
	if cfg.Cache.MemoryEntries <= 0 {
		return errors.New("cache.memory_entries must be >= 1")
	}
	switch cfg.Speech.Engine {
	case "remote", "device":
	default:
		return errors.New("speech.engine must be one of remote|device")
	}
	if cfg.Speech.Engine == "remote" && cfg.Speech.Endpoint == "" {
		return errors.New("speech.endpoint must be set when engine=remote")
	}
	switch cfg.Speech.DeviceMode {
	case "exec", "mock":
	default:
		return errors.New("speech.device_mode must be one of exec|mock")
	}
	if cfg.Speech.DeviceMode == "exec" && cfg.Speech.DeviceCommand == "" {
		return errors.New("speech.device_command must be set when device_mode=exec")
	}
	if cfg.Speech.Speed <= 0 {
		return errors.New("speech.speed must be positive")
	}
	if cfg.Speech.SynthTimeoutMS <= 0 {
		return errors.New("speech.synth_timeout_ms must be positive")
	}
	if cfg.Playback.PrefetchAhead < 0 {
		return errors.New("playback.prefetch_ahead must be >= 0")
	}
	return nil
}
