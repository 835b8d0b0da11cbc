package app

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces every environment variable the client reads.
const EnvPrefix = "PROFILESYNC"

// Config holds the client configuration aggregated from the environment,
// an optional .env file and an optional profilesync.yaml.
type Config struct {
	API struct {
		Scheme    string
		Host      string
		Port      int
		Timeout   time.Duration
		RateLimit int // requests per second, 0 disables
		Burst     int
	}
	Store struct {
		Driver        string // sqlite or memory
		Path          string
		MasterKeyPath string
	}
	Status struct {
		Delay time.Duration
	}
	Log struct {
		Level  string
		Format string
	}
	Env string
}

// LoadConfig reads configuration. configFile, when set, replaces the search
// for profilesync.yaml and must exist.
func LoadConfig(configFile string) (Config, error) {
	loadDotEnv(".env")

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The mobile app took its API address from IP_address.
	_ = v.BindEnv("api.host", EnvPrefix+"_API_HOST", "IP_address")

	dataDir := defaultDataDir()

	v.SetDefault("api.scheme", "http")
	v.SetDefault("api.host", "localhost")
	v.SetDefault("api.port", 8000)
	v.SetDefault("api.timeout", 10*time.Second)
	v.SetDefault("api.ratelimit", 0)
	v.SetDefault("api.burst", 1)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", filepath.Join(dataDir, "credentials.db"))
	v.SetDefault("store.masterkeypath", filepath.Join(dataDir, "master.key"))
	v.SetDefault("status.delay", 5*time.Second)
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")
	v.SetDefault("env", "prod")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("profilesync")
		v.AddConfigPath(".")
		v.AddConfigPath(dataDir)
		_ = v.ReadInConfig() // optional file
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate rejects configurations the client cannot run with.
func (c Config) Validate() error {
	var errs []error

	switch c.API.Scheme {
	case "http", "https":
	default:
		errs = append(errs, fmt.Errorf("api.scheme must be http or https, got %q", c.API.Scheme))
	}
	if c.API.Host == "" {
		errs = append(errs, errors.New("api.host is required"))
	}
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, fmt.Errorf("api.port out of range: %d", c.API.Port))
	}
	if c.API.RateLimit < 0 {
		errs = append(errs, errors.New("api.ratelimit must not be negative"))
	}

	switch c.Store.Driver {
	case "memory":
	case "sqlite":
		if c.Store.Path == "" {
			errs = append(errs, errors.New("store.path is required for sqlite"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store.driver %q", c.Store.Driver))
	}

	return errors.Join(errs...)
}

// APIOrigin returns scheme://host:port.
func (c Config) APIOrigin() string {
	return c.API.Scheme + "://" + net.JoinHostPort(c.API.Host, strconv.Itoa(c.API.Port))
}

func defaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "profilesync")
}

// loadDotEnv copies KEY=VALUE lines from path into the environment without
// overriding variables that are already set.
func loadDotEnv(path string) {
	file, err := os.Open(path)
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		idx := strings.Index(line, "=")
		if idx <= 0 {
			continue
		}

		key := strings.TrimSpace(line[:idx])
		value := strings.Trim(strings.TrimSpace(line[idx+1:]), `"'`)
		if key == "" {
			continue
		}

		if _, exists := os.LookupEnv(key); !exists {
			_ = os.Setenv(key, value)
		}
	}
}
