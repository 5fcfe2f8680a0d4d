package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr           string
		Environment    string
		CORSOrigin     string
		MaxBodyBytes   int64
		MaxUploadBytes int64
		TrustedProxies []string
	}
	Database struct {
		Path string
	}
	Upload struct {
		TempDir string
	}
	Auth struct {
		AccessTokenSecret  string
		AccessTokenTTL     time.Duration
		RefreshTokenSecret string
		RefreshTokenTTL    time.Duration
		Issuer             string
	}
	Storage struct {
		Bucket        string
		KeyPrefix     string
		Region        string
		Endpoint      string
		PublicBaseURL string
	}
	AWS struct {
		Profile string
	}
	RateLimit struct {
		Enabled bool
		RPS     float64
		Burst   int
	}
	Log struct {
		Level string
	}
}

// IsProduction reports whether cookies must be marked Secure.
func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Server.Environment), "production")
}

// Validate rejects configurations the server cannot start with.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Auth.AccessTokenSecret) == "" {
		errs = append(errs, errors.New("auth.accesstokensecret is required"))
	}
	if strings.TrimSpace(c.Auth.RefreshTokenSecret) == "" {
		errs = append(errs, errors.New("auth.refreshtokensecret is required"))
	}
	if c.Auth.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("auth.accesstokenttl must be positive"))
	}
	if c.Auth.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("auth.refreshtokenttl must be positive"))
	}
	if strings.TrimSpace(c.Storage.Bucket) == "" {
		errs = append(errs, errors.New("storage.bucket is required"))
	}
	return errors.Join(errs...)
}

// Load reads configuration from environment variables and optional config files.
func Load() (Config, error) {
	loadDotEnv()

	v := viper.New()
	v.SetEnvPrefix("VIDTUBE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", "0.0.0.0:8000")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.corsorigin", "*")
	v.SetDefault("server.maxbodybytes", 16<<10)
	v.SetDefault("server.maxuploadbytes", 10<<20)
	v.SetDefault("server.trustedproxies", []string{})
	v.SetDefault("database.path", "data/vidtube.db")
	v.SetDefault("upload.tempdir", "public/temp")
	v.SetDefault("auth.accesstokensecret", "")
	v.SetDefault("auth.accesstokenttl", "24h")
	v.SetDefault("auth.refreshtokensecret", "")
	v.SetDefault("auth.refreshtokenttl", "240h")
	v.SetDefault("auth.issuer", "vidtube")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.keyprefix", "vidtube")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.publicbaseurl", "")
	v.SetDefault("aws.profile", "")
	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.rps", 1.0)
	v.SetDefault("ratelimit.burst", 10)
	v.SetDefault("log.level", "info")

	v.SetConfigName("config")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional file

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

func loadDotEnv() {
	file, err := os.Open(".env")
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

		partsIndex := strings.Index(line, "=")
		if partsIndex <= 0 {
			continue
		}

		key := strings.TrimSpace(line[:partsIndex])
		value := strings.TrimSpace(line[partsIndex+1:])
		value = strings.Trim(value, `"'`)
		if key == "" {
			continue
		}

		if _, exists := os.LookupEnv(key); !exists {
			_ = os.Setenv(key, value)
		}
	}
}
