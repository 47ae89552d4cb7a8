package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port    string `yaml:"port"`
		GinMode string `yaml:"ginMode"`
	} `yaml:"server"`
	Database struct {
		Driver string `yaml:"driver"` // sqlite or postgres
		DSN    string `yaml:"dsn"`
	} `yaml:"database"`
	Auth struct {
		JWTSecret     string `yaml:"jwtSecret"`
		TokenTTLHours int    `yaml:"tokenTTLHours"`
	} `yaml:"auth"`
	Bootstrap struct {
		AdminUsername string `yaml:"adminUsername"`
		AdminEmail    string `yaml:"adminEmail"`
		AdminPassword string `yaml:"adminPassword"`
		AdminName     string `yaml:"adminName"`
	} `yaml:"bootstrap"`
	Logging struct {
		Level   string `yaml:"level"` // trace, debug, info, warn, error
		File    string `yaml:"file"`  // empty logs to stdout
		MaxSize int    `yaml:"maxSize"`
	} `yaml:"logging"`
	Broker struct {
		AMQPURL  string `yaml:"amqpURL"` // empty disables the broker publisher
		Exchange string `yaml:"exchange"`
	} `yaml:"broker"`
	Operations struct {
		StrictStock            bool    `yaml:"strictStock"`
		KitchenPollSeconds     int     `yaml:"kitchenPollSeconds"`
		ReservationMinutes     int     `yaml:"reservationMinutes"`
		LaborHourlyRate        float64 `yaml:"laborHourlyRate"`
		ReleaseTableOnComplete bool    `yaml:"releaseTableOnComplete"`
	} `yaml:"operations"`
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Default returns a config usable without any file or environment.
func Default() Config {
	var c Config
	c.Server.Port = "8080"
	c.Server.GinMode = "debug"
	c.Database.Driver = "sqlite"
	c.Database.DSN = "restaurant.db"
	c.Auth.JWTSecret = "restaurant_dev_secret_change_me"
	c.Auth.TokenTTLHours = 24
	c.Bootstrap.AdminUsername = "admin"
	c.Bootstrap.AdminEmail = "admin@restaurant.local"
	c.Bootstrap.AdminName = "Administrator"
	c.Logging.Level = "info"
	c.Logging.MaxSize = 32
	c.Broker.Exchange = "restaurant_events"
	c.Operations.KitchenPollSeconds = 15
	c.Operations.ReservationMinutes = 120
	c.Operations.LaborHourlyRate = 25
	c.Operations.ReleaseTableOnComplete = true
	return c
}

// Load reads the YAML file at path (a missing file is fine) and applies
// environment overrides on top.
func Load(path string) (Config, error) {
	conf := Default()
	if path != "" {
		file, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return conf, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(file, &conf); err != nil {
				return conf, fmt.Errorf("cant unmarshal config: %w", err)
			}
		}
	}
	applyEnv(&conf)
	if err := conf.Validate(); err != nil {
		return conf, err
	}
	return conf, nil
}

func applyEnv(c *Config) {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Server.GinMode = getEnv("GIN_MODE", c.Server.GinMode)
	c.Database.Driver = getEnv("DB_DRIVER", c.Database.Driver)
	c.Database.DSN = getEnv("DB_DSN", c.Database.DSN)
	c.Auth.JWTSecret = getEnv("JWT_SECRET", c.Auth.JWTSecret)
	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
	c.Logging.File = getEnv("LOG_FILE", c.Logging.File)
	c.Broker.AMQPURL = getEnv("AMQP_URL", c.Broker.AMQPURL)
	c.Bootstrap.AdminUsername = getEnv("BOOTSTRAP_ADMIN_USERNAME", c.Bootstrap.AdminUsername)
	c.Bootstrap.AdminEmail = getEnv("BOOTSTRAP_ADMIN_EMAIL", c.Bootstrap.AdminEmail)
	c.Bootstrap.AdminPassword = getEnv("BOOTSTRAP_ADMIN_PASSWORD", c.Bootstrap.AdminPassword)
	c.Bootstrap.AdminName = getEnv("BOOTSTRAP_ADMIN_NAME", c.Bootstrap.AdminName)
	if v, err := strconv.ParseBool(os.Getenv("STRICT_STOCK")); err == nil {
		c.Operations.StrictStock = v
	}
}

func (c Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.Database.Driver) {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("unknown database driver %q", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database dsn is required"))
	}
	if len(c.Auth.JWTSecret) < 16 {
		errs = append(errs, errors.New("jwt secret must be at least 16 bytes"))
	}
	if c.Auth.TokenTTLHours <= 0 {
		errs = append(errs, errors.New("token ttl must be > 0 hours"))
	}
	if c.Operations.KitchenPollSeconds <= 0 {
		errs = append(errs, errors.New("kitchen poll interval must be > 0 seconds"))
	}
	if c.Operations.ReservationMinutes <= 0 {
		errs = append(errs, errors.New("reservation duration must be > 0 minutes"))
	}
	if c.Operations.LaborHourlyRate < 0 {
		errs = append(errs, errors.New("labor hourly rate must be >= 0"))
	}
	return errors.Join(errs...)
}
