package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App struct {
		Env string
	} `mapstructure:"app"`

	HTTP struct {
		Addr string
	} `mapstructure:"http"`

	DB struct {
		Path string
	} `mapstructure:"db"`

	Auth struct {
		JWTSecret string   `mapstructure:"jwt_secret"`
		Clients   []Client `mapstructure:"clients"`
	} `mapstructure:"auth"`

	Replenish struct {
		CooldownDays  int           `mapstructure:"cooldown_days"`
		LeadTimeDays  int           `mapstructure:"lead_time_days"`
		SweepInterval time.Duration `mapstructure:"sweep_interval"`
	} `mapstructure:"replenish"`

	Dashboard struct {
		WindowDays int `mapstructure:"window_days"`
	} `mapstructure:"dashboard"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`
}

// Client is an API client credential pair; the secret is stored as a bcrypt
// hash, never in the clear.
type Client struct {
	ID         string `mapstructure:"id"`
	SecretHash string `mapstructure:"secret_hash"`
}

func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("STOCKD")
	v.AutomaticEnv()

	v.SetDefault("app.env", "prod")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("db.path", "stockd.sqlite3")
	v.SetDefault("replenish.cooldown_days", 7)
	v.SetDefault("replenish.lead_time_days", 7)
	v.SetDefault("replenish.sweep_interval", time.Hour)
	v.SetDefault("dashboard.window_days", 30)
	v.SetDefault("metrics.enabled", false)

	var c Config
	if err := v.ReadInConfig(); err != nil {
		return c, err
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	if c.Auth.JWTSecret == "" {
		return c, fmt.Errorf("auth.jwt_secret is required")
	}
	return c, nil
}
