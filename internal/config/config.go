package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel   string   `yaml:"log-level" env-default:"info"`
	HTTPPort   string   `yaml:"http-port" env-default:"9090"`
	SocketPort string   `yaml:"socket-port" env-default:"9091"`
	Game       Game     `yaml:"game"`
	Autoplay   Autoplay `yaml:"autoplay"`
	Results    Results  `yaml:"results"`
	Redis      Redis    `yaml:"redis"`
}

type Game struct {
	StartingBalance int    `yaml:"starting-balance" env-default:"100"`
	Seed            int64  `yaml:"seed" env-default:"0"`
	TiePolicy       string `yaml:"tie-policy" env-default:"rebid"`
	RebidLimit      int    `yaml:"rebid-limit" env-default:"5"`
}

type Autoplay struct {
	Enabled      bool          `yaml:"enabled" env-default:"false"`
	ThinkMin     time.Duration `yaml:"think-min" env-default:"800ms"`
	ThinkMax     time.Duration `yaml:"think-max" env-default:"2s"`
	RestartDelay time.Duration `yaml:"restart-delay" env-default:"5s"`
}

const (
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
)

type Results struct {
	Driver     string `yaml:"driver" env-default:"sqlite"`
	SQLitePath string `yaml:"sqlite-path" env-default:"./results.db"`
}

type Redis struct {
	Host string `yaml:"host" env-default:"localhost"`
	Port string `yaml:"port" env-default:"6379"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

// Load reads path and checks the values the engine cannot run with.
func Load(path string) (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

func (that *Config) validate() error {
	if that.Game.StartingBalance <= 0 {
		return fmt.Errorf("game.starting-balance must be positive, got %d", that.Game.StartingBalance)
	}

	if that.Game.RebidLimit < 0 {
		return fmt.Errorf("game.rebid-limit must not be negative, got %d", that.Game.RebidLimit)
	}

	if that.Autoplay.ThinkMax < that.Autoplay.ThinkMin {
		return fmt.Errorf("autoplay.think-max %s is below think-min %s", that.Autoplay.ThinkMax, that.Autoplay.ThinkMin)
	}

	switch that.Results.Driver {
	case DriverRedis, DriverSQLite:
	default:
		return fmt.Errorf("unknown results.driver %q", that.Results.Driver)
	}

	return nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
