package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Game     GameConfig     `mapstructure:"game"`
	Database DatabaseConfig `mapstructure:"database"`
}

type ServerConfig struct {
	HTTPAddress string  `mapstructure:"http_address"`
	RPCAddress  string  `mapstructure:"rpc_address"`
	RateLimit   float64 `mapstructure:"rate_limit"`
	RateBurst   int     `mapstructure:"rate_burst"`

	// Heartbeat enables read deadlines of twice this interval; 0 disables them.
	Heartbeat time.Duration `mapstructure:"heartbeat"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// GameConfig holds the room registry limits and the settings new rooms start with.
type GameConfig struct {
	MaxRooms        int           `mapstructure:"max_rooms"`
	RoomDeleteGrace time.Duration `mapstructure:"room_delete_grace"`
	DisconnectGrace time.Duration `mapstructure:"disconnect_grace"`
	SweepSchedule   string        `mapstructure:"sweep_schedule"`
	RoundDuration   int           `mapstructure:"round_duration"`
	WinningScore    int           `mapstructure:"winning_score"`
	Difficulty      string        `mapstructure:"difficulty"`
	TeamCount       int           `mapstructure:"team_count"`
}

type DatabaseConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_address", ":8080")
	v.SetDefault("server.rpc_address", ":9090")
	v.SetDefault("server.rate_limit", 20.0)
	v.SetDefault("server.rate_burst", 40)
	v.SetDefault("server.heartbeat", time.Duration(0))

	v.SetDefault("log.level", "info")

	v.SetDefault("game.max_rooms", 200)
	v.SetDefault("game.room_delete_grace", 30*time.Second)
	v.SetDefault("game.disconnect_grace", 5*time.Second)
	v.SetDefault("game.sweep_schedule", "@every 1m")
	v.SetDefault("game.round_duration", 60)
	v.SetDefault("game.winning_score", 30)
	v.SetDefault("game.difficulty", "medium")
	v.SetDefault("game.team_count", 2)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.user", "postgres")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.postgres.dbname", "alias")
}

// LoadConfig reads config.yaml from path if present, then applies ALIAS_* environment
// overrides. A .env file in the working directory is loaded into the environment first.
func LoadConfig(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("alias")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}
