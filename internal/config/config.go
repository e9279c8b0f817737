package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	S3       S3Config       `mapstructure:"s3"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Env      string         `mapstructure:"env"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// StorageConfig selects the schedule store backend.
// Driver is one of "file", "mongo", "s3" or "memory".
type StorageConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"` // file driver only
}

type DatabaseConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	ObjectKey       string `mapstructure:"object_key"`
}

// AuthConfig defines the trainer session tokens issued after a successful
// PIN check. The PIN itself lives in the schedule document, not here.
type AuthConfig struct {
	JWTSecret         string        `mapstructure:"jwt_secret"`
	SessionExpiration time.Duration `mapstructure:"session_expiration"`
}

// ScheduleConfig seeds the schedule document the first time the store is
// empty, and labels the intended timezone for display. All slot arithmetic
// stays wall-clock naive regardless of the label.
type ScheduleConfig struct {
	DayStartHour  int    `mapstructure:"day_start_hour"`
	DayEndHour    int    `mapstructure:"day_end_hour"`
	TrainerPin    string `mapstructure:"trainer_pin"`
	TimezoneLabel string `mapstructure:"timezone_label"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Environment variables override the file, e.g.
	// storage.driver -> STORAGE_DRIVER, auth.jwt_secret -> AUTH_JWT_SECRET.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("storage.driver", "file")
	viper.SetDefault("storage.path", "storage.json")
	viper.SetDefault("database.uri", "mongodb://localhost:27017")
	viper.SetDefault("database.name", "trainerbook")
	viper.SetDefault("s3.object_key", "storage.json")
	viper.SetDefault("auth.jwt_secret", "")
	viper.SetDefault("auth.session_expiration", "12h")
	viper.SetDefault("schedule.day_start_hour", 6)
	viper.SetDefault("schedule.day_end_hour", 21)
	viper.SetDefault("schedule.trainer_pin", "1234")
	viper.SetDefault("schedule.timezone_label", "Asia/Singapore")
	viper.SetDefault("env", "development")

	err = viper.ReadInConfig()
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		// No config file is fine; env vars and defaults carry the day.
		err = nil
	} else if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
