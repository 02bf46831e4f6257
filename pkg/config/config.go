package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Engine   EngineConfig
	Fitness  FitnessConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// EngineConfig holds the engine settings loaded from the ENGINE_* variables.
// RNGSeed and MakeupPriority are not read anywhere else in this module: a
// run's seed is pipeline.Config.Seed, taken from the run request, and the
// randomized engines (local-search, population) use that value, 0 included,
// as a literal seed; they never self-seed.
type EngineConfig struct {
	Default        string
	RNGSeed        int64
	MaxTimeSeconds int
	MakeupPriority bool
}

// FitnessConfig carries the eight Standard Fitness component weights. A
// zero value for any field falls back to fitness.DefaultWeights for that
// component (see fitness.WithDefaults).
type FitnessConfig struct {
	Coverage            float64
	Consecutive         float64
	LoadBalance         float64
	ClassroomEfficiency float64
	TimeEfficiency      float64
	Conflicts           float64
	Gaps                float64
	EarlySlots          float64
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Engine = EngineConfig{
		Default:        v.GetString("ENGINE_DEFAULT"),
		RNGSeed:        v.GetInt64("ENGINE_RNG_SEED"),
		MaxTimeSeconds: v.GetInt("ENGINE_MAX_TIME_SECONDS"),
		MakeupPriority: v.GetBool("ENGINE_MAKEUP_PRIORITY"),
	}

	cfg.Fitness = FitnessConfig{
		Coverage:            v.GetFloat64("FITNESS_WEIGHT_COVERAGE"),
		Consecutive:         v.GetFloat64("FITNESS_WEIGHT_CONSECUTIVE"),
		LoadBalance:         v.GetFloat64("FITNESS_WEIGHT_LOAD_BALANCE"),
		ClassroomEfficiency: v.GetFloat64("FITNESS_WEIGHT_CLASSROOM_EFFICIENCY"),
		TimeEfficiency:      v.GetFloat64("FITNESS_WEIGHT_TIME_EFFICIENCY"),
		Conflicts:           v.GetFloat64("FITNESS_WEIGHT_CONFLICTS"),
		Gaps:                v.GetFloat64("FITNESS_WEIGHT_GAPS"),
		EarlySlots:          v.GetFloat64("FITNESS_WEIGHT_EARLY_SLOTS"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "examboard_scheduler")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENGINE_DEFAULT", "priority")
	v.SetDefault("ENGINE_RNG_SEED", 0)
	v.SetDefault("ENGINE_MAX_TIME_SECONDS", 30)
	v.SetDefault("ENGINE_MAKEUP_PRIORITY", false)

	v.SetDefault("FITNESS_WEIGHT_COVERAGE", 0)
	v.SetDefault("FITNESS_WEIGHT_CONSECUTIVE", 0)
	v.SetDefault("FITNESS_WEIGHT_LOAD_BALANCE", 0)
	v.SetDefault("FITNESS_WEIGHT_CLASSROOM_EFFICIENCY", 0)
	v.SetDefault("FITNESS_WEIGHT_TIME_EFFICIENCY", 0)
	v.SetDefault("FITNESS_WEIGHT_CONFLICTS", 0)
	v.SetDefault("FITNESS_WEIGHT_GAPS", 0)
	v.SetDefault("FITNESS_WEIGHT_EARLY_SLOTS", 0)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
