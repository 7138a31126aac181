package config

import (
	"os"
	"strconv"
	"time"
)

const (
	DeliveryModeSimulation = "simulation"
	DeliveryModeLive       = "live"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

type X struct {
	AccessToken string
	BaseURL     string
}

type Instagram struct {
	AccountID    string
	AccessToken  string
	BaseURL      string
	PollAttempts int
	PollDelay    time.Duration
}

type Facebook struct {
	PageID    string
	PageToken string
	BaseURL   string
}

type OnlyFans struct {
	AccountID string
	APIKey    string
	BaseURL   string
}

type Config struct {
	PostgresURI        string
	RedisURI           string
	HTTPAddr           string
	FrontendURL        string
	SecretKey          string
	CookieName         string
	CronSecret         string
	DeliveryMode       string
	SweepInterval      string
	SweepConcurrency   int
	RecurrenceInterval string
	PlatformRatePerMin int
	X                  X
	Instagram          Instagram
	Facebook           Facebook
	OnlyFans           OnlyFans
	R2                 R2
}

func LoadConfig() *Config {
	return &Config{
		PostgresURI:        getEnv("POSTGRES_URI", ""),
		RedisURI:           getEnv("REDIS_URI", ""),
		HTTPAddr:           getEnv("HTTP_ADDR", ":3000"),
		FrontendURL:        getEnv("FRONTEND_URL", "http://localhost:5173"),
		SecretKey:          getEnv("SECRET_KEY", ""),
		CookieName:         getEnv("COOKIE_NAME", ""),
		CronSecret:         getEnv("CRON_SECRET", ""),
		DeliveryMode:       deliveryMode(getEnv("FINITYO_DELIVERY_MODE", DeliveryModeSimulation)),
		SweepInterval:      getEnv("SWEEP_INTERVAL", "@every 1m"),
		SweepConcurrency:   getEnvInt("SWEEP_CONCURRENCY", 10),
		RecurrenceInterval: getEnv("RECURRENCE_INTERVAL", "@every 5m"),
		PlatformRatePerMin: getEnvInt("PLATFORM_RATE_PER_MINUTE", 30),
		X: X{
			AccessToken: getEnv("X_ACCESS_TOKEN", ""),
			BaseURL:     getEnv("X_API_BASE_URL", "https://api.twitter.com"),
		},
		Instagram: Instagram{
			AccountID:    getEnv("INSTAGRAM_ACCOUNT_ID", ""),
			AccessToken:  getEnv("INSTAGRAM_ACCESS_TOKEN", ""),
			BaseURL:      getEnv("INSTAGRAM_API_BASE_URL", "https://graph.instagram.com/v21.0"),
			PollAttempts: getEnvInt("INSTAGRAM_POLL_ATTEMPTS", 10),
			PollDelay:    getEnvDuration("INSTAGRAM_POLL_DELAY", 3*time.Second),
		},
		Facebook: Facebook{
			PageID:    getEnv("FACEBOOK_PAGE_ID", ""),
			PageToken: getEnv("FACEBOOK_PAGE_TOKEN", ""),
			BaseURL:   getEnv("FACEBOOK_API_BASE_URL", "https://graph.facebook.com/v21.0"),
		},
		OnlyFans: OnlyFans{
			AccountID: getEnv("ONLYFANS_ACCOUNT_ID", ""),
			APIKey:    getEnv("ONLYFANS_API_KEY", ""),
			BaseURL:   getEnv("ONLYFANS_API_BASE_URL", "https://app.onlyfansapi.com/api"),
		},
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  getEnv("R2_PUBLIC_URL", ""),
		},
	}
}

// Live delivery is opt-in: anything but an exact "live" stays in simulation.
func deliveryMode(value string) string {
	if value == DeliveryModeLive {
		return DeliveryModeLive
	}
	return DeliveryModeSimulation
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}
