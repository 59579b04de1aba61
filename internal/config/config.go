package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	BotToken         string
	ApprovalBaseURL  string
	ApprovalToken    string
	RewardSheetURL   string
	ListenAddr       string
	DBHost           string
	DBPort           string
	DBUser           string
	DBPassword       string
	DBName           string
	PollInterval     time.Duration
	PollMaxAttempts  int
	SLADeadline      time.Duration
	SLASweepInterval time.Duration
}

func Load() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Printf("config.Load: no .env file found - using env variables")
	}

	cfg := &Config{
		BotToken:        os.Getenv("BOT_TOKEN"),
		ApprovalBaseURL: os.Getenv("APPROVAL_BASE_URL"),
		ApprovalToken:   os.Getenv("APPROVAL_TOKEN"),
		RewardSheetURL:  os.Getenv("REWARD_SHEET_URL"),
		ListenAddr:      os.Getenv("LISTEN_ADDR"),
		DBHost:          os.Getenv("DB_HOST"),
		DBPort:          os.Getenv("DB_PORT"),
		DBUser:          os.Getenv("DB_USER"),
		DBPassword:      os.Getenv("DB_PASSWORD"),
		DBName:          os.Getenv("DB_NAME"),
	}

	if cfg.BotToken == "" {
		return nil, fmt.Errorf("config.Load: BOT_TOKEN is required")
	}

	if cfg.ApprovalBaseURL == "" || cfg.ApprovalToken == "" {
		return nil, fmt.Errorf("config.Load: APPROVAL_BASE_URL, APPROVAL_TOKEN are required")
	}

	if cfg.DBUser == "" || cfg.DBPassword == "" || cfg.DBName == "" {
		return nil, fmt.Errorf("config.Load: DB_USER, DB_PASSWORD, DB_NAME are required")
	}

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}

	if cfg.DBHost == "" {
		cfg.DBHost = "localhost"
	}

	if cfg.DBPort == "" {
		cfg.DBPort = "5432"
	}

	cfg.PollInterval, err = durationEnv("POLL_INTERVAL", 30*time.Second)
	if err != nil {
		return nil, err
	}

	cfg.PollMaxAttempts, err = intEnv("POLL_MAX_ATTEMPTS", 2880)
	if err != nil {
		return nil, err
	}

	cfg.SLADeadline, err = durationEnv("SLA_DEADLINE", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	cfg.SLASweepInterval, err = durationEnv("SLA_SWEEP_INTERVAL", 10*time.Minute)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
}

func durationEnv(name string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config.Load: bad %s: %w", name, err)
	}

	return parsed, nil
}

func intEnv(name string, fallback int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}

	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("config.Load: bad %s: %w", name, err)
	}

	return parsed, nil
}
