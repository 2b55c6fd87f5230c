package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port               string
	DBConnectionString string
	GitHubToken        string
	OpenAIKey          string
	OpenAIModel        string
	WebhookSecret      string
	AnalyzerTimeout    time.Duration
	GitHubTimeout      time.Duration
}

func Load() (*Config, error) {
	port := getEnv("PORT", "8080")
	dbConnStr := getEnv("DB_CONNECTION_STRING", "")
	githubToken := getEnv("GITHUB_TOKEN", "")
	openaiKey := getEnv("OPENAI_API_KEY", "")
	openaiModel := getEnv("OPENAI_MODEL", "gpt-4o")
	webhookSecret := getEnv("GITHUB_WEBHOOK_SECRET", "")

	analyzerTimeout, err := strconv.Atoi(getEnv("ANALYZER_TIMEOUT_SECONDS", "60"))
	if err != nil {
		return nil, err
	}

	githubTimeout, err := strconv.Atoi(getEnv("GITHUB_TIMEOUT_SECONDS", "30"))
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:               port,
		DBConnectionString: dbConnStr,
		GitHubToken:        githubToken,
		OpenAIKey:          openaiKey,
		OpenAIModel:        openaiModel,
		WebhookSecret:      webhookSecret,
		AnalyzerTimeout:    time.Duration(analyzerTimeout) * time.Second,
		GitHubTimeout:      time.Duration(githubTimeout) * time.Second,
	}, nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
