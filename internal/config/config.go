package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port           string
	MongoURI       string
	MongoDatabase  string
	RabbitURI      string
	RabbitExchange string
	AllowOrigins   []string

	// Assessment policy knobs. Defaults match the reference policy:
	// 22 questions per level, two levels per step, one minute per question.
	QuestionsPerLevel  int
	SecondsPerQuestion int
}

func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		MongoURI:           os.Getenv("MONGO_URI"),
		MongoDatabase:      getEnv("MONGO_DB", "assessment_service"),
		RabbitURI:          os.Getenv("RABBITMQ_URI"),
		RabbitExchange:     os.Getenv("RABBITMQ_EXCHANGE"),
		AllowOrigins:       getEnvAsSlice("CORS_ORIGINS", []string{"http://localhost:3000"}),
		QuestionsPerLevel:  getEnvAsInt("QUESTIONS_PER_LEVEL", 22),
		SecondsPerQuestion: getEnvAsInt("SECONDS_PER_QUESTION", 60),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

func getEnvAsSlice(key string, fallback []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return fallback
}
