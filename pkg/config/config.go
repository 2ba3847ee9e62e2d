package config

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// Config holds everything the services read from the environment.
// MONGO_URI, MONGO_DB and SECRET are mandatory; the process refuses to
// start without them.
type Config struct {
	MongoURI string
	MongoDB  string
	Secret   string

	AMQPURI   string
	MailQueue string

	BaseURL string

	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
}

func Load() *Config {
	cfg := &Config{
		MongoURI: os.Getenv("MONGO_URI"),
		MongoDB:  os.Getenv("MONGO_DB"),
		Secret:   strings.TrimSpace(os.Getenv("SECRET")),

		AMQPURI:   getEnv("RABBITMQ_URL", ""),
		MailQueue: getEnv("MAIL_QUEUE", "mail_queue"),

		BaseURL: getEnv("BASE_URL", "http://localhost:8081"),

		SMTPHost: getEnv("SMTP_HOST", "localhost"),
		SMTPPort: getEnv("SMTP_PORT", "1025"),
		SMTPUser: os.Getenv("SMTP_USER"),
		SMTPPass: os.Getenv("SMTP_PASS"),
		SMTPFrom: getEnv("SMTP_FROM", "noreply@blood-donation.local"),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", "minioadmin"),
		MinioBucket:    getEnv("MINIO_BUCKET", "uploads"),
		MinioUseSSL:    getEnv("MINIO_USE_SSL", "false") == "true",
	}

	if cfg.MongoURI == "" {
		log.Fatal("[ERROR] MONGO_URI is not set")
	}
	if cfg.MongoDB == "" {
		log.Fatal("[ERROR] MONGO_DB is not set")
	}
	if cfg.Secret == "" {
		log.Fatal("[ERROR] SECRET is not set")
	}

	if cfg.AMQPURI == "" {
		host := getEnv("RABBITMQ_HOST", "localhost")
		port := getEnv("RABBITMQ_PORT", "5672")
		user := getEnv("RABBITMQ_USER", "guest")
		pass := getEnv("RABBITMQ_PASS", "guest")
		cfg.AMQPURI = fmt.Sprintf("amqp://%s:%s@%s:%s/", user, pass, host, port)
	}

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
