package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/medremind/reminder-api/internal/models"
)

type Config struct {
	ServerPort string
	LogLevel   string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	JWTSecret      []byte
	JWTIssuer      string
	JWTAudience    string
	AccessTokenTTL time.Duration

	FrontendURL string

	SMTPHost     string
	SMTPPort     string
	SMTPEmail    string
	SMTPPassword string

	ESURL      string
	ESUser     string
	ESPassword string

	KafkaAddress string
}

func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	cfg := &Config{
		ServerPort: envDefault("SERVER_PORT", "8080"),
		LogLevel:   envDefault("LOG_LEVEL", "info"),

		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),

		JWTSecret:      []byte(os.Getenv("JWT_SECRET")),
		JWTIssuer:      envDefault("JWT_ISSUER", "reminder-api"),
		JWTAudience:    envDefault("JWT_AUDIENCE", "reminder-clients"),
		AccessTokenTTL: time.Duration(envIntDefault("ACCESS_TOKEN_TTL_MINUTES", 60)) * time.Minute,

		FrontendURL: os.Getenv("FRONTEND_URL"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     envDefault("SMTP_PORT", "587"),
		SMTPEmail:    os.Getenv("SMTP_EMAIL"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),

		KafkaAddress: os.Getenv("KAFKA_ADDRESS"),
	}

	if len(cfg.JWTSecret) == 0 {
		return nil, fmt.Errorf("missing required env JWT_SECRET")
	}
	if cfg.FrontendURL == "" {
		return nil, fmt.Errorf("missing required env FRONTEND_URL")
	}

	return cfg, nil
}

func (c *Config) InitDB() (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("db migrate: %w", err)
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.UserRole{},
		&models.Patient{},
		&models.Caregiver{},
		&models.PatientCaregiver{},
		&models.Medication{},
		&models.DoseLog{},
	)
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
