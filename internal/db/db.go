package db

import (
	"context"

	"github.com/go-redis/redis/v8"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/coindeck/coindeck/internal/config"
	"github.com/coindeck/coindeck/internal/models"
)

// Connect establishes a connection to the database and migrates the schema
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormDB, err := gorm.Open(postgres.Open(cfg.URL), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := Migrate(gormDB); err != nil {
		return nil, err
	}

	return gormDB, nil
}

// Migrate creates or updates the tables for all persisted entities
func Migrate(gormDB *gorm.DB) error {
	return gormDB.AutoMigrate(
		&models.User{},
		&models.Favorite{},
		&models.Scenario{},
		&models.Conversation{},
		&models.ChatMessage{},
	)
}

// ConnectRedis establishes a connection to Redis
func ConnectRedis(cfg config.RedisConfig) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)
	ctx := context.Background()

	// Test the connection
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, err
	}

	return client, nil
}
