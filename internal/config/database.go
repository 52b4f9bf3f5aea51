package config

import (
	"storyforge-backend/internal/infrastructure/database"
)

// DatabaseConfig chuyển MongoConfig thành DBConfig cho infrastructure layer
func (c *Config) DatabaseConfig() *database.DBConfig {
	return &database.DBConfig{
		URI:            c.Mongo.URI,
		Database:       c.Mongo.Database,
		MaxPoolSize:    c.Mongo.MaxPoolSize,
		MinPoolSize:    c.Mongo.MinPoolSize,
		MaxRetries:     c.Mongo.MaxRetries,
		RetryDelay:     c.Mongo.RetryDelay,
		MaxRetryDelay:  c.Mongo.MaxRetryDelay,
		ConnectTimeout: c.Mongo.ConnectTimeout,
	}
}
