package helper

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// DatabaseConfiguration holds the connection settings read from the environment
type DatabaseConfiguration struct {
	Host     string
	Port     string
	Database string
	Username string
	Password string
	Schema   string
	SSLMode  string
}

// NewDatabaseConfiguration reads the database settings from the environment.
// A .env file in the working directory is loaded first if present.
func NewDatabaseConfiguration() (*DatabaseConfiguration, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, NewError("load .env", err)
	}

	config := &DatabaseConfiguration{
		Host:     os.Getenv("DB_HOST"),
		Port:     os.Getenv("DB_PORT"),
		Database: os.Getenv("DB_DATABASE"),
		Username: os.Getenv("DB_USERNAME"),
		Password: os.Getenv("DB_PASSWORD"),
		Schema:   getEnvOrDefault("DB_SCHEMA", "public"),
		SSLMode:  getEnvOrDefault("DB_SSLMODE", "disable"),
	}

	if config.Host == "" || config.Port == "" || config.Database == "" || config.Username == "" {
		return nil, NewError("database configuration", fmt.Errorf("%w: DB_HOST, DB_PORT, DB_DATABASE and DB_USERNAME are required", ErrConfiguration))
	}

	return config, nil
}

// DSN returns the postgres connection string for lib/pq.
func (c *DatabaseConfiguration) DSN() string {
	query := url.Values{}
	query.Set("sslmode", c.SSLMode)
	if c.Schema != "" {
		query.Set("search_path", c.Schema)
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Username, c.Password),
		Host:     c.Host + ":" + c.Port,
		Path:     "/" + c.Database,
		RawQuery: query.Encode(),
	}
	return u.String()
}

// Database bundles the connection pool with the logger of its owner
type Database struct {
	Name     string
	Instance *sql.DB
	Logger   *slog.Logger
}

// ConnectDatabase opens the connection pool and waits until the database answers.
func ConnectDatabase(name string, config *DatabaseConfiguration, logger *slog.Logger) (*Database, error) {
	if config == nil {
		return nil, NewError("database configuration", fmt.Errorf("%w: configuration is nil", ErrConfiguration))
	}
	if logger == nil {
		logger = slog.Default()
	}

	instance, err := sql.Open("postgres", config.DSN())
	if err != nil {
		return nil, NewError("open database", err)
	}
	instance.SetMaxOpenConns(25)
	instance.SetMaxIdleConns(5)
	instance.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err = Retry(ctx, RetryConfig{MaxAttempts: 10, InitialInterval: 200 * time.Millisecond, MaxInterval: 3 * time.Second, Multiplier: 2}, func() (struct{}, error) {
		return struct{}{}, instance.PingContext(ctx)
	})
	if err != nil {
		_ = instance.Close()
		return nil, NewError("ping database", err)
	}

	logger.Info("Connected to database", slog.String("name", name), slog.String("host", config.Host), slog.String("database", config.Database))

	return &Database{
		Name:     name,
		Instance: instance,
		Logger:   logger,
	}, nil
}

// NewDatabase connects to the database and panics if it is unreachable.
func NewDatabase(name string, config *DatabaseConfiguration, logger *slog.Logger) *Database {
	db, err := ConnectDatabase(name, config, logger)
	if err != nil {
		log.Panicf("error connecting to database %s: %v", name, err)
	}
	return db
}

// NewTestDatabase connects with a debug level pretty logger.
func NewTestDatabase(config *DatabaseConfiguration) *Database {
	logger := slog.New(NewPrettyHandler(os.Stdout, PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}))
	return NewDatabase("test", config, logger)
}

// Close closes the connection pool
func (d *Database) Close() error {
	if d == nil || d.Instance == nil {
		return nil
	}
	return d.Instance.Close()
}

func getEnvOrDefault(key string, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
