package main

import (
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/Luiscraft7/sistema-dn/internal/workorder/db"
	"github.com/Luiscraft7/sistema-dn/internal/workorder/engine"
	"github.com/Luiscraft7/sistema-dn/internal/workorder/events"
	"github.com/Luiscraft7/sistema-dn/internal/workorder/handlers"
	"github.com/Luiscraft7/sistema-dn/internal/workorder/hub"
	"github.com/Luiscraft7/sistema-dn/internal/workorder/scope"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Config struct for YAML configuration
type Config struct {
	HTTPPort     int      `yaml:"HTTP_PORT"`
	DBHost       string   `yaml:"DB_HOST"`
	DBPort       int      `yaml:"DB_PORT"`
	DBUser       string   `yaml:"DB_USER"`
	DBPassword   string   `yaml:"DB_PASSWORD"`
	DBName       string   `yaml:"DB_NAME"`
	DBSSLMode    string   `yaml:"DB_SSLMODE"`
	JWTSecret    string   `yaml:"JWT_SECRET"`
	KafkaBrokers []string `yaml:"KAFKA_BROKERS"`
	KafkaTopic   string   `yaml:"KAFKA_TOPIC"`
}

func main() {
	logger := initLogger()
	defer func(logger *zap.Logger) {
		err := logger.Sync()
		if err != nil {
			logger.Error("failed to sync logger", zap.Error(err))
		}
	}(logger)

	cfg, err := loadConfig()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	repo, err := db.NewRepository(initDatabase(cfg))
	if err != nil {
		log.Fatal("failed to initialize database", err)
	}
	defer repo.Close()

	// The Kafka relay is optional: without brokers the hub still serves
	// connected dashboards and polling covers the rest.
	var hubOpts []hub.Option
	if len(cfg.KafkaBrokers) > 0 {
		relay, err := events.NewRelay(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		if err != nil {
			logger.Warn("kafka relay disabled", zap.Error(err))
		} else {
			defer relay.Close()
			hubOpts = append(hubOpts, hub.WithRelay(relay))
		}
	}
	notificationHub := hub.NewHub(logger, hubOpts...)

	resolver := scope.NewResolver()
	jobSvc := engine.NewJobService(repo, notificationHub, resolver, logger)
	directorySvc := engine.NewDirectoryService(repo, logger)

	router := handlers.NewRouter(handlers.Handlers{
		Jobs:    handlers.NewJobHandler(jobSvc, logger),
		Clients: handlers.NewClientHandler(directorySvc, logger),
		Admin:   handlers.NewAdminHandler(directorySvc, logger),
		WS:      handlers.NewWSHandler(notificationHub, logger),
	}, repo, cfg.JWTSecret)

	server := handlers.NewServer(cfg.HTTPPort, router, logger)
	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	waitForShutdown(server, logger)
}

// initLogger initializes a Zap production logger.
func initLogger() *zap.Logger {
	logger, _ := zap.NewProduction()
	return logger
}

func loadConfig() (*Config, error) {
	configPath := filepath.Join("internal", "workorder", "config", "config.yaml")
	file, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	var cfg Config
	err = yaml.Unmarshal(file, &cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// initDatabase initializes the database connection.
func initDatabase(cfg *Config) *db.Config {
	return &db.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	}
}

// waitForShutdown blocks until an interrupt or SIGTERM is received, then shuts down the server.
func waitForShutdown(server *handlers.Server, logger *zap.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	server.Stop()
	logger.Info("Server stopped properly")
}
