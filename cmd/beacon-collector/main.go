// Command beacon-collector runs the local development collector: it accepts
// events over the wire contract, logs them, tails them over websocket, and
// optionally relays them to Kafka.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AtRiskMedia/beacon-go/internal/collector"
	"github.com/AtRiskMedia/beacon-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/beacon-go/internal/infrastructure/relay"
	"github.com/AtRiskMedia/beacon-go/internal/presentation/http/routes"
	"github.com/AtRiskMedia/beacon-go/internal/presentation/http/server"
	"github.com/AtRiskMedia/beacon-go/pkg/config"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("collector failed: %v", err)
	}
}

func run() error {
	setupLogging()
	start := time.Now().UTC()

	ctx, cancelBackgroundTasks := context.WithCancel(context.Background())
	defer cancelBackgroundTasks()

	log.Println("\033[32mbeacon collector\033[0m — made by At Risk Media")

	logger, err := logging.NewChanneledLogger(logging.ServiceLoggerConfig(config.LogDirectory))
	if err != nil {
		return err
	}
	defer logger.Close()

	logger.Startup().Info("Collector starting",
		"projectId", config.CollectorProjectID,
		"token", logging.MaskToken(config.CollectorProjectToken))

	hub := collector.NewHub(logger)
	go hub.Run(ctx)

	var kafkaRelay *relay.KafkaRelay
	if len(config.CollectorKafkaBrokers) > 0 {
		kafkaRelay, err = relay.NewKafkaRelay(config.CollectorKafkaBrokers, config.CollectorKafkaTopic)
		if err != nil {
			return err
		}
		defer kafkaRelay.Close()
		logger.Startup().Info("Kafka relay enabled",
			"brokers", config.CollectorKafkaBrokers,
			"topic", config.CollectorKafkaTopic)
	}

	router := routes.SetupRoutes(routes.Deps{
		ProjectID:    config.CollectorProjectID,
		ProjectToken: config.CollectorProjectToken,
		Hub:          hub,
		Relay:        kafkaRelay,
		Logger:       logger,
	})
	httpServer := server.New(config.Port, router)

	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.System().Info("Starting HTTP server", "address", ":"+config.Port)
		if err := httpServer.Start(); err != nil {
			logger.System().Error("HTTP server failed", "error", err.Error())
		}
	}()

	logger.Startup().Info("Collector startup complete",
		"port", config.Port,
		"duration", time.Since(start))

	<-gracefulShutdown
	logger.Shutdown().Info("Shutdown signal received, starting graceful shutdown...")

	cancelBackgroundTasks()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error during server shutdown", "error", err.Error())
	} else {
		logger.Shutdown().Info("HTTP server stopped successfully")
	}

	logger.Shutdown().Info("Collector shutdown complete",
		"totalUptime", time.Since(start),
		"eventsAccepted", hub.Accepted())
	return nil
}

func setupLogging() {
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
