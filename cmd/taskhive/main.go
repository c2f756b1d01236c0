package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/taskhive-dev/taskhive/db"
	"github.com/taskhive-dev/taskhive/internal/auth"
	"github.com/taskhive-dev/taskhive/internal/events"
	"github.com/taskhive-dev/taskhive/internal/handlers"
	"github.com/taskhive-dev/taskhive/internal/notify"
	"github.com/taskhive-dev/taskhive/internal/router"
	"github.com/taskhive-dev/taskhive/internal/storage"
	"github.com/taskhive-dev/taskhive/internal/tasks"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	if err := auth.InitJWTSecret(); err != nil {
		log.Fatalf("Failed to initialize JWT secret: %v", err)
	}

	if err := db.ConnectDatabase(os.Getenv("DATABASE_URL")); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.MigrateDatabase(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	var producer *events.Producer

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		producer = events.NewProducer(strings.Split(brokers, ","))
		log.Printf("Kafka producer connected to %s", brokers)
	} else {
		log.Println("KAFKA_BROKERS not set, events will be logged only")
	}

	var consumer *events.Consumer

	if os.Getenv("KAFKA_CONSUMER_ENABLED") == "true" && os.Getenv("KAFKA_BROKERS") != "" {
		consumer = events.NewConsumer(strings.Split(os.Getenv("KAFKA_BROKERS"), ","), db.DB)
		consumer.Start()
	}

	uploadsDir := os.Getenv("UPLOADS_DIR")
	if uploadsDir == "" {
		uploadsDir = "./uploads"
	}

	uploader, err := storage.NewLocalUploader(uploadsDir, "/uploads")
	if err != nil {
		log.Fatalf("Failed to initialize upload storage: %v", err)
	}

	dispatcher := notify.NewDispatcher(db.DB)
	dispatcher.OnCreate = handlers.BroadcastNotification

	handlers.TaskManager = tasks.NewManager(db.DB, dispatcher, producer)
	handlers.Notifier = dispatcher
	handlers.EventBus = producer
	handlers.AvatarUploader = uploader

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router.NewRouter(uploadsDir),
	}

	go func() {
		log.Printf("Server starting on port %s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown failed: %v", err)
	}

	if consumer != nil {
		consumer.Stop()
	}

	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Printf("Failed to close Kafka producer: %v", err)
		}
	}

	log.Println("Server stopped")
}
