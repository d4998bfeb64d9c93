package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"csvrelay/internal/config"
	"csvrelay/internal/database"
	"csvrelay/internal/domain/csvdata"
	"csvrelay/internal/domain/realtime"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file loaded, using process environment")
	}

	cfg, err := config.LoadRuntimeConfig()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, closeStore, err := openRecordStore(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer closeStore()

	hub := realtime.NewHub(realtime.Options{
		PongWait:  cfg.WSPongWait,
		QueueSize: cfg.WSSendQueue,
	})
	defer hub.Close()

	a := newApp(repo, hub, cfg.BatchSize, cfg.MaxUploadMemory)
	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: a.router(),
	}

	go func() {
		log.Printf("Server running at http://localhost%s/", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
}

func openRecordStore(ctx context.Context, cfg *config.RuntimeConfig) (csvdata.Repository, func(), error) {
	if cfg.UsesMongo() {
		db, err := database.ConnectMongo(ctx, cfg.DatabaseURL, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		if err := csvdata.EnsureMongoIndexes(ctx, db); err != nil {
			log.Printf("mongo index creation failed: %v", err)
		}
		log.Println("Connected to MongoDB")
		return csvdata.NewMongoRepository(db), func() {
			if err := database.CloseMongo(db); err != nil {
				log.Printf("mongo disconnect: %v", err)
			}
		}, nil
	}

	db, err := database.Open(cfg.DatabaseURL, &csvdata.UploadRecord{})
	if err != nil {
		return nil, nil, err
	}
	return csvdata.NewRepository(db), func() {
		if err := database.Close(db); err != nil {
			log.Printf("database close: %v", err)
		}
	}, nil
}
