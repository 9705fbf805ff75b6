package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/docufold/docufold/internal/config"
	"github.com/docufold/docufold/internal/database"
	"github.com/docufold/docufold/internal/docs"
	"github.com/docufold/docufold/internal/docs/handler"
	"github.com/docufold/docufold/internal/docs/repository"
	"github.com/docufold/docufold/internal/docs/service"
	"github.com/docufold/docufold/internal/storage"
)

// Standalone document service without auth or rate limiting. Intended for
// local editing workflows and integration tests; the full server lives at the
// repository root.
func main() {
	port := os.Getenv("DOC_SERVICE_PORT")
	if port == "" {
		port = "5010"
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}

	r := gin.New()
	r.Use(gin.Recovery())

	// Prefer Mongo-backed metadata when MONGODB_URI is provided.
	var repo repository.Repository
	if cfg.MongoDB.URI != "" {
		client, err := database.ConnectMongo(context.Background(), cfg.MongoDB.URI, 10*time.Second)
		if err != nil {
			log.Printf("warning: cannot connect to MongoDB (%v), using memory-backed repo", err)
			repo = repository.NewMemoryRepo()
		} else {
			repo = repository.NewMongoRepo(client.Database(cfg.MongoDB.Database).Collection("documents"))
		}
	} else {
		repo = repository.NewMemoryRepo()
	}

	var store service.ObjectStore
	if cfg.Storage.Endpoint != "" {
		ms, err := storage.NewMinIOStore(&cfg.Storage)
		if err != nil {
			log.Printf("warning: cannot initialize MinIO store (%v), using memory-backed store", err)
			store = storage.NewMemoryStore(cfg.Storage.Bucket, cfg.Storage.PublicBaseURL)
		} else {
			store = ms
		}
	} else {
		store = storage.NewMemoryStore(cfg.Storage.Bucket, cfg.Storage.PublicBaseURL)
	}

	rewriter := docs.PathRewriter{
		BaseURL:   cfg.Storage.PublicBaseURL,
		Bucket:    cfg.Storage.Bucket,
		Namespace: cfg.Storage.Namespace,
	}
	svc := service.New(repo, store, rewriter, cfg.Storage.Namespace, cfg.Storage.ContentExt)
	handler.New(svc).Register(r, nil)

	log.Printf("docs service listening on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
