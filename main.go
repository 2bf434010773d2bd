package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"shreddit/config"
	"shreddit/models"
	"shreddit/ocr"
	"shreddit/providers/gemini"
	"shreddit/queue"
	"shreddit/search"
	"shreddit/services"
	"shreddit/storage"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	// Setup Database Connection
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		logging.Fatal("Failed to connect to database", zap.Error(err))
	}
	logging.Info("Successfully connected to document database.")

	logging.Info("Running database auto-migration...")
	if err := db.AutoMigrate(&models.Document{}); err != nil {
		logging.Fatal("Auto-migration failed", zap.Error(err))
	}
	store := services.NewGormDocumentStore(db)

	// Setup Object-Storage
	s3Client, err := storage.NewS3Client(cfg)
	if err != nil {
		logging.Fatal("S3 client creation failed", zap.Error(err))
	}
	blobs := storage.NewS3Store(s3Client)

	// Setup Queue
	rabbit, err := queue.NewRabbit(cfg.RabbitURL, logging)
	if err != nil {
		logging.Fatal("RabbitMQ connection failed", zap.Error(err))
	}
	defer rabbit.Close()

	// Setup Suchindex
	elastic, err := search.NewElastic(cfg, logging)
	if err != nil {
		logging.Fatal("Elasticsearch client creation failed", zap.Error(err))
	}

	// Setup Services
	converter := ocr.NewGhostscript(cfg.GhostscriptBin, logging)
	recognizer := ocr.NewTesseract(cfg.TesseractBin, logging)
	extraction := services.NewExtractionService(cfg, blobs, rabbit, converter, recognizer, logging)
	summarization := services.NewSummarizationService(cfg, store, blobs, rabbit, gemini.NewFetcher(cfg, logging), logging)
	indexing := services.NewIndexingService(cfg, store, blobs, elastic, logging)
	searchService := services.NewSearchService(store, elastic, logging)
	content := services.NewContentService(cfg, blobs, logging)

	// Consumer der drei Pipeline-Stufen starten
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	startConsumer(ctx, rabbit, cfg.OcrQueue, "ocr", logging, func(ctx context.Context, body []byte) error {
		var job models.OcrJob
		if err := json.Unmarshal(body, &job); err != nil {
			return err
		}
		return extraction.Process(ctx, job)
	})
	startConsumer(ctx, rabbit, cfg.GenAiQueue, "genai", logging, func(ctx context.Context, body []byte) error {
		var job models.GenAiJob
		if err := json.Unmarshal(body, &job); err != nil {
			return err
		}
		return summarization.Process(ctx, job)
	})
	startConsumer(ctx, rabbit, cfg.IndexingQueue, "indexing", logging, func(ctx context.Context, body []byte) error {
		var job models.IndexingJob
		if err := json.Unmarshal(body, &job); err != nil {
			return err
		}
		return indexing.Process(ctx, job)
	})

	// Setup Router
	router := gin.Default()
	router.Use(gin.Recovery())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	setupSearchRoutes(router, searchService)
	setupDocumentRoutes(router, store, content, logging)

	// Setup Cron: hängende PENDING-Dokumente sichtbar machen
	sweep := services.NewPendingSweep(store, time.Duration(cfg.PendingMaxAgeMin)*time.Minute, logging)
	cronScheduler := cron.New()
	cronScheduler.AddFunc(cfg.CronSchedule, func() {
		count, err := sweep.Run(context.Background())
		if err != nil {
			logging.Error("Pending-Sweep fehlgeschlagen", zap.Error(err))
		} else if count > 0 {
			logging.Warn("Pending-Sweep abgeschlossen", zap.Int("stuck_documents", count))
		}
	})
	cronScheduler.Start()

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
}

// startConsumer startet einen Queue-Consumer als Goroutine.
func startConsumer(ctx context.Context, q queue.Queue, queueName, stage string, logging *zap.Logger, handler services.Handler) {
	go func() {
		if err := services.RunConsumer(ctx, q, queueName, stage, logging, handler); err != nil {
			logging.Error("Consumer konnte nicht starten",
				zap.String("queue", queueName), zap.Error(err))
		}
	}()
}

func setupSearchRoutes(router *gin.Engine, searchService *services.SearchService) {
	// Die Identität kommt vom vorgelagerten Auth-Layer als Header;
	// ohne Header gilt die Anfrage als anonym und sieht nur
	// Legacy-Dokumente ohne Besitzer.
	router.GET("/search", func(c *gin.Context) {
		query := c.Query("q")
		username := c.GetHeader("X-Username")

		docs, err := searchService.Search(c.Request.Context(), query, username)
		if err != nil {
			searchService.Logger.Error("Suche fehlgeschlagen", zap.String("query", query), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
			return
		}
		if docs == nil {
			docs = []models.Document{}
		}
		c.JSON(http.StatusOK, docs)
	})
}

func setupDocumentRoutes(router *gin.Engine, store services.DocumentStore, content *services.ContentService, log *zap.Logger) {
	// Verarbeitungszustand für die UI: PENDING heißt "läuft noch",
	// FAILED_QUOTA lässt sich als "später nochmal versuchen" erklären.
	router.GET("/documents/:id/status", func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
			return
		}

		doc, err := store.FindByID(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, services.ErrDocumentNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
				return
			}
			log.Error("DB error loading document status", zap.Int64("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		username := c.GetHeader("X-Username")
		if !doc.VisibleTo(username) {
			c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"id":             doc.ID,
			"summary_status": doc.SummaryStatus,
			"summary":        doc.Summary,
		})
	})

	// Der erkannte Text wird direkt aus dem Object-Storage bedient; die
	// Autorisierung läuft über das uploaded-by-Tag des Objekts.
	router.GET("/documents/:id/ocr", func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
			return
		}

		text, err := content.FetchOcrText(c.Request.Context(), id, c.GetHeader("X-Username"))
		if err != nil {
			if errors.Is(err, services.ErrForbidden) {
				c.JSON(http.StatusForbidden, gin.H{"error": "not authorized"})
				return
			}
			log.Warn("OCR-Text nicht lieferbar", zap.Int64("id", id), zap.Error(err))
			c.JSON(http.StatusNotFound, gin.H{"error": "ocr text not found"})
			return
		}
		c.String(http.StatusOK, text)
	})
}
