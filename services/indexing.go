package services

import (
	"context"
	"fmt"
	"strings"

	"shreddit/config"
	"shreddit/models"
	"shreddit/search"

	"go.uber.org/zap"
)

// IndexingService ist die Indexing-Stufe: Dokumentfelder zu einem
// denormalisierten Datensatz zusammenführen und per Upsert in den
// Suchindex schreiben.
type IndexingService struct {
	Config *config.Config
	Store  DocumentStore
	Blobs  BlobStore
	Index  search.Gateway
	Logger *zap.Logger
}

// NewIndexingService erstellt die Indexing-Stufe.
func NewIndexingService(cfg *config.Config, store DocumentStore, blobs BlobStore, gw search.Gateway, logger *zap.Logger) *IndexingService {
	return &IndexingService{
		Config: cfg,
		Store:  store,
		Blobs:  blobs,
		Index:  gw,
		Logger: logger,
	}
}

// Process verarbeitet einen Indexing-Job. Ein fehlendes Dokument ist
// ein harter Fehler: die Queue verweist dann auf einen Datensatz, den
// der Primärspeicher nicht kennt. Kein Retry in dieser Stufe.
func (s *IndexingService) Process(ctx context.Context, job models.IndexingJob) error {
	bucket := job.Bucket
	if bucket == "" {
		bucket = s.Config.MinioBucket
	}
	log := s.Logger.With(
		zap.Int64("document_id", job.DocumentID),
		zap.String("bucket", bucket),
		zap.String("object", job.ObjectName),
	)

	data, err := s.Blobs.Download(ctx, bucket, job.ObjectName)
	if err != nil {
		return fmt.Errorf("read text object: %w", err)
	}

	doc, err := s.Store.FindByID(ctx, job.DocumentID)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}

	// Der Datensatz wird immer komplett neu aufgebaut; ist das frisch
	// gelesene Objekt leer, zählt der Stand aus dem Dokument.
	ocrText := string(data)
	if strings.TrimSpace(ocrText) == "" {
		ocrText = doc.OcrText
	}

	indexed := models.IndexedDocument{
		ID:        doc.ID,
		Title:     doc.Title,
		Content:   doc.Content,
		Summary:   doc.Summary,
		OcrText:   ocrText,
		Username:  doc.Username,
		CreatedAt: doc.CreatedAt,
	}
	if err := s.Index.Index(ctx, indexed); err != nil {
		return fmt.Errorf("upsert into search index: %w", err)
	}
	log.Info("Dokument indiziert")
	return nil
}
