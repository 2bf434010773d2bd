package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"shreddit/config"
	"shreddit/models"
	"shreddit/ocr"
	"shreddit/queue"

	"go.uber.org/zap"
)

// OcrObjectKey ist der deterministische Blob-Key für den erkannten Text.
func OcrObjectKey(documentID int64) string {
	return fmt.Sprintf("documents/%d/ocr.txt", documentID)
}

// SummaryObjectKey ist der deterministische Blob-Key für die Zusammenfassung.
func SummaryObjectKey(documentID int64) string {
	return fmt.Sprintf("documents/%d/summary.txt", documentID)
}

// ExtractionService ist die OCR-Stufe: Quelldokument laden, rastern,
// Text erkennen, persistieren und die Folge-Jobs emittieren.
type ExtractionService struct {
	Config     *config.Config
	Blobs      BlobStore
	Queue      queue.Queue
	Converter  ocr.PageConverter
	Recognizer ocr.Recognizer
	Logger     *zap.Logger
}

// NewExtractionService erstellt die OCR-Stufe.
func NewExtractionService(cfg *config.Config, blobs BlobStore, q queue.Queue, conv ocr.PageConverter, rec ocr.Recognizer, logger *zap.Logger) *ExtractionService {
	return &ExtractionService{
		Config:     cfg,
		Blobs:      blobs,
		Queue:      q,
		Converter:  conv,
		Recognizer: rec,
		Logger:     logger,
	}
}

// Process verarbeitet einen OCR-Job. Jeder Fehler bricht die Verarbeitung
// dieser Message ab; ein Requeue findet nicht statt, das Dokument bleibt
// in PENDING. Einzige Ausnahme: ein fehlgeschlagenes Publish des
// Indexing-Jobs wird geloggt und verschluckt, damit die Zusammenfassung
// trotzdem angestoßen wird.
func (s *ExtractionService) Process(ctx context.Context, job models.OcrJob) error {
	log := s.Logger.With(
		zap.Int64("document_id", job.DocumentID),
		zap.String("bucket", job.Bucket),
		zap.String("object", job.ObjectName),
	)
	log.Info("OCR-Job empfangen")

	// Fehlendes oder leeres Quellobjekt ist ein Defekt im Upload-Pfad,
	// kein transienter Fehler.
	data, err := s.Blobs.Download(ctx, job.Bucket, job.ObjectName)
	if err != nil {
		return fmt.Errorf("download source object: %w", err)
	}
	if len(data) == 0 {
		return fmt.Errorf("source object %s/%s is empty", job.Bucket, job.ObjectName)
	}

	workDir, err := os.MkdirTemp("", "ocr-work-")
	if err != nil {
		return fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	pdfPath := filepath.Join(workDir, "input.pdf")
	if err := os.WriteFile(pdfPath, data, 0o600); err != nil {
		return fmt.Errorf("write work file: %w", err)
	}

	pages, err := s.Converter.Convert(ctx, pdfPath, workDir)
	if err != nil {
		return fmt.Errorf("convert pdf: %w", err)
	}
	if len(pages) == 0 {
		return fmt.Errorf("no images were produced from the pdf conversion")
	}

	// Seiten in Reihenfolge erkennen und mit Trenner zusammenfügen
	var combined strings.Builder
	for _, page := range pages {
		text, err := s.Recognizer.Recognize(ctx, page)
		if err != nil {
			return fmt.Errorf("recognize page: %w", err)
		}
		combined.WriteString(text)
		combined.WriteString("\n")
	}

	ocrKey := OcrObjectKey(job.DocumentID)
	if err := s.Blobs.Upload(ctx, job.Bucket, ocrKey, []byte(combined.String()), "text/plain; charset=utf-8", job.Username); err != nil {
		return fmt.Errorf("store ocr text: %w", err)
	}
	log.Info("OCR-Text gespeichert", zap.String("ocr_object", ocrKey), zap.Int("pages", len(pages)))

	// Indexing ist Best-Effort: ein Publish-Fehler darf die Pipeline
	// nicht abbrechen.
	indexJob := models.IndexingJob{DocumentID: job.DocumentID, Bucket: job.Bucket, ObjectName: ocrKey}
	if err := s.Queue.Publish(ctx, s.Config.IndexingQueue, indexJob); err != nil {
		log.Warn("Indexing-Job konnte nicht publiziert werden, fahre fort", zap.Error(err))
	} else {
		log.Info("Indexing-Job publiziert")
	}

	// Der GenAI-Job ist der einzige Weg zur Zusammenfassung; scheitert
	// das Publish, scheitert der ganze Versuch.
	genJob := models.GenAiJob{DocumentID: job.DocumentID, OcrPath: ocrKey}
	if err := s.Queue.Publish(ctx, s.Config.GenAiQueue, genJob); err != nil {
		return fmt.Errorf("publish genai job: %w", err)
	}
	log.Info("GenAI-Job publiziert")
	return nil
}
