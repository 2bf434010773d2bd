package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"shreddit/config"
	"shreddit/models"
	"shreddit/providers"
	"shreddit/queue"

	"go.uber.org/zap"
)

// SummarizationService ist die GenAI-Stufe: OCR-Text laden, Gemini mit
// einem einzigen Retry aufrufen, Ergebnis persistieren und den Status
// des Dokuments setzen.
type SummarizationService struct {
	Config     *config.Config
	Store      DocumentStore
	Blobs      BlobStore
	Queue      queue.Queue
	Summarizer providers.Summarizer
	Logger     *zap.Logger
}

// NewSummarizationService erstellt die GenAI-Stufe.
func NewSummarizationService(cfg *config.Config, store DocumentStore, blobs BlobStore, q queue.Queue, sum providers.Summarizer, logger *zap.Logger) *SummarizationService {
	return &SummarizationService{
		Config:     cfg,
		Store:      store,
		Blobs:      blobs,
		Queue:      q,
		Summarizer: sum,
		Logger:     logger,
	}
}

// Process verarbeitet einen GenAI-Job. Diese Stufe ist die einzige, die
// den SummaryStatus mutiert: jeder Fehler endet terminal in FAILED bzw.
// FAILED_QUOTA, Erfolg in OK.
func (s *SummarizationService) Process(ctx context.Context, job models.GenAiJob) error {
	log := s.Logger.With(zap.Int64("document_id", job.DocumentID), zap.String("ocr_object", job.OcrPath))

	err := s.process(ctx, job, log)
	if err == nil {
		return nil
	}
	if errors.Is(err, providers.ErrQuotaExceeded) {
		log.Error("Gemini-Kontingent überschritten", zap.Error(err))
		s.markTerminal(ctx, job.DocumentID, (*models.Document).MarkQuotaExceeded, log)
	} else {
		log.Error("Zusammenfassung fehlgeschlagen", zap.Error(err))
		s.markTerminal(ctx, job.DocumentID, (*models.Document).MarkFailed, log)
	}
	return err
}

func (s *SummarizationService) process(ctx context.Context, job models.GenAiJob, log *zap.Logger) error {
	data, err := s.Blobs.Download(ctx, s.Config.MinioBucket, job.OcrPath)
	if err != nil {
		return fmt.Errorf("load ocr text: %w", err)
	}
	ocrText := string(data)
	if strings.TrimSpace(ocrText) == "" {
		return fmt.Errorf("ocr text is empty for document %d", job.DocumentID)
	}
	log.Info("OCR-Text geladen", zap.Int("chars", len(ocrText)))

	// Genau ein synchroner Retry, ohne Backoff: das begrenzt die Latenz
	// und übersteht einen einzelnen transienten Aussetzer.
	summary, err := s.Summarizer.Summarize(ctx, ocrText)
	if err != nil {
		log.Warn("Gemini-Aufruf fehlgeschlagen, einmaliger Retry", zap.Error(err))
		summary, err = s.Summarizer.Summarize(ctx, ocrText)
		if err != nil {
			return fmt.Errorf("summarize: %w", err)
		}
	}
	if strings.TrimSpace(summary) == "" {
		return fmt.Errorf("summarizer returned an empty summary for document %d", job.DocumentID)
	}
	log.Info("Zusammenfassung erzeugt", zap.Int("chars", len(summary)))

	summaryKey := SummaryObjectKey(job.DocumentID)
	if err := s.Blobs.Upload(ctx, s.Config.MinioBucket, summaryKey, []byte(summary), "text/plain; charset=utf-8", ""); err != nil {
		return fmt.Errorf("store summary: %w", err)
	}

	doc, err := s.Store.FindByID(ctx, job.DocumentID)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}
	doc.MarkOk(ocrText, summary)
	if err := s.Store.Save(ctx, doc); err != nil {
		return fmt.Errorf("save document: %w", err)
	}

	// Re-Indexing ist Best-Effort: der Suchindex soll die Zusammenfassung
	// bekommen, aber ein Publish-Fehler macht das Ergebnis nicht kaputt.
	indexJob := models.IndexingJob{DocumentID: job.DocumentID, Bucket: s.Config.MinioBucket, ObjectName: job.OcrPath}
	if err := s.Queue.Publish(ctx, s.Config.IndexingQueue, indexJob); err != nil {
		log.Warn("Re-Indexing-Job konnte nicht publiziert werden, fahre fort", zap.Error(err))
	}

	log.Info("Zusammenfassung in DB und Object-Storage gespeichert")
	return nil
}

// markTerminal schreibt den terminalen Fehlerzustand. Ist das Dokument
// nicht (mehr) vorhanden oder die DB nicht erreichbar, bleibt nur Logging.
func (s *SummarizationService) markTerminal(ctx context.Context, documentID int64, mark func(*models.Document), log *zap.Logger) {
	doc, err := s.Store.FindByID(ctx, documentID)
	if err != nil {
		log.Error("Fehlerzustand konnte nicht gespeichert werden", zap.Error(err))
		return
	}
	mark(doc)
	if err := s.Store.Save(ctx, doc); err != nil {
		log.Error("Fehlerzustand konnte nicht gespeichert werden", zap.Error(err))
	}
}
