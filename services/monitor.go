package services

import (
	"context"
	"time"

	"shreddit/models"

	"go.uber.org/zap"
)

// PendingSweep zählt Dokumente, die länger als MaxAge in PENDING hängen.
// Das deutet auf eine verlorene oder noch laufende Message hin; die
// Pipeline queued bewusst nicht automatisch nach, der Sweep macht den
// Stillstand nur sichtbar.
type PendingSweep struct {
	Store  DocumentStore
	MaxAge time.Duration
	Logger *zap.Logger
}

// NewPendingSweep erstellt den Sweep.
func NewPendingSweep(store DocumentStore, maxAge time.Duration, logger *zap.Logger) *PendingSweep {
	return &PendingSweep{Store: store, MaxAge: maxAge, Logger: logger}
}

// Run loggt alle hängenden Dokumente und aktualisiert die Metrik.
func (s *PendingSweep) Run(ctx context.Context) (int, error) {
	docs, err := s.Store.FindAll(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-s.MaxAge)
	count := 0
	for _, doc := range docs {
		if doc.SummaryStatus != models.StatusPending || doc.CreatedAt.After(cutoff) {
			continue
		}
		count++
		s.Logger.Warn("Dokument hängt in PENDING",
			zap.Int64("document_id", doc.ID),
			zap.Time("created_at", doc.CreatedAt))
	}
	stuckPending.Set(float64(count))
	return count, nil
}
