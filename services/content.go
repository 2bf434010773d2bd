package services

import (
	"context"
	"errors"
	"fmt"

	"shreddit/config"

	"go.uber.org/zap"
)

// ErrForbidden signalisiert, dass der Anfragende das Objekt nicht sehen
// darf, weil es einem anderen Besitzer gehört.
var ErrForbidden = errors.New("not authorized for this object")

// ContentService liefert gespeicherte Pipeline-Artefakte aus. Die
// Autorisierung läuft über das uploaded-by-Tag des Objekts selbst:
// ein fehlendes Tag bedeutet Legacy/öffentlich, sonst muss der
// Anfragende der Besitzer sein.
type ContentService struct {
	Config *config.Config
	Blobs  BlobStore
	Logger *zap.Logger
}

// NewContentService erstellt die Artefakt-Auslieferung.
func NewContentService(cfg *config.Config, blobs BlobStore, logger *zap.Logger) *ContentService {
	return &ContentService{Config: cfg, Blobs: blobs, Logger: logger}
}

// FetchOcrText liest den erkannten Text eines Dokuments, sofern der
// Anfragende ihn sehen darf.
func (s *ContentService) FetchOcrText(ctx context.Context, documentID int64, username string) (string, error) {
	key := OcrObjectKey(documentID)

	owner, err := s.Blobs.Uploader(ctx, s.Config.MinioBucket, key)
	if err != nil {
		return "", fmt.Errorf("read owner of %s: %w", key, err)
	}
	if owner != "" && owner != username {
		s.Logger.Warn("Zugriff auf fremdes Objekt verweigert",
			zap.Int64("document_id", documentID), zap.String("username", username))
		return "", fmt.Errorf("%w: %s", ErrForbidden, key)
	}

	data, err := s.Blobs.Download(ctx, s.Config.MinioBucket, key)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", key, err)
	}
	return string(data), nil
}
