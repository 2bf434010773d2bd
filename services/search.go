package services

import (
	"context"
	"errors"
	"strings"

	"shreddit/models"
	"shreddit/search"

	"go.uber.org/zap"
)

// SearchService löst eine Freitextsuche auf: zuerst über den Suchindex,
// bei leerem Ergebnis per Substring-Scan über den Primärspeicher. Beide
// Pfade filtern auf den anfragenden Besitzer.
type SearchService struct {
	Store  DocumentStore
	Index  search.Gateway
	Logger *zap.Logger
}

// NewSearchService erstellt die Suchauflösung.
func NewSearchService(store DocumentStore, gw search.Gateway, logger *zap.Logger) *SearchService {
	return &SearchService{Store: store, Index: gw, Logger: logger}
}

// Search liefert die für username sichtbaren Treffer. Der Suchindex ist
// nur eine Optimierung: ist er leer, down oder nicht synchron, greift
// der Scan über den Primärspeicher.
func (s *SearchService) Search(ctx context.Context, query, username string) ([]models.Document, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	fromIndex, err := s.fromIndex(ctx, query, username)
	if err != nil {
		return nil, err
	}
	if len(fromIndex) > 0 {
		return fromIndex, nil
	}

	all, err := s.Store.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(query)
	var fallback []models.Document
	for _, doc := range all {
		if doc.VisibleTo(username) && matches(&doc, needle) {
			fallback = append(fallback, doc)
		}
	}
	s.Logger.Debug("Index leer, Fallback-Scan verwendet",
		zap.String("query", query), zap.Int("count", len(fallback)))
	return fallback, nil
}

// fromIndex fragt den Index ab und liest jeden Treffer frisch aus dem
// Primärspeicher nach, da die Index-Kopie veraltet sein kann.
func (s *SearchService) fromIndex(ctx context.Context, query, username string) ([]models.Document, error) {
	hits, err := s.Index.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	var results []models.Document
	for _, hit := range hits {
		doc, err := s.Store.FindByID(ctx, hit.ID)
		if err != nil {
			if errors.Is(err, ErrDocumentNotFound) {
				// Index-Leiche: Dokument wurde inzwischen gelöscht
				s.Logger.Warn("Index-Treffer ohne Dokument", zap.Int64("document_id", hit.ID))
				continue
			}
			return nil, err
		}
		if !doc.VisibleTo(username) {
			continue
		}
		results = append(results, *doc)
	}
	return results, nil
}

// matches prüft case-insensitiv auf Substring in allen Textfeldern.
func matches(doc *models.Document, needle string) bool {
	return contains(doc.Title, needle) ||
		contains(doc.Content, needle) ||
		contains(doc.Summary, needle) ||
		contains(doc.OcrText, needle) ||
		contains(doc.Tags, needle)
}

func contains(haystack, needle string) bool {
	return haystack != "" && strings.Contains(strings.ToLower(haystack), needle)
}
