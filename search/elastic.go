package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"shreddit/config"
	"shreddit/models"

	"github.com/elastic/go-elasticsearch/v8"
	"go.uber.org/zap"
)

// maxHits begrenzt die Ergebnisgröße einer Index-Abfrage.
const maxHits = 25

// Hit ist ein Treffer aus dem Suchindex. Der Score wird nur intern
// fürs Ranking verwendet und nicht nach außen gereicht.
type Hit struct {
	ID    int64
	Score float64
}

// Gateway abstrahiert den Suchindex für Indexing-Stufe und Suche.
type Gateway interface {
	// Index legt den Datensatz per Upsert unter der Dokument-ID ab.
	Index(ctx context.Context, doc models.IndexedDocument) error

	// Search liefert gewichtete Volltext-Treffer; bei Index-Fehlern
	// eine leere Liste, damit der Aufrufer auf den DB-Scan zurückfällt.
	Search(ctx context.Context, query string) ([]Hit, error)
}

// Elastic implementiert Gateway gegen Elasticsearch.
type Elastic struct {
	Client    *elasticsearch.Client
	IndexName string
	Logger    *zap.Logger
}

// NewElastic erstellt den Client aus der Konfiguration.
func NewElastic(cfg *config.Config, logger *zap.Logger) (*Elastic, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.ElasticAddressList(),
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}
	return &Elastic{Client: client, IndexName: cfg.ElasticIndex, Logger: logger}, nil
}

// Index schreibt den Datensatz unter seiner Dokument-ID; ein zweiter
// Aufruf mit derselben ID ersetzt den Eintrag vollständig.
func (e *Elastic) Index(ctx context.Context, doc models.IndexedDocument) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal indexed document %d: %w", doc.ID, err)
	}
	res, err := e.Client.Index(
		e.IndexName,
		bytes.NewReader(body),
		e.Client.Index.WithDocumentID(strconv.FormatInt(doc.ID, 10)),
		e.Client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index document %d: %w", doc.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index document %d: %s", doc.ID, res.String())
	}
	return nil
}

// Search führt ein gewichtetes Multi-Match mit Fuzziness aus. Titel
// zählt doppelt. Fehler werden geloggt und als leere Trefferliste
// zurückgegeben, der Index ist nur eine Optimierung.
func (e *Elastic) Search(ctx context.Context, query string) ([]Hit, error) {
	if query == "" {
		return nil, nil
	}

	var buf bytes.Buffer
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"title^2", "summary", "ocr_text", "content"},
				"fuzziness": "AUTO",
			},
		},
		"size": maxHits,
	}
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}

	res, err := e.Client.Search(
		e.Client.Search.WithContext(ctx),
		e.Client.Search.WithIndex(e.IndexName),
		e.Client.Search.WithBody(&buf),
	)
	if err != nil {
		e.Logger.Error("Elasticsearch-Abfrage fehlgeschlagen", zap.String("query", query), zap.Error(err))
		return nil, nil
	}
	defer res.Body.Close()
	if res.IsError() {
		e.Logger.Error("Elasticsearch-Abfrage abgelehnt", zap.String("query", query), zap.String("status", res.Status()))
		return nil, nil
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID    string  `json:"_id"`
				Score float64 `json:"_score"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		e.Logger.Error("Elasticsearch-Antwort nicht lesbar", zap.Error(err))
		return nil, nil
	}

	var hits []Hit
	for _, h := range parsed.Hits.Hits {
		id, err := strconv.ParseInt(h.ID, 10, 64)
		if err != nil {
			e.Logger.Warn("Ignoriere nicht-numerische Treffer-ID", zap.String("id", h.ID))
			continue
		}
		hits = append(hits, Hit{ID: id, Score: h.Score})
	}
	return hits, nil
}
