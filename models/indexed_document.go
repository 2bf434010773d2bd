package models

import "time"

// IndexedDocument ist die denormalisierte Kopie eines Dokuments im
// Suchindex. Sie wird bei jedem Indexing-Job komplett neu aufgebaut
// und per Upsert unter der Dokument-ID abgelegt.
type IndexedDocument struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content,omitempty"`
	Summary   string    `json:"summary,omitempty"`
	OcrText   string    `json:"ocr_text,omitempty"`
	Username  string    `json:"username,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
