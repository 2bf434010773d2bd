package models

import (
	"time"
)

// SummaryStatus beschreibt den Zustand der Zusammenfassungs-Pipeline
// für ein Dokument. Alle Zustände außer PENDING sind terminal.
const (
	StatusPending     = "PENDING"
	StatusOk          = "OK"
	StatusFailed      = "FAILED"
	StatusFailedQuota = "FAILED_QUOTA"
	StatusImported    = "IMPORTED"
)

// QuotaExceededMessage wird statt einer Zusammenfassung gespeichert,
// wenn Gemini das Kontingent überschritten hat.
const QuotaExceededMessage = "Gemini quota exceeded; try again later"

// Document repräsentiert ein hochgeladenes Dokument und dessen
// Verarbeitungszustand.
type Document struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Title    string `json:"title"`
	Content  string `json:"content,omitempty" gorm:"type:text"`
	Filename string `json:"filename,omitempty"`

	// Username ist der Besitzer. Leer bedeutet Legacy/öffentlich:
	// jeder darf das Dokument sehen.
	Username string `json:"username,omitempty" gorm:"index"`

	OcrText string `json:"ocr_text,omitempty" gorm:"type:text"`
	Summary string `json:"summary,omitempty" gorm:"type:text"`

	SummaryStatus string `json:"summary_status" gorm:"index;default:PENDING"`

	// Nur vom Batch-Import befüllt
	Tags         string     `json:"tags,omitempty"`
	DocumentDate *time.Time `json:"document_date,omitempty"`
}

// VisibleTo prüft die Besitzer-Regel: ein leerer Username ist für alle
// sichtbar, sonst nur für den Besitzer selbst.
func (d *Document) VisibleTo(username string) bool {
	return d.Username == "" || d.Username == username
}

// MarkOk setzt den Erfolgszustand nach gelungener Zusammenfassung.
func (d *Document) MarkOk(ocrText, summary string) {
	if d.OcrText == "" {
		d.OcrText = ocrText
	}
	d.Summary = summary
	d.SummaryStatus = StatusOk
}

// MarkFailed setzt den generischen Fehlerzustand; es bleibt keine
// Zusammenfassung zurück.
func (d *Document) MarkFailed() {
	d.Summary = ""
	d.SummaryStatus = StatusFailed
}

// MarkQuotaExceeded setzt den Quota-Zustand mit erklärendem Platzhaltertext.
func (d *Document) MarkQuotaExceeded() {
	d.Summary = QuotaExceededMessage
	d.SummaryStatus = StatusFailedQuota
}

// MarkImported kennzeichnet ein per Batch-Import angelegtes Dokument,
// für das keine Zusammenfassung erzeugt wird.
func (d *Document) MarkImported() {
	d.SummaryStatus = StatusImported
}
