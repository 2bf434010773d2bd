package providers

import (
	"context"
	"errors"
)

// ErrQuotaExceeded signalisiert ein Rate-Limit des Generative-Text-Dienstes.
// Die GenAI-Stufe klassifiziert diesen Fall als FAILED_QUOTA.
var ErrQuotaExceeded = errors.New("generative service quota exceeded")

// Summarizer ist das Interface, das jeder Generative-Text-Provider
// implementieren muss.
type Summarizer interface {
	// Summarize erzeugt eine kurze Zusammenfassung des Texts.
	Summarize(ctx context.Context, text string) (string, error)

	// Name gibt den eindeutigen Namen des Providers zurück (z.B. "gemini").
	Name() string
}
