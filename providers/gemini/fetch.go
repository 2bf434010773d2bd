package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"shreddit/config"
	"shreddit/providers"

	"go.uber.org/zap"
)

// baseURL ist der generateContent-Endpunkt der Gemini-API.
const baseURL = "https://generativelanguage.googleapis.com/v1beta/models"

// systemPrompt hält die Zusammenfassung neutral und auf Deutsch.
const systemPrompt = "Please summarize the following OCR text in 3-5 neutral sentences in German. " +
	"Do not invent information that is not present in the text."

// httpClient wird für alle Gemini-Aufrufe verwendet; der Timeout deckt
// Connect und Read ab.
var httpClient = &http.Client{Timeout: 40 * time.Second}

// Fetcher kapselt die Logik für Gemini.
type Fetcher struct {
	Config *config.Config
	Logger *zap.Logger
}

// NewFetcher erstellt einen neuen Gemini-Fetcher.
func NewFetcher(cfg *config.Config, logger *zap.Logger) *Fetcher {
	return &Fetcher{Config: cfg, Logger: logger}
}

// Name gibt den Provider-Namen zurück.
func (f *Fetcher) Name() string {
	return "gemini"
}

// Summarize ruft die Gemini-API einmal auf. Retries verantwortet der
// Aufrufer; ein HTTP 429 wird als Quota-Fehler klassifiziert.
func (f *Fetcher) Summarize(ctx context.Context, text string) (string, error) {
	if f.Config.GeminiAPIKey == "" {
		return "", fmt.Errorf("GEMINI_API_KEY ist nicht gesetzt")
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("ocr text is empty")
	}

	reqBody := Request{
		SystemInstruction: &Content{Parts: []Part{{Text: systemPrompt}}},
		Contents:          []Content{{Parts: []Part{{Text: text}}}},
		GenerationConfig: GenerationConfig{
			Temperature:     f.Config.GeminiTemperature,
			MaxOutputTokens: f.Config.GeminiMaxTokens,
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", baseURL, f.Config.GeminiModel, f.Config.GeminiAPIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		f.Logger.Warn("Gemini-Kontingent überschritten")
		return "", providers.ErrQuotaExceeded
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		f.Logger.Error("Gemini API-Fehler",
			zap.Int("status", resp.StatusCode), zap.ByteString("body", body))
		return "", fmt.Errorf("gemini request failed with status: %d", resp.StatusCode)
	}

	var gr Response
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return "", err
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("unexpected gemini response structure")
	}

	summary := gr.Candidates[0].Content.Parts[0].Text
	if strings.TrimSpace(summary) == "" {
		return "", fmt.Errorf("gemini returned an empty summary")
	}
	return summary, nil
}
