package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"go.uber.org/zap"
)

// Tesseract erkennt Text über das externe tesseract-Binary.
type Tesseract struct {
	Bin    string
	Logger *zap.Logger
}

// NewTesseract erstellt einen Recognizer; bin ist üblicherweise "tesseract".
func NewTesseract(bin string, logger *zap.Logger) *Tesseract {
	return &Tesseract{Bin: bin, Logger: logger}
}

// Recognize lässt Tesseract das Bild nach stdout erkennen.
func (t *Tesseract) Recognize(ctx context.Context, imagePath string) (string, error) {
	cmd := exec.CommandContext(ctx, t.Bin, imagePath, "stdout")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		t.Logger.Error("Tesseract fehlgeschlagen",
			zap.String("image", imagePath), zap.String("stderr", stderr.String()), zap.Error(err))
		return "", fmt.Errorf("tesseract failed on %s: %w", imagePath, err)
	}
	return stdout.String(), nil
}
