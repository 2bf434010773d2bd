package ocr

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"go.uber.org/zap"
)

// Ghostscript rastert PDFs über das externe gs-Binary in PNG-Seiten.
type Ghostscript struct {
	Bin    string
	Logger *zap.Logger
}

// NewGhostscript erstellt einen Converter; bin ist üblicherweise "gs".
func NewGhostscript(bin string, logger *zap.Logger) *Ghostscript {
	return &Ghostscript{Bin: bin, Logger: logger}
}

// Convert prüft das PDF zuerst strukturell mit pdfcpu und rastert es
// dann mit Ghostscript bei 300 DPI. Ein kaputtes oder leeres PDF
// scheitert damit, bevor ein Prozess gestartet wird.
func (g *Ghostscript) Convert(ctx context.Context, pdfPath, workDir string) ([]string, error) {
	pageCount, err := api.PageCountFile(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("pdf validation failed for %s: %w", pdfPath, err)
	}
	if pageCount == 0 {
		return nil, fmt.Errorf("pdf %s has no pages", pdfPath)
	}

	cmd := exec.CommandContext(ctx, g.Bin,
		"-dNOPAUSE", "-dBATCH",
		"-sDEVICE=png16m",
		"-r300",
		"-o", "page-%03d.png",
		pdfPath,
	)
	cmd.Dir = workDir
	output, err := cmd.CombinedOutput()
	if err != nil {
		g.Logger.Error("Ghostscript fehlgeschlagen",
			zap.String("pdf", pdfPath), zap.ByteString("output", output), zap.Error(err))
		return nil, fmt.Errorf("ghostscript conversion failed: %w", err)
	}

	pages, err := filepath.Glob(filepath.Join(workDir, "page-*.png"))
	if err != nil {
		return nil, err
	}
	// Seitenreihenfolge über den Dateinamen (page-001, page-002, ...)
	sort.Strings(pages)
	g.Logger.Debug("PDF gerastert",
		zap.String("pdf", pdfPath), zap.Int("pages", len(pages)))
	return pages, nil
}
