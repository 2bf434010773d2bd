package ocr

import "context"

// PageConverter rastert ein Dokument in eine geordnete Folge von
// Seitenbildern mit fester Auflösung.
type PageConverter interface {
	// Convert schreibt die Seitenbilder nach workDir und gibt deren
	// Pfade in Seitenreihenfolge zurück.
	Convert(ctx context.Context, pdfPath, workDir string) ([]string, error)
}

// Recognizer erkennt den Text eines einzelnen Seitenbilds.
type Recognizer interface {
	Recognize(ctx context.Context, imagePath string) (string, error)
}
