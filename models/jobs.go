package models

// OcrJob fordert die Texterkennung für ein hochgeladenes Objekt an.
// Producer ist der Upload-Endpunkt des Backends.
type OcrJob struct {
	DocumentID int64  `json:"documentId"`
	Bucket     string `json:"bucket"`
	ObjectName string `json:"objectName"`
	Username   string `json:"username,omitempty"`
}

// GenAiJob fordert die Zusammenfassung des erkannten Texts an.
// Einziger Producer ist die OCR-Stufe.
type GenAiJob struct {
	DocumentID int64  `json:"documentId"`
	OcrPath    string `json:"ocrPath"`
}

// IndexingJob fordert das (Neu-)Indizieren eines Dokuments an.
// Producer sind OCR-Stufe und GenAI-Stufe; beide tragen einen
// vollständigen Verweis, die Reihenfolge der Zustellung ist egal.
type IndexingJob struct {
	DocumentID int64  `json:"documentId"`
	Bucket     string `json:"bucket"`
	ObjectName string `json:"objectName"`
}
