package gemini

// Request ist der Body für den generateContent-Endpunkt.
type Request struct {
	SystemInstruction *Content         `json:"systemInstruction,omitempty"`
	Contents          []Content        `json:"contents"`
	GenerationConfig  GenerationConfig `json:"generationConfig"`
}

// Content bündelt die Text-Parts einer Nachricht.
type Content struct {
	Parts []Part `json:"parts"`
}

// Part ist ein einzelnes Textfragment.
type Part struct {
	Text string `json:"text"`
}

// GenerationConfig steuert Temperatur und Antwortlänge.
type GenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// Response repräsentiert die JSON-Antwort der Gemini-API.
type Response struct {
	Candidates []struct {
		Content Content `json:"content"`
	} `json:"candidates"`
}
