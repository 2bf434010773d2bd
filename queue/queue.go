package queue

import (
	"context"
	"encoding/json"
)

// Queue abstrahiert den Message-Broker zwischen den Pipeline-Stufen.
// Zustellung ist at-least-once; eine Reihenfolge über mehrere Messages
// hinweg wird nicht garantiert.
type Queue interface {
	// Publish serialisiert payload als JSON und legt sie auf die Queue.
	Publish(ctx context.Context, queue string, payload any) error

	// Consume liefert einen Stream von Message-Bodies. Der Channel wird
	// geschlossen, wenn ctx abläuft oder die Verbindung wegbricht.
	Consume(ctx context.Context, queue string) (<-chan []byte, error)
}

// Marshal ist der gemeinsame Payload-Codec aller Implementierungen.
func Marshal(payload any) ([]byte, error) {
	return json.Marshal(payload)
}
