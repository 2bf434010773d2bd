package queue

import (
	"context"
	"sync"
)

// Memory ist eine channelbasierte Queue für Tests. Sie verhält sich wie
// der Broker aus Sicht der Stufen: FIFO pro Queue, keine Redelivery.
type Memory struct {
	mu     sync.Mutex
	queues map[string]chan []byte

	// PublishErr lässt Tests Publish-Fehler für einzelne Queues erzwingen.
	PublishErr map[string]error
}

// NewMemory erstellt eine leere In-Memory-Queue.
func NewMemory() *Memory {
	return &Memory{
		queues:     make(map[string]chan []byte),
		PublishErr: make(map[string]error),
	}
}

func (m *Memory) channel(queue string) chan []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.queues[queue]
	if !ok {
		ch = make(chan []byte, 64)
		m.queues[queue] = ch
	}
	return ch
}

// Publish serialisiert die Payload und legt sie auf den Queue-Channel.
func (m *Memory) Publish(ctx context.Context, queue string, payload any) error {
	m.mu.Lock()
	forced := m.PublishErr[queue]
	m.mu.Unlock()
	if forced != nil {
		return forced
	}

	body, err := Marshal(payload)
	if err != nil {
		return err
	}
	select {
	case m.channel(queue) <- body:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume liefert den Channel der Queue direkt aus.
func (m *Memory) Consume(ctx context.Context, queue string) (<-chan []byte, error) {
	return m.channel(queue), nil
}

// Len gibt die Anzahl wartender Messages zurück (nur für Tests).
func (m *Memory) Len(queue string) int {
	return len(m.channel(queue))
}
