package queue

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Rabbit implementiert Queue gegen RabbitMQ. Ein Channel wird für alle
// Publishes geteilt, jeder Consumer bekommt einen eigenen Channel mit
// Prefetch 1.
type Rabbit struct {
	conn   *amqp.Connection
	pubCh  *amqp.Channel
	pubMu  sync.Mutex
	logger *zap.Logger
}

// NewRabbit stellt die Verbindung her und erstellt den Publish-Channel.
func NewRabbit(url string, logger *zap.Logger) (*Rabbit, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	return &Rabbit{conn: conn, pubCh: ch, logger: logger}, nil
}

// Close schließt Channel und Verbindung.
func (r *Rabbit) Close() error {
	if err := r.pubCh.Close(); err != nil {
		r.logger.Warn("Fehler beim Schließen des Publish-Channels", zap.Error(err))
	}
	return r.conn.Close()
}

func (r *Rabbit) declare(ch *amqp.Channel, queue string) error {
	_, err := ch.QueueDeclare(queue, true, false, false, false, nil)
	return err
}

// Publish legt die Payload als persistente JSON-Message auf die Queue.
func (r *Rabbit) Publish(ctx context.Context, queue string, payload any) error {
	body, err := Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload for %s: %w", queue, err)
	}

	r.pubMu.Lock()
	defer r.pubMu.Unlock()

	if err := r.declare(r.pubCh, queue); err != nil {
		return fmt.Errorf("declare queue %s: %w", queue, err)
	}
	err = r.pubCh.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", queue, err)
	}
	return nil
}

// Consume liefert die Message-Bodies der Queue. Jede Message wird nach
// der Übergabe bestätigt; eine fehlgeschlagene Verarbeitung führt
// bewusst nicht zu einem Requeue.
func (r *Rabbit) Consume(ctx context.Context, queue string) (<-chan []byte, error) {
	ch, err := r.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("consumer channel for %s: %w", queue, err)
	}
	if err := r.declare(ch, queue); err != nil {
		ch.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		ch.Close()
		return nil, fmt.Errorf("qos for %s: %w", queue, err)
	}
	deliveries, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("consume %s: %w", queue, err)
	}

	out := make(chan []byte)
	go func() {
		defer close(out)
		defer ch.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					r.logger.Warn("Delivery-Channel geschlossen", zap.String("queue", queue))
					return
				}
				// Erst nach der Übergabe an den Worker bestätigen, sonst
				// schiebt der Broker trotz Prefetch 1 schon die nächste
				// Message nach.
				select {
				case out <- d.Body:
					if err := d.Ack(false); err != nil {
						r.logger.Error("Ack fehlgeschlagen", zap.String("queue", queue), zap.Error(err))
					}
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
