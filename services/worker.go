package services

import (
	"context"

	"shreddit/queue"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var (
	jobsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_jobs_processed_total",
			Help: "Total number of successfully processed pipeline jobs per stage.",
		},
		[]string{"stage"},
	)
	jobsFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_jobs_failed_total",
			Help: "Total number of failed pipeline jobs per stage.",
		},
		[]string{"stage"},
	)
	stuckPending = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "documents_stuck_pending",
			Help: "Documents sitting in PENDING longer than the configured age.",
		},
	)
)

func init() {
	prometheus.MustRegister(jobsProcessed, jobsFailed, stuckPending)
}

// Handler verarbeitet den rohen Body einer Queue-Message.
type Handler func(ctx context.Context, body []byte) error

// RunConsumer bindet eine Stufe an ihre Queue und verarbeitet Messages
// bis der Context abläuft. Fehler einer einzelnen Message werden geloggt
// und gezählt; die Message gilt als konsumiert.
func RunConsumer(ctx context.Context, q queue.Queue, queueName, stage string, logger *zap.Logger, handler Handler) error {
	msgs, err := q.Consume(ctx, queueName)
	if err != nil {
		return err
	}
	logger.Info("Consumer gestartet", zap.String("queue", queueName), zap.String("stage", stage))

	for body := range msgs {
		if err := handler(ctx, body); err != nil {
			jobsFailed.WithLabelValues(stage).Inc()
			logger.Error("Job fehlgeschlagen, Message wird verworfen",
				zap.String("queue", queueName), zap.String("stage", stage), zap.Error(err))
			continue
		}
		jobsProcessed.WithLabelValues(stage).Inc()
	}
	logger.Info("Consumer beendet", zap.String("queue", queueName))
	return nil
}
