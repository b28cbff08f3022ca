package infra

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// Account audit event topics.
const (
	TopicAccountRegistered = "safeplay.account.registered"
	TopicAccountLogin      = "safeplay.account.login"
)

// AuditEvent is the payload published for account lifecycle events.
type AuditEvent struct {
	AccountID int64     `json:"account_id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	SteamID   string    `json:"steam_id,omitempty"`
	At        time.Time `json:"at"`
}

// KafkaProducer wraps a kafka-go writer for publishing audit events.
// If brokers is empty or disabled, writes are no-ops.
type KafkaProducer struct {
	writer  *kafka.Writer
	logger  *slog.Logger
	enabled bool
}

// NewKafkaProducer creates a Kafka producer.
func NewKafkaProducer(brokers string, enabled bool, logger *slog.Logger) *KafkaProducer {
	if !enabled || brokers == "" {
		logger.Info("kafka producer disabled")
		return &KafkaProducer{enabled: false, logger: logger}
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(strings.Split(brokers, ",")...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}

	logger.Info("kafka producer initialized", "brokers", brokers)
	return &KafkaProducer{writer: w, logger: logger, enabled: true}
}

// Enabled reports whether events are actually published.
func (p *KafkaProducer) Enabled() bool { return p.enabled }

// PublishAudit sends an audit event keyed by username. No-op if disabled.
// Publish failures are logged, never surfaced: auditing must not block logins.
func (p *KafkaProducer) PublishAudit(ctx context.Context, topic string, event AuditEvent) error {
	if !p.enabled {
		return nil
	}

	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(event.Username),
		Value: value,
	})
	if err != nil {
		p.logger.Warn("audit event publish failed", "topic", topic, "error", err)
	}
	return err
}

// Close shuts down the Kafka writer.
func (p *KafkaProducer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
