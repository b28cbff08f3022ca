package infra

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKafkaProducerDisabled(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("disabled flag", func(t *testing.T) {
		p := NewKafkaProducer("localhost:9092", false, logger)
		assert.False(t, p.Enabled())
		assert.NoError(t, p.PublishAudit(context.Background(), TopicAccountLogin, AuditEvent{
			AccountID: 1, Username: "ana", Role: "supervisor", At: time.Now(),
		}))
		assert.NoError(t, p.Close())
	})

	t.Run("empty brokers", func(t *testing.T) {
		p := NewKafkaProducer("", true, logger)
		assert.False(t, p.Enabled())
		assert.NoError(t, p.PublishAudit(context.Background(), TopicAccountRegistered, AuditEvent{}))
		assert.NoError(t, p.Close())
	})
}
