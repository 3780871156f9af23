package ingest

import (
	"context"

	"github.com/finsightio/finsight_backend/config"
)

// PubSubEvents publishes processed-statement notifications to the
// configured Pub/Sub topic.
type PubSubEvents struct{}

func (PubSubEvents) StatementProcessed(ctx context.Context, event config.StatementEvent) error {
	return config.PublishStatementProcessed(ctx, event)
}
