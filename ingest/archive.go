package ingest

import (
	"context"

	"github.com/finsightio/finsight_backend/utils"
)

// GCSArchive stores uploaded statement documents in the configured
// Google Cloud Storage bucket.
type GCSArchive struct{}

func (GCSArchive) Store(ctx context.Context, objectName string, data []byte) error {
	return utils.UploadStatementToGCS(ctx, objectName, data)
}
