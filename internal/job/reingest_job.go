package job

import (
	"context"

	"github.com/schle1cherr/docrag/internal/service"
)

// ReingestJob re-scans the document source on a schedule so that changed or
// newly dropped files get picked up without a manual /index/build call.
type ReingestJob struct {
	ingest *service.IngestService
}

func NewReingestJob(ingest *service.IngestService) *ReingestJob {
	return &ReingestJob{ingest: ingest}
}

func (j *ReingestJob) Name() string {
	return "reingest"
}

func (j *ReingestJob) Run(ctx context.Context) error {
	if j.ingest == nil {
		return nil
	}
	_, err := j.ingest.Run(ctx)
	return err
}
