package services

import (
	"context"

	"github.com/fenilmodi00/ipo-tracker/models"
)

// IPORepository is the persistence surface the services depend on.
// database.IPOStore is the production implementation.
type IPORepository interface {
	FindPage(ctx context.Context, filter models.IPOFilter, offset, limit int) ([]models.IPO, error)
	Count(ctx context.Context, filter models.IPOFilter) (int64, error)
	UpdateFields(ctx context.Context, id string, update models.IPOUpdate) (models.UpdateResult, []models.IPOUpdateLog, error)
	ListUpdateLogs(ctx context.Context, ipoID string, limit int) ([]models.IPOUpdateLog, error)
}

// IPOLister serves paginated IPO listings, with or without a cache in front
type IPOLister interface {
	ListIPOs(ctx context.Context, params models.QueryParams) (*models.IPOPage, error)
}
