package services

import (
	"context"
	"sync"
	"time"

	"github.com/fenilmodi00/ipo-tracker/models"
	"github.com/fenilmodi00/ipo-tracker/shared"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const updateServiceName = "update_service"

// Error messages returned to clients verbatim
const (
	MsgInvalidID        = "Invalid ID"
	MsgNoFields         = "No fields to update"
	MsgInvalidRecommend = "Invalid recommendation"
	MsgIPONotFound      = "IPO not found"
	MsgUpdateFailed     = "Failed to update IPO"
	MsgFetchFailed      = "Failed to fetch data"
)

// Audit sources
const (
	SourceAPI       = "api"
	SourceDashboard = "dashboard"
	SourceCLI       = "cli"
)

// UpdateService applies operator edits to the two editable fields of one IPO
type UpdateService struct {
	repo    IPORepository
	strict  bool
	audit   *IPOAuditLogger
	metrics *shared.ServiceMetrics
	logger  *logrus.Entry

	mu    sync.RWMutex
	hooks []func(id string)
}

func NewUpdateService(repo IPORepository, config shared.QueryConfig) *UpdateService {
	return &UpdateService{
		repo:    repo,
		strict:  config.StrictRecommendation,
		audit:   NewIPOAuditLogger(updateServiceName),
		metrics: shared.NewServiceMetrics("Update_Service"),
		logger:  logrus.WithField("component", updateServiceName),
	}
}

// OnUpdate registers fn to run after an edit modified a record
func (s *UpdateService) OnUpdate(fn func(id string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

func (s *UpdateService) Metrics() *shared.ServiceMetrics {
	return s.metrics
}

// UpdateIPO writes the provided fields of the record with id. Only
// Recommendation and ApplyForListingGain can change; absent fields are untouched.
func (s *UpdateService) UpdateIPO(ctx context.Context, id string, update models.IPOUpdate) (models.UpdateResult, error) {
	start := time.Now()
	result, logs, err := s.updateIPO(ctx, id, update)

	s.metrics.RecordRequest(err == nil, time.Since(start))
	if err != nil {
		s.metrics.IncrementCounter(string(shared.CategoryOf(err)))
	} else if result.ModifiedCount > 0 {
		s.metrics.IncrementCounter("modified")
	}

	s.audit.LogIPOUpdate(id, update, result, logs, err)
	return result, err
}

func (s *UpdateService) updateIPO(ctx context.Context, id string, update models.IPOUpdate) (models.UpdateResult, []models.IPOUpdateLog, error) {
	if err := validateID(id, updateServiceName, "UpdateIPO"); err != nil {
		return models.UpdateResult{}, nil, err
	}

	if update.IsEmpty() {
		return models.UpdateResult{}, nil, shared.NewValidationError("NO_FIELDS", MsgNoFields, updateServiceName, "UpdateIPO")
	}

	if s.strict && update.Recommendation != nil && !update.Recommendation.Valid() {
		return models.UpdateResult{}, nil, shared.NewValidationError("INVALID_RECOMMENDATION", MsgInvalidRecommend, updateServiceName, "UpdateIPO").
			WithDetails(map[string]interface{}{
				"value":   *update.Recommendation,
				"allowed": models.Recommendations,
			})
	}

	result, logs, err := s.repo.UpdateFields(ctx, id, update)
	if err != nil {
		serviceErr := shared.WrapError(err, "UPDATE_FAILED", updateServiceName, "UpdateIPO")
		serviceErr.LogError()
		return models.UpdateResult{}, nil, serviceErr
	}

	if !result.Matched {
		return result, nil, shared.NewNotFoundError("IPO_NOT_FOUND", MsgIPONotFound, updateServiceName, "UpdateIPO").
			WithDetails(map[string]string{"id": id})
	}

	if result.ModifiedCount > 0 {
		s.logger.WithFields(logrus.Fields{
			"ipo_id": id,
			"fields": update.Fields(),
			"source": update.Source,
		}).Info("IPO updated")
		s.runHooks(id)
	}

	return result, logs, nil
}

func (s *UpdateService) runHooks(id string) {
	s.mu.RLock()
	hooks := make([]func(string), len(s.hooks))
	copy(hooks, s.hooks)
	s.mu.RUnlock()

	for _, hook := range hooks {
		hook(id)
	}
}

// validateID accepts only canonical record identifiers
func validateID(id, serviceName, operation string) error {
	if _, err := uuid.Parse(id); err != nil || len(id) != 36 {
		return shared.NewValidationError("INVALID_ID", MsgInvalidID, serviceName, operation).
			WithDetails(map[string]string{"id": id})
	}
	return nil
}
