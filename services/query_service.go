package services

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/fenilmodi00/ipo-tracker/models"
	"github.com/fenilmodi00/ipo-tracker/shared"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const queryServiceName = "query_service"

// MaxUpdateLogLimit caps how many audit rows one request may read
const MaxUpdateLogLimit = 100

// QueryService answers paginated, tab-filtered, searchable listing requests
type QueryService struct {
	repo    IPORepository
	config  shared.QueryConfig
	now     func() time.Time
	metrics *shared.ServiceMetrics
	logger  *logrus.Entry
}

func NewQueryService(repo IPORepository, config shared.QueryConfig) *QueryService {
	return &QueryService{
		repo:    repo,
		config:  config,
		now:     time.Now,
		metrics: shared.NewServiceMetrics("Query_Service"),
		logger:  logrus.WithField("component", queryServiceName),
	}
}

// WithClock replaces the time source used to decide today's date
func (s *QueryService) WithClock(now func() time.Time) *QueryService {
	s.now = now
	return s
}

// Today returns the UTC date that splits live from history
func (s *QueryService) Today() string {
	return models.Today(s.now())
}

func (s *QueryService) Metrics() *shared.ServiceMetrics {
	return s.metrics
}

// ParseParams turns raw query-string values into validated QueryParams.
// Empty values take their defaults; limit is clamped to the configured maximum.
func (s *QueryService) ParseParams(tab, page, limit, search string) (models.QueryParams, error) {
	params := models.QueryParams{
		Page:   1,
		Limit:  s.config.DefaultLimit,
		Search: strings.TrimSpace(search),
	}

	parsedTab, ok := models.ParseTab(strings.TrimSpace(tab))
	if !ok {
		return params, shared.NewValidationError("INVALID_TAB", "Invalid tab", queryServiceName, "ParseParams").
			WithDetails(map[string]string{"tab": tab})
	}
	params.Tab = parsedTab

	if page = strings.TrimSpace(page); page != "" {
		n, err := strconv.Atoi(page)
		if err != nil || n < 1 {
			return params, shared.NewValidationError("INVALID_PAGE", "Invalid page", queryServiceName, "ParseParams").
				WithDetails(map[string]string{"page": page})
		}
		params.Page = n
	}

	if limit = strings.TrimSpace(limit); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 1 {
			return params, shared.NewValidationError("INVALID_LIMIT", "Invalid limit", queryServiceName, "ParseParams").
				WithDetails(map[string]string{"limit": limit})
		}
		params.Limit = n
	}

	if s.config.MaxLimit > 0 && params.Limit > s.config.MaxLimit {
		params.Limit = s.config.MaxLimit
	}
	return params, nil
}

// ListIPOs returns one page of the selected tab plus pagination metadata.
// The page and the total are read concurrently with the same filter.
func (s *QueryService) ListIPOs(ctx context.Context, params models.QueryParams) (*models.IPOPage, error) {
	start := time.Now()

	if params.Page < 1 || params.Limit < 1 {
		err := shared.NewValidationError("INVALID_PAGINATION", "page and limit must be positive", queryServiceName, "ListIPOs")
		s.metrics.RecordRequest(false, time.Since(start))
		return nil, err
	}
	if params.Tab == "" {
		params.Tab = models.TabLive
	}

	filter := models.IPOFilter{
		Tab:    params.Tab,
		Today:  s.Today(),
		Search: params.Search,
	}

	var (
		ipos  []models.IPO
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	if offset, ok := params.Offset(); ok {
		g.Go(func() error {
			var err error
			ipos, err = s.repo.FindPage(gctx, filter, offset, params.Limit)
			return err
		})
	}
	g.Go(func() error {
		var err error
		total, err = s.repo.Count(gctx, filter)
		return err
	})

	if err := g.Wait(); err != nil {
		serviceErr := shared.WrapError(err, "QUERY_FAILED", queryServiceName, "ListIPOs")
		serviceErr.LogError()
		s.metrics.RecordRequest(false, time.Since(start))
		return nil, serviceErr
	}

	if ipos == nil {
		ipos = []models.IPO{}
	}

	s.metrics.RecordRequest(true, time.Since(start))
	s.metrics.IncrementCounter("tab_" + string(params.Tab))

	s.logger.WithFields(logrus.Fields{
		"tab":        params.Tab,
		"page":       params.Page,
		"limit":      params.Limit,
		"search":     params.Search,
		"total_docs": total,
		"returned":   len(ipos),
		"duration":   time.Since(start),
	}).Debug("Listed IPOs")

	return &models.IPOPage{
		Data:       ipos,
		Pagination: models.NewPagination(params.Page, params.Limit, total),
	}, nil
}

// ListUpdateLogs returns the audit trail of one IPO, newest first
func (s *QueryService) ListUpdateLogs(ctx context.Context, id string, limit int) ([]models.IPOUpdateLog, error) {
	if err := validateID(id, queryServiceName, "ListUpdateLogs"); err != nil {
		return nil, err
	}
	if limit < 1 || limit > MaxUpdateLogLimit {
		limit = MaxUpdateLogLimit
	}

	logs, err := s.repo.ListUpdateLogs(ctx, id, limit)
	if err != nil {
		serviceErr := shared.WrapError(err, "QUERY_FAILED", queryServiceName, "ListUpdateLogs")
		serviceErr.LogError()
		return nil, serviceErr
	}
	if logs == nil {
		logs = []models.IPOUpdateLog{}
	}
	return logs, nil
}
