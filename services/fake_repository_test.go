package services

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fenilmodi00/ipo-tracker/models"
	"github.com/google/uuid"
)

// fakeRepository evaluates filters in memory with the same predicate the SQL store uses
type fakeRepository struct {
	mu      sync.Mutex
	ipos    map[string]*models.IPO
	logs    []models.IPOUpdateLog
	err     error
	queries atomic.Int64
}

func newFakeRepository(ipos ...*models.IPO) *fakeRepository {
	repo := &fakeRepository{ipos: make(map[string]*models.IPO)}
	for _, ipo := range ipos {
		repo.add(ipo)
	}
	return repo
}

func (r *fakeRepository) add(ipo *models.IPO) {
	if ipo.ID == "" {
		ipo.ID = uuid.New().String()
	}
	r.ipos[ipo.ID] = ipo
}

func (r *fakeRepository) matching(filter models.IPOFilter) []models.IPO {
	var out []models.IPO
	for _, ipo := range r.ipos {
		if filter.Matches(ipo) {
			out = append(out, *ipo)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ListingWindow.EndDate != out[j].ListingWindow.EndDate {
			return out[i].ListingWindow.EndDate > out[j].ListingWindow.EndDate
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *fakeRepository) FindPage(ctx context.Context, filter models.IPOFilter, offset, limit int) ([]models.IPO, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries.Add(1)
	if r.err != nil {
		return nil, r.err
	}

	all := r.matching(filter)
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *fakeRepository) Count(ctx context.Context, filter models.IPOFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries.Add(1)
	if r.err != nil {
		return 0, r.err
	}
	return int64(len(r.matching(filter))), nil
}

func (r *fakeRepository) UpdateFields(ctx context.Context, id string, update models.IPOUpdate) (models.UpdateResult, []models.IPOUpdateLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return models.UpdateResult{}, nil, r.err
	}

	ipo, ok := r.ipos[id]
	if !ok {
		return models.UpdateResult{}, nil, nil
	}

	var logs []models.IPOUpdateLog
	now := time.Now().UTC()
	if update.Recommendation != nil && *update.Recommendation != ipo.Recommendation {
		logs = append(logs, models.IPOUpdateLog{ID: uuid.New().String(), IPOID: id, FieldName: "recommendation",
			OldValue: string(ipo.Recommendation), NewValue: string(*update.Recommendation), Source: update.Source, Timestamp: now})
		ipo.Recommendation = *update.Recommendation
	}
	if update.ApplyForListingGain != nil && *update.ApplyForListingGain != ipo.ApplyForListingGain {
		logs = append(logs, models.IPOUpdateLog{ID: uuid.New().String(), IPOID: id, FieldName: "apply_for_listing_gain",
			OldValue: strconv.FormatBool(ipo.ApplyForListingGain), NewValue: strconv.FormatBool(*update.ApplyForListingGain),
			Source: update.Source, Timestamp: now})
		ipo.ApplyForListingGain = *update.ApplyForListingGain
	}

	r.logs = append(r.logs, logs...)
	result := models.UpdateResult{Matched: true}
	if len(logs) > 0 {
		result.ModifiedCount = 1
	}
	return result, logs, nil
}

func (r *fakeRepository) ListUpdateLogs(ctx context.Context, ipoID string, limit int) ([]models.IPOUpdateLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}

	var out []models.IPOUpdateLog
	for i := len(r.logs) - 1; i >= 0 && len(out) < limit; i-- {
		if r.logs[i].IPOID == ipoID {
			out = append(out, r.logs[i])
		}
	}
	return out, nil
}

func newIPO(name, endDate string) *models.IPO {
	return &models.IPO{
		AnalysisTitle: name + " IPO Analysis",
		Name:          name,
		Summary:       "Summary of " + name,
		ListingWindow: models.ListingWindow{EndDate: endDate},
	}
}

func fixedClock(date string) func() time.Time {
	t, err := time.Parse(models.DateLayout, date)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t.Add(12 * time.Hour) }
}
