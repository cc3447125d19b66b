package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fenilmodi00/ipo-tracker/models"
	"github.com/fenilmodi00/ipo-tracker/shared"
	"github.com/sirupsen/logrus"
)

// ErrReadOnly is returned for edits attempted while the history tab is shown
var ErrReadOnly = errors.New("records on the history tab are read-only")

// Source is what the controller reads from and writes to. Client implements it
// over HTTP; the services can be adapted to it in-process.
type Source interface {
	ListIPOs(ctx context.Context, params models.QueryParams) (*models.IPOPage, error)
	UpdateIPO(ctx context.Context, id string, update models.IPOUpdate) (models.UpdateResult, error)
}

// Controller owns the dashboard state and keeps the view in step with it.
// Every fetch is tagged with a generation; only the latest generation may
// replace the view, so a slow response for an old state is dropped.
type Controller struct {
	source    Source
	limit     int
	debouncer *shared.Debouncer
	timeout   time.Duration
	logger    *logrus.Entry

	mu         sync.Mutex
	state      State
	input      string
	generation uint64
	view       ViewModel
	lastPage   *models.IPOPage
	onChange   func(ViewModel)
}

func NewController(source Source, limit int, searchDebounce time.Duration) *Controller {
	if limit < 1 {
		limit = DefaultLimit
	}
	state := InitialState()
	return &Controller{
		source:    source,
		limit:     limit,
		debouncer: shared.NewDebouncer(searchDebounce),
		timeout:   10 * time.Second,
		logger:    logrus.WithField("component", "dashboard_controller"),
		state:     state,
		view:      BuildView(state, nil, true, nil),
	}
}

// OnChange registers fn to receive every view the controller publishes
func (c *Controller) OnChange(fn func(ViewModel)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) View() ViewModel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// SearchInput is the raw text typed so far, which may not be applied yet
func (c *Controller) SearchInput() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

// Refresh fetches the page for the current state
func (c *Controller) Refresh(ctx context.Context) {
	c.mu.Lock()
	c.generation++
	generation := c.generation
	state := c.state
	c.publishLocked(BuildView(state, c.lastPage, true, nil))
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	page, err := c.source.ListIPOs(ctx, state.Params(c.limit))

	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation {
		c.logger.WithFields(logrus.Fields{
			"generation": generation,
			"current":    c.generation,
		}).Debug("Dropped stale dashboard response")
		return
	}
	if err != nil {
		c.logger.WithError(err).Warn("Failed to load IPOs")
		c.publishLocked(BuildView(state, nil, false, err))
		return
	}
	c.lastPage = page
	c.publishLocked(BuildView(state, page, false, nil))
}

// SetTab switches tab, returns to page one and refetches
func (c *Controller) SetTab(ctx context.Context, tab models.Tab) {
	c.mu.Lock()
	c.state = c.state.WithTab(tab)
	c.mu.Unlock()
	c.Refresh(ctx)
}

// SetPage moves to page, clamped to the known page count, and refetches
func (c *Controller) SetPage(ctx context.Context, page int) {
	c.mu.Lock()
	c.state = c.state.WithPage(page, c.view.Pagination.TotalPages)
	c.mu.Unlock()
	c.Refresh(ctx)
}

func (c *Controller) NextPage(ctx context.Context) {
	c.SetPage(ctx, c.State().Page+1)
}

func (c *Controller) PrevPage(ctx context.Context) {
	c.SetPage(ctx, c.State().Page-1)
}

// SetSearch records typed text. The term is applied, and the first page
// fetched, once typing has paused for the debounce delay.
func (c *Controller) SetSearch(term string) {
	c.mu.Lock()
	c.input = term
	c.mu.Unlock()

	c.debouncer.Trigger(func() {
		c.mu.Lock()
		c.state = c.state.WithSearch(c.input)
		c.mu.Unlock()
		c.Refresh(context.Background())
	})
}

// Update sends an edit and then refetches the current page. The view is never
// patched locally; what is shown always comes from the server.
func (c *Controller) Update(ctx context.Context, id string, update models.IPOUpdate) (models.UpdateResult, error) {
	if !c.State().Editable() {
		return models.UpdateResult{}, ErrReadOnly
	}

	result, err := c.source.UpdateIPO(ctx, id, update)
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"ipo_id": id,
			"error":  err,
		}).Warn("Dashboard update failed")
		return result, err
	}

	c.Refresh(ctx)
	return result, nil
}

// Close cancels any pending debounced search
func (c *Controller) Close() {
	c.debouncer.Cancel()
}

func (c *Controller) publishLocked(vm ViewModel) {
	c.view = vm
	if c.onChange != nil {
		c.onChange(vm)
	}
}
