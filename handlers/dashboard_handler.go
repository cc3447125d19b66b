package handlers

import (
	"bytes"
	"errors"
	"net/url"
	"strconv"

	"github.com/fenilmodi00/ipo-tracker/dashboard"
	"github.com/fenilmodi00/ipo-tracker/models"
	"github.com/fenilmodi00/ipo-tracker/services"
	"github.com/fenilmodi00/ipo-tracker/shared"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// DashboardHandler serves the server-rendered dashboard and its edit form posts
type DashboardHandler struct {
	Lister   services.IPOLister
	Updater  *services.UpdateService
	Renderer *dashboard.Renderer
	Options  dashboard.RenderOptions
	logger   *logrus.Entry
}

func NewDashboardHandler(lister services.IPOLister, updater *services.UpdateService, renderer *dashboard.Renderer, opts dashboard.RenderOptions) *DashboardHandler {
	if opts.BasePath == "" {
		opts.BasePath = "/"
	}
	if opts.ActionPrefix == "" {
		opts.ActionPrefix = "/dashboard/ipos/"
	}
	if opts.Limit < 1 {
		opts.Limit = dashboard.DefaultLimit
	}
	return &DashboardHandler{
		Lister:   lister,
		Updater:  updater,
		Renderer: renderer,
		Options:  opts,
		logger:   logrus.WithField("component", "dashboard_handler"),
	}
}

// Show renders the page selected by the tab, page and search query parameters
func (h *DashboardHandler) Show(c *fiber.Ctx) error {
	state := dashboard.StateFromQuery(queryValues(c))

	page, err := h.Lister.ListIPOs(c.UserContext(), state.Params(h.Options.Limit))
	if err != nil {
		h.logger.WithError(err).Warn("Failed to load dashboard page")
	}

	vm := dashboard.BuildView(state, page, false, err)
	vm.Notice = c.Query("notice")

	var buf bytes.Buffer
	if err := h.Renderer.Render(&buf, vm, h.Options); err != nil {
		h.logger.WithError(err).Error("Failed to render dashboard")
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to render dashboard")
	}

	status := fiber.StatusOK
	if vm.RenderState == dashboard.RenderError {
		status = fiber.StatusInternalServerError
	}
	c.Type("html", "utf-8")
	return c.Status(status).Send(buf.Bytes())
}

// Update applies one dashboard control change and redirects back to the page it came from
func (h *DashboardHandler) Update(c *fiber.Ctx) error {
	id := c.Params("id")
	state := dashboard.StateFromQuery(queryValues(c))
	back := dashboard.BuildQuery(state, h.Options.Limit)

	if !state.Editable() {
		return h.redirect(c, back, dashboard.ErrReadOnly.Error())
	}

	update, err := formUpdate(c)
	if err != nil {
		return h.redirect(c, back, "Invalid request body")
	}
	update.Source = services.SourceDashboard

	if _, err := h.Updater.UpdateIPO(c.UserContext(), id, update); err != nil {
		return h.redirect(c, back, noticeFor(err))
	}
	return h.redirect(c, back, "")
}

func (h *DashboardHandler) redirect(c *fiber.Ctx, values url.Values, notice string) error {
	if notice != "" {
		values.Set("notice", notice)
	}
	return c.Redirect(h.Options.BasePath+"?"+values.Encode(), fiber.StatusSeeOther)
}

// formUpdate reads the control fields that were actually posted
func formUpdate(c *fiber.Ctx) (models.IPOUpdate, error) {
	var update models.IPOUpdate
	args := c.Request().PostArgs()

	if args.Has("Recommendation") {
		rec := models.Recommendation(args.Peek("Recommendation"))
		update.Recommendation = &rec
	}
	if args.Has("apply_for_listing_gain") {
		apply, err := strconv.ParseBool(string(args.Peek("apply_for_listing_gain")))
		if err != nil {
			return update, err
		}
		update.ApplyForListingGain = &apply
	}
	return update, nil
}

func noticeFor(err error) string {
	switch {
	case errors.Is(err, shared.ErrInvalidInput):
		return errorMessage(err)
	case errors.Is(err, shared.ErrNotFound):
		return services.MsgIPONotFound
	default:
		return services.MsgUpdateFailed
	}
}

func queryValues(c *fiber.Ctx) url.Values {
	values, err := url.ParseQuery(string(c.Request().URI().QueryString()))
	if err != nil {
		return url.Values{}
	}
	return values
}
