package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/aokihara/listing-engine/internal/csvio"
	"github.com/aokihara/listing-engine/internal/domain"
	"github.com/aokihara/listing-engine/internal/repository"
	"github.com/aokihara/listing-engine/internal/service"
)

const (
	defaultPage     = 1
	defaultPageSize = 50
	maxPageSize     = 100
)

type RunService interface {
	Start(ctx context.Context, items []domain.Item, opts service.StartOptions) (string, error)
	Cancel() error
	Snapshot() domain.RunState
	HistoryEnabled() bool
	History(ctx context.Context, params repository.ListParams) ([]domain.RunState, int64, error)
	HistoricalRun(ctx context.Context, runID string) (*domain.RunState, error)
}

// PortalConfig is the server-side sign-in material applied to every run.
// Request bodies never carry credentials.
type PortalConfig struct {
	Credentials domain.Credentials
	AccountName string
	Headless    bool
}

type RunHandler struct {
	service RunService
	portal  PortalConfig
}

func NewRunHandler(service RunService, portal PortalConfig) (*RunHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("run service is required")
	}
	return &RunHandler{service: service, portal: portal}, nil
}

func RegisterRunRoutes(router fiber.Router, service RunService, portal PortalConfig) error {
	h, err := NewRunHandler(service, portal)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/runs", h.StartRun)
	v1.Post("/runs/import", h.ImportRun)
	v1.Get("/runs/current", h.GetCurrentRun)
	v1.Post("/runs/current/cancel", h.CancelRun)
	v1.Get("/runs/current/results", h.GetCurrentResults)
	v1.Get("/runs/current/results.csv", h.ExportCurrentResults)

	if service.HistoryEnabled() {
		v1.Get("/runs", h.ListRuns)
		v1.Get("/runs/:id", h.GetRun)
	}

	return nil
}

type startRunRequest struct {
	Items       []domain.Item `json:"items"`
	AccountName string        `json:"accountName"`
	Headless    *bool         `json:"headless"`
}

type startRunResponse struct {
	RunID  string `json:"runId"`
	Status string `json:"status"`
	Total  int    `json:"total"`
}

type listRunsResponse struct {
	Data []domain.RunState `json:"data"`
	Meta listMeta          `json:"meta"`
}

type listMeta struct {
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
	Total    int64 `json:"total"`
}

func (h *RunHandler) StartRun(c *fiber.Ctx) error {
	var req startRunRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	return h.start(c, req.Items, req.AccountName, req.Headless)
}

func (h *RunHandler) ImportRun(c *fiber.Ctx) error {
	items, err := csvio.ReadItems(bytes.NewReader(c.Body()))
	if err != nil {
		return toHTTPError(err)
	}

	return h.start(c, items, c.Query("accountName"), nil)
}

func (h *RunHandler) start(c *fiber.Ctx, items []domain.Item, accountName string, headless *bool) error {
	opts := service.StartOptions{
		Credentials: h.portal.Credentials,
		AccountName: strings.TrimSpace(accountName),
		Headless:    h.portal.Headless,
	}
	if opts.AccountName == "" {
		opts.AccountName = h.portal.AccountName
	}
	if headless != nil {
		opts.Headless = *headless
	}

	runID, err := h.service.Start(c.Context(), items, opts)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusAccepted).JSON(startRunResponse{
		RunID:  runID,
		Status: domain.StatusRunning.String(),
		Total:  len(items),
	})
}

func (h *RunHandler) GetCurrentRun(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(h.service.Snapshot())
}

func (h *RunHandler) CancelRun(c *fiber.Ctx) error {
	if err := h.service.Cancel(); err != nil {
		return toHTTPError(err)
	}

	snap := h.service.Snapshot()
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"runId":           snap.RunID,
		"status":          snap.Status.String(),
		"cancelRequested": true,
	})
}

func (h *RunHandler) GetCurrentResults(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(h.service.Snapshot().Results)
}

func (h *RunHandler) ExportCurrentResults(c *fiber.Ctx) error {
	snap := h.service.Snapshot()

	var buf bytes.Buffer
	if err := csvio.WriteResults(&buf, snap.Results); err != nil {
		return err
	}

	filename := "results.csv"
	if snap.RunID != "" {
		filename = fmt.Sprintf("results-%s.csv", snap.RunID)
	}
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))

	return c.Status(fiber.StatusOK).Send(buf.Bytes())
}

func (h *RunHandler) ListRuns(c *fiber.Ctx) error {
	params, err := parseListParams(c)
	if err != nil {
		return toHTTPError(err)
	}

	runs, total, err := h.service.History(c.Context(), params)
	if err != nil {
		return toHTTPError(err)
	}

	if runs == nil {
		runs = []domain.RunState{}
	}

	return c.Status(fiber.StatusOK).JSON(listRunsResponse{
		Data: runs,
		Meta: listMeta{
			Page:     params.Page,
			PageSize: params.PageSize,
			Total:    total,
		},
	})
}

func (h *RunHandler) GetRun(c *fiber.Ctx) error {
	runID := strings.TrimSpace(c.Params("id"))
	run, err := h.service.HistoricalRun(c.Context(), runID)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(run)
}

func parseListParams(c *fiber.Ctx) (repository.ListParams, error) {
	params := repository.ListParams{
		Page:     c.QueryInt("page", defaultPage),
		PageSize: c.QueryInt("pageSize", defaultPageSize),
	}

	if params.Page < 1 {
		return repository.ListParams{}, fmt.Errorf("%w: page must be >= 1", domain.ErrValidation)
	}
	if params.PageSize < 1 || params.PageSize > maxPageSize {
		return repository.ListParams{}, fmt.Errorf("%w: pageSize must be between 1 and %d", domain.ErrValidation, maxPageSize)
	}

	if rawStatus := strings.TrimSpace(c.Query("status")); rawStatus != "" {
		status, err := domain.ParseRunStatusFromString(rawStatus)
		if err != nil {
			return repository.ListParams{}, err
		}
		params.Status = &status
	}

	from, err := parseRFC3339Query(c.Query("from"), "from")
	if err != nil {
		return repository.ListParams{}, err
	}
	to, err := parseRFC3339Query(c.Query("to"), "to")
	if err != nil {
		return repository.ListParams{}, err
	}
	params.From = from
	params.To = to

	return params, nil
}

func parseRFC3339Query(value string, field string) (*time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}

	t, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be RFC3339", domain.ErrValidation, field)
	}
	return &t, nil
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrAlreadyRunning), errors.Is(err, domain.ErrNotRunning):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return err
	}
}
