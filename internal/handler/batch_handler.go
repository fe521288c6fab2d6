package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fleethr/recruit-review/internal/domain"
	"github.com/fleethr/recruit-review/internal/repository"
	"github.com/fleethr/recruit-review/internal/service"
	"github.com/gofiber/fiber/v2"
)

const (
	defaultPage     = 1
	defaultPageSize = 50
	maxPageSize     = 100
)

type BatchService interface {
	Create(ctx context.Context, input service.CreateBatchInput) (*domain.Batch, error)
	Get(ctx context.Context, id string) (*domain.Batch, error)
	List(ctx context.Context, params repository.ListParams) ([]domain.Batch, int64, error)
	ListBySubmitter(ctx context.Context, submitterID string) ([]domain.Batch, error)
	Update(ctx context.Context, id string, input service.UpdateBatchInput) (*domain.Batch, error)
	SetStatus(ctx context.Context, id string, rawStatus string, expectedRevision *int64) (*domain.Batch, error)
	Delete(ctx context.Context, id string) error
}

type BatchHandler struct {
	service    BatchService
	deliveries repository.DeliveryRepository
}

func NewBatchHandler(service BatchService, deliveries repository.DeliveryRepository) (*BatchHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("batch service is required")
	}
	return &BatchHandler{service: service, deliveries: deliveries}, nil
}

func RegisterBatchRoutes(router fiber.Router, service BatchService, deliveries repository.DeliveryRepository) error {
	h, err := NewBatchHandler(service, deliveries)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/batches", h.CreateBatch)
	v1.Get("/batches", h.ListBatches)
	v1.Get("/batches/:batchId", h.GetBatch)
	v1.Patch("/batches/:batchId", h.UpdateBatch)
	v1.Post("/batches/:batchId/status", h.SetBatchStatus)
	v1.Delete("/batches/:batchId", h.DeleteBatch)
	v1.Get("/batches/:batchId/deliveries", h.ListBatchDeliveries)
	v1.Get("/submitters/:submitterId/batches", h.ListSubmitterBatches)

	return nil
}

type createBatchRequest struct {
	Name        string `json:"name"`
	AssignedTo  string `json:"assignedTo"`
	SubmittedBy string `json:"submittedBy"`
	Status      string `json:"status,omitempty"`
}

type updateBatchRequest struct {
	Name       *string `json:"name,omitempty"`
	AssignedTo *string `json:"assignedTo,omitempty"`
	Status     *string `json:"status,omitempty"`
}

type setBatchStatusRequest struct {
	Status   string `json:"status"`
	Revision *int64 `json:"revision,omitempty"`
}

type batchResponse struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Status       string              `json:"status"`
	AssignedTo   string              `json:"assignedTo"`
	SubmittedBy  string              `json:"submittedBy"`
	Revision     int64               `json:"revision"`
	Members      []candidateResponse `json:"members,omitempty"`
	CreatedAt    time.Time           `json:"createdAt"`
	LastEditedAt time.Time           `json:"lastEditedAt"`
}

type listBatchesResponse struct {
	Data []batchResponse `json:"data"`
	Meta listMeta        `json:"meta"`
}

type listMeta struct {
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
	Total    int64 `json:"total"`
}

type deliveryResponse struct {
	ID         string    `json:"id"`
	EventID    string    `json:"eventId"`
	EventKind  string    `json:"eventKind"`
	StatusCode *int      `json:"statusCode,omitempty"`
	Error      *string   `json:"error,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (h *BatchHandler) CreateBatch(c *fiber.Ctx) error {
	var req createBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	batch, err := h.service.Create(c.Context(), service.CreateBatchInput{
		Name:        req.Name,
		AssignedTo:  req.AssignedTo,
		SubmittedBy: req.SubmittedBy,
		Status:      req.Status,
	})
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(toBatchResponse(batch))
}

func (h *BatchHandler) GetBatch(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("batchId"))
	batch, err := h.service.Get(c.Context(), id)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toBatchResponse(batch))
}

func (h *BatchHandler) ListBatches(c *fiber.Ctx) error {
	params, err := parseListParams(c)
	if err != nil {
		return toHTTPError(err)
	}

	batches, total, err := h.service.List(c.Context(), params)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(listBatchesResponse{
		Data: toBatchResponses(batches),
		Meta: listMeta{
			Page:     params.Page,
			PageSize: params.PageSize,
			Total:    total,
		},
	})
}

func (h *BatchHandler) ListSubmitterBatches(c *fiber.Ctx) error {
	submitterID := strings.TrimSpace(c.Params("submitterId"))
	batches, err := h.service.ListBySubmitter(c.Context(), submitterID)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"data": toBatchResponses(batches),
	})
}

func (h *BatchHandler) UpdateBatch(c *fiber.Ctx) error {
	var req updateBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	id := strings.TrimSpace(c.Params("batchId"))
	batch, err := h.service.Update(c.Context(), id, service.UpdateBatchInput{
		Name:       req.Name,
		AssignedTo: req.AssignedTo,
		Status:     req.Status,
	})
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toBatchResponse(batch))
}

func (h *BatchHandler) SetBatchStatus(c *fiber.Ctx) error {
	var req setBatchStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	id := strings.TrimSpace(c.Params("batchId"))
	batch, err := h.service.SetStatus(c.Context(), id, req.Status, req.Revision)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toBatchResponse(batch))
}

func (h *BatchHandler) DeleteBatch(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("batchId"))
	if err := h.service.Delete(c.Context(), id); err != nil {
		return toHTTPError(err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *BatchHandler) ListBatchDeliveries(c *fiber.Ctx) error {
	if h.deliveries == nil {
		return fiber.NewError(fiber.StatusNotFound, "delivery log is not enabled")
	}

	batchID := strings.TrimSpace(c.Params("batchId"))
	deliveries, err := h.deliveries.ListByBatch(c.Context(), batchID)
	if err != nil {
		return toHTTPError(err)
	}

	items := make([]deliveryResponse, 0, len(deliveries))
	for _, d := range deliveries {
		items = append(items, deliveryResponse{
			ID:         d.ID,
			EventID:    d.EventID,
			EventKind:  d.EventKind,
			StatusCode: d.StatusCode,
			Error:      d.Error,
			CreatedAt:  d.CreatedAt,
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"data": items,
	})
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
		status, err := domain.ParseBatchStatusFromString(rawStatus)
		if err != nil {
			return repository.ListParams{}, err
		}
		params.Status = &status
	}

	if rawRole := strings.TrimSpace(c.Query("assignedTo")); rawRole != "" {
		role, err := domain.ParseReviewerRoleFromString(rawRole)
		if err != nil {
			return repository.ListParams{}, err
		}
		params.AssignedTo = &role
	}

	if submitter := strings.TrimSpace(c.Query("submittedBy")); submitter != "" {
		params.SubmittedBy = &submitter
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

func toBatchResponses(batches []domain.Batch) []batchResponse {
	responses := make([]batchResponse, 0, len(batches))
	for _, batch := range batches {
		b := batch
		responses = append(responses, toBatchResponse(&b))
	}
	return responses
}

func toBatchResponse(b *domain.Batch) batchResponse {
	if b == nil {
		return batchResponse{}
	}

	return batchResponse{
		ID:           b.ID,
		Name:         b.Name,
		Status:       b.Status.String(),
		AssignedTo:   b.AssignedTo.String(),
		SubmittedBy:  b.SubmittedBy,
		Revision:     b.Revision,
		Members:      toCandidateResponses(b.Members),
		CreatedAt:    b.CreatedAt,
		LastEditedAt: b.LastEditedAt,
	}
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInvalidStatus):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrReviewConflict):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return err
	}
}
