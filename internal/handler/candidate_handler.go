package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fleethr/recruit-review/internal/domain"
	"github.com/fleethr/recruit-review/internal/service"
	"github.com/gofiber/fiber/v2"
)

type CandidateService interface {
	Create(ctx context.Context, input service.CandidateInput) (*domain.Candidate, error)
	AddToBatch(ctx context.Context, batchID string, input service.CandidateInput) (*domain.Candidate, error)
	RemoveFromBatch(ctx context.Context, batchID string, candidateID string) error
	Get(ctx context.Context, id string) (*domain.Candidate, error)
	ListByBatch(ctx context.Context, batchID string) ([]domain.Candidate, error)
	UpdateStatus(ctx context.Context, id string, rawStatus string, reviewerID string) (*domain.Candidate, error)
	UpdateFields(ctx context.Context, id string, input service.CandidateFieldsInput) (*domain.Candidate, error)
	Delete(ctx context.Context, id string) error
}

type CandidateHandler struct {
	service CandidateService
}

func NewCandidateHandler(service CandidateService) (*CandidateHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("candidate service is required")
	}
	return &CandidateHandler{service: service}, nil
}

func RegisterCandidateRoutes(router fiber.Router, service CandidateService) error {
	h, err := NewCandidateHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/candidates", h.CreateCandidate)
	v1.Get("/candidates/:id", h.GetCandidate)
	v1.Patch("/candidates/:id", h.UpdateCandidateFields)
	v1.Post("/candidates/:id/status", h.UpdateCandidateStatus)
	v1.Delete("/candidates/:id", h.DeleteCandidate)
	v1.Post("/batches/:batchId/candidates", h.AddCandidateToBatch)
	v1.Get("/batches/:batchId/candidates", h.ListBatchCandidates)
	v1.Delete("/batches/:batchId/candidates/:id", h.RemoveCandidateFromBatch)

	return nil
}

type candidateRequest struct {
	Name          string  `json:"name"`
	Contact       string  `json:"contact"`
	Email         string  `json:"email,omitempty"`
	Department    string  `json:"department,omitempty"`
	Location      string  `json:"location"`
	IsDuplicate   bool    `json:"isDuplicate,omitempty"`
	DuplicateOfID *string `json:"duplicateOfId,omitempty"`
}

type candidateFieldsRequest struct {
	Name       *string `json:"name,omitempty"`
	Contact    *string `json:"contact,omitempty"`
	Email      *string `json:"email,omitempty"`
	Department *string `json:"department,omitempty"`
	Location   *string `json:"location,omitempty"`
}

type candidateStatusRequest struct {
	Status     string `json:"status"`
	ReviewerID string `json:"reviewerId"`
}

type candidateResponse struct {
	ID            string     `json:"id"`
	BatchID       *string    `json:"batchId,omitempty"`
	Name          string     `json:"name"`
	Contact       string     `json:"contact"`
	Email         string     `json:"email,omitempty"`
	Department    string     `json:"department,omitempty"`
	Location      string     `json:"location"`
	Status        string     `json:"status"`
	IsDuplicate   bool       `json:"isDuplicate"`
	DuplicateOfID *string    `json:"duplicateOfId,omitempty"`
	ReviewedBy    *string    `json:"reviewedBy,omitempty"`
	ReviewDate    *time.Time `json:"reviewDate,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	LastEditedAt  time.Time  `json:"lastEditedAt"`
}

func (h *CandidateHandler) CreateCandidate(c *fiber.Ctx) error {
	var req candidateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	candidate, err := h.service.Create(c.Context(), candidateInputFromRequest(req))
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(toCandidateResponse(candidate))
}

func (h *CandidateHandler) AddCandidateToBatch(c *fiber.Ctx) error {
	var req candidateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	batchID := strings.TrimSpace(c.Params("batchId"))
	candidate, err := h.service.AddToBatch(c.Context(), batchID, candidateInputFromRequest(req))
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(toCandidateResponse(candidate))
}

func (h *CandidateHandler) RemoveCandidateFromBatch(c *fiber.Ctx) error {
	batchID := strings.TrimSpace(c.Params("batchId"))
	candidateID := strings.TrimSpace(c.Params("id"))

	if err := h.service.RemoveFromBatch(c.Context(), batchID, candidateID); err != nil {
		return toHTTPError(err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *CandidateHandler) GetCandidate(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	candidate, err := h.service.Get(c.Context(), id)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toCandidateResponse(candidate))
}

func (h *CandidateHandler) ListBatchCandidates(c *fiber.Ctx) error {
	batchID := strings.TrimSpace(c.Params("batchId"))
	candidates, err := h.service.ListByBatch(c.Context(), batchID)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"data": toCandidateResponses(candidates),
	})
}

func (h *CandidateHandler) UpdateCandidateFields(c *fiber.Ctx) error {
	var req candidateFieldsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	id := strings.TrimSpace(c.Params("id"))
	candidate, err := h.service.UpdateFields(c.Context(), id, service.CandidateFieldsInput{
		Name:       req.Name,
		Contact:    req.Contact,
		Email:      req.Email,
		Department: req.Department,
		Location:   req.Location,
	})
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toCandidateResponse(candidate))
}

func (h *CandidateHandler) UpdateCandidateStatus(c *fiber.Ctx) error {
	var req candidateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	id := strings.TrimSpace(c.Params("id"))
	candidate, err := h.service.UpdateStatus(c.Context(), id, req.Status, req.ReviewerID)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toCandidateResponse(candidate))
}

func (h *CandidateHandler) DeleteCandidate(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	if err := h.service.Delete(c.Context(), id); err != nil {
		return toHTTPError(err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func candidateInputFromRequest(req candidateRequest) service.CandidateInput {
	return service.CandidateInput{
		Name:          req.Name,
		Contact:       req.Contact,
		Email:         req.Email,
		Department:    req.Department,
		Location:      req.Location,
		IsDuplicate:   req.IsDuplicate,
		DuplicateOfID: req.DuplicateOfID,
	}
}

func toCandidateResponses(candidates []domain.Candidate) []candidateResponse {
	responses := make([]candidateResponse, 0, len(candidates))
	for _, candidate := range candidates {
		cnd := candidate
		responses = append(responses, toCandidateResponse(&cnd))
	}
	return responses
}

func toCandidateResponse(c *domain.Candidate) candidateResponse {
	if c == nil {
		return candidateResponse{}
	}

	return candidateResponse{
		ID:            c.ID,
		BatchID:       c.BatchID,
		Name:          c.Name,
		Contact:       c.Contact,
		Email:         c.Email,
		Department:    c.Department,
		Location:      c.Location,
		Status:        c.Status.String(),
		IsDuplicate:   c.IsDuplicate,
		DuplicateOfID: c.DuplicateOfID,
		ReviewedBy:    c.ReviewedBy,
		ReviewDate:    c.ReviewDate,
		CreatedAt:     c.CreatedAt,
		LastEditedAt:  c.LastEditedAt,
	}
}
