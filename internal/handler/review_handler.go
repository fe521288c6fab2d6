package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fleethr/recruit-review/internal/service"
	"github.com/gofiber/fiber/v2"
)

type ReviewService interface {
	Submit(ctx context.Context, input service.SubmitReviewInput) (*service.ReviewResult, error)
}

type ReviewHandler struct {
	service ReviewService
}

func NewReviewHandler(service ReviewService) (*ReviewHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("review service is required")
	}
	return &ReviewHandler{service: service}, nil
}

func RegisterReviewRoutes(router fiber.Router, service ReviewService) error {
	h, err := NewReviewHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/batches/:batchId/review", h.SubmitReview)

	return nil
}

type submitReviewRequest struct {
	ReviewerID   string   `json:"reviewerId"`
	ApprovedIDs  []string `json:"approvedIds"`
	Revision     *int64   `json:"revision,omitempty"`
	ConfirmToken string   `json:"confirmToken,omitempty"`
}

type submitReviewResponse struct {
	Batch    batchResponse `json:"batch"`
	Approved int           `json:"approved"`
	Rejected int           `json:"rejected"`
}

func (h *ReviewHandler) SubmitReview(c *fiber.Ctx) error {
	var req submitReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Submit(c.Context(), service.SubmitReviewInput{
		BatchID:      strings.TrimSpace(c.Params("batchId")),
		ReviewerID:   req.ReviewerID,
		ApprovedIDs:  req.ApprovedIDs,
		Revision:     req.Revision,
		ConfirmToken: req.ConfirmToken,
	})
	if err != nil {
		var confirm *service.ConfirmationRequiredError
		if errors.As(err, &confirm) {
			return c.Status(fiber.StatusPreconditionRequired).JSON(fiber.Map{
				"error":      "all members would be rejected, re-submit with the stage token to confirm",
				"batchId":    confirm.BatchID,
				"stageToken": confirm.StageToken,
			})
		}

		var partial *service.PartialReviewError
		if errors.As(err, &partial) {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":              partial.Error(),
				"batchId":            partial.BatchID,
				"failedCandidateIds": partial.FailedIDs(),
				"total":              partial.Total,
			})
		}

		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(submitReviewResponse{
		Batch:    toBatchResponse(result.Batch),
		Approved: result.Approved,
		Rejected: result.Rejected,
	})
}
