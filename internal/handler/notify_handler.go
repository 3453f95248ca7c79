package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/photo-dispatch/internal/domain"
	"github.com/kursadbilgin/photo-dispatch/internal/observability"
)

// NotifyPipeline runs the synchronous photo notification pipeline.
type NotifyPipeline interface {
	HandlePayload(ctx context.Context, payload []byte) domain.NotificationResult
}

// NotifyIntake accepts requests for asynchronous processing.
type NotifyIntake interface {
	EnqueuePayload(ctx context.Context, payload []byte) (string, domain.NotificationResult)
}

// AttemptLister reads the delivery audit trail.
type AttemptLister interface {
	ListBySession(ctx context.Context, sessionID string) ([]domain.DeliveryAttempt, error)
}

// NotifyRoutes holds the route dependencies. Intake and Attempts are optional;
// their routes are only mounted when set.
type NotifyRoutes struct {
	Pipeline NotifyPipeline
	Intake   NotifyIntake
	Attempts AttemptLister
}

type NotifyHandler struct {
	routes NotifyRoutes
}

func NewNotifyHandler(routes NotifyRoutes) (*NotifyHandler, error) {
	if routes.Pipeline == nil {
		return nil, fmt.Errorf("notify pipeline is required")
	}
	return &NotifyHandler{routes: routes}, nil
}

func RegisterNotifyRoutes(router fiber.Router, routes NotifyRoutes) error {
	h, err := NewNotifyHandler(routes)
	if err != nil {
		return err
	}

	// The function runtime posts straight to the root path.
	router.Post("/", h.Notify)

	v1 := router.Group("/v1")
	v1.Post("/photo-notifications", h.Notify)
	if routes.Intake != nil {
		v1.Post("/photo-notifications/async", h.NotifyAsync)
	}
	if routes.Attempts != nil {
		v1.Get("/photo-sessions/:sessionId/attempts", h.ListAttempts)
	}

	return nil
}

type resultResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

type attemptResponse struct {
	ID                string    `json:"id"`
	CorrelationID     string    `json:"correlationId,omitempty"`
	SessionID         string    `json:"photoSessionId"`
	Recipient         string    `json:"recipient"`
	Provider          string    `json:"provider"`
	PhotoCount        int       `json:"photoCount"`
	Outcome           string    `json:"outcome"`
	Category          string    `json:"category,omitempty"`
	StatusCode        *int      `json:"statusCode,omitempty"`
	ProviderMessageID *string   `json:"providerMessageId,omitempty"`
	Error             *string   `json:"error,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

type listAttemptsResponse struct {
	Data []attemptResponse `json:"data"`
}

func (h *NotifyHandler) Notify(c *fiber.Ctx) error {
	ctx := observability.WithCorrelationID(c.UserContext(), requestCorrelationID(c))
	result := h.routes.Pipeline.HandlePayload(ctx, c.Body())
	return c.Status(result.HTTPStatus()).JSON(toResultResponse(result))
}

func (h *NotifyHandler) NotifyAsync(c *fiber.Ctx) error {
	ctx := observability.WithCorrelationID(c.UserContext(), requestCorrelationID(c))
	requestID, result := h.routes.Intake.EnqueuePayload(ctx, c.Body())

	status := result.HTTPStatus()
	if result.Success {
		status = fiber.StatusAccepted
	}

	response := toResultResponse(result)
	response.RequestID = requestID
	return c.Status(status).JSON(response)
}

func (h *NotifyHandler) ListAttempts(c *fiber.Ctx) error {
	sessionID := strings.TrimSpace(c.Params("sessionId"))
	if sessionID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "photoSessionId is required")
	}

	attempts, err := h.routes.Attempts.ListBySession(c.UserContext(), sessionID)
	if err != nil {
		return toHTTPError(err)
	}

	data := make([]attemptResponse, 0, len(attempts))
	for _, a := range attempts {
		data = append(data, toAttemptResponse(a))
	}
	return c.Status(fiber.StatusOK).JSON(listAttemptsResponse{Data: data})
}

func requestCorrelationID(c *fiber.Ctx) string {
	if value := strings.TrimSpace(c.Get(fiber.HeaderXRequestID)); value != "" {
		return value
	}
	if value, ok := c.Locals("requestid").(string); ok {
		return strings.TrimSpace(value)
	}
	return ""
}

func toResultResponse(result domain.NotificationResult) resultResponse {
	return resultResponse{
		Success: result.Success,
		Message: result.Message,
		Details: result.Details,
	}
}

func toAttemptResponse(a domain.DeliveryAttempt) attemptResponse {
	return attemptResponse{
		ID:                a.ID,
		CorrelationID:     a.CorrelationID,
		SessionID:         a.SessionID,
		Recipient:         observability.MaskEmail(a.Recipient),
		Provider:          a.Provider,
		PhotoCount:        a.PhotoCount,
		Outcome:           a.Outcome.String(),
		Category:          a.Category.String(),
		StatusCode:        a.StatusCode,
		ProviderMessageID: a.ProviderMessageID,
		Error:             a.Error,
		CreatedAt:         a.CreatedAt,
	}
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	default:
		return err
	}
}
