package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/trouble-tickets/internal/api/dto"
	"github.com/spec-kit/trouble-tickets/internal/auth"
	"github.com/spec-kit/trouble-tickets/internal/domain"
	"github.com/spec-kit/trouble-tickets/internal/service"
	apperrors "github.com/spec-kit/trouble-tickets/pkg/util"
)

// TicketsHandler exposes the lifecycle engine over HTTP. It resolves the
// actor from the request context and forwards an explicit actor ID to every
// engine call.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// Create POST /tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.CustomerID == 0 || strings.TrimSpace(req.Title) == "" {
		return apperrors.NewValidationError("customer_id and title required", nil)
	}

	ticket, err := h.service.Create(c.UserContext(), actor.ID, service.TicketCreateInput{
		CustomerID:    req.CustomerID,
		Title:         req.Title,
		Description:   req.Description,
		Priority:      req.Priority,
		AssignedTo:    req.AssignedTo,
		CaseID:        req.CaseID,
		ScheduledDate: req.ScheduledDate,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// List GET /tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	filter := parseTicketQuery(c)
	tickets, err := h.service.ListVisible(c.UserContext(), actor, filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	id, err := ticketID(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.GetVisible(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// History GET /tickets/:id/history.
func (h *TicketsHandler) History(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	id, err := ticketID(c)
	if err != nil {
		return err
	}
	limit := c.QueryInt("limit", 100)
	offset := c.QueryInt("offset", 0)
	entries, err := h.service.ListHistory(c.UserContext(), actor, id, limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.TicketHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.TicketHistoryResponse{
			ID:           entry.ID,
			ChangedBy:    entry.ChangedBy,
			Field:        entry.Field,
			OldValue:     entry.OldValue,
			NewValue:     entry.NewValue,
			ChangeReason: entry.ChangeReason,
			CreatedAt:    entry.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// SetPending POST /tickets/:id/pending.
func (h *TicketsHandler) SetPending(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	id, err := ticketID(c)
	if err != nil {
		return err
	}
	var req dto.SetPendingRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.SetPending(c.UserContext(), actor.ID, id, req.ReasonID, req.ChangeReason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// Resume POST /tickets/:id/resume.
func (h *TicketsHandler) Resume(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	id, err := ticketID(c)
	if err != nil {
		return err
	}
	var req dto.ResumeRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.Resume(c.UserContext(), actor.ID, id, req.ChangeReason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// Resolve POST /tickets/:id/resolve.
func (h *TicketsHandler) Resolve(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	id, err := ticketID(c)
	if err != nil {
		return err
	}
	var req dto.ResolveRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.Resolve(c.UserContext(), actor.ID, id, req.ChangeReason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// Close POST /tickets/:id/close.
func (h *TicketsHandler) Close(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	id, err := ticketID(c)
	if err != nil {
		return err
	}
	var req dto.CloseRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.Close(c.UserContext(), actor.ID, id, req.ReasonID, req.ChangeReason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// Schedule POST /tickets/:id/schedule.
func (h *TicketsHandler) Schedule(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	id, err := ticketID(c)
	if err != nil {
		return err
	}
	var req dto.ScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ScheduledDate.IsZero() {
		return apperrors.NewMissingRequiredField("scheduled_date")
	}
	ticket, err := h.service.Schedule(c.UserContext(), actor.ID, id, req.ScheduledDate, req.ChangeReason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// Assign POST /tickets/:id/assign.
func (h *TicketsHandler) Assign(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	id, err := ticketID(c)
	if err != nil {
		return err
	}
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.Assign(c.UserContext(), actor.ID, id, req.AssignedTo, req.ChangeReason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

func ticketID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid ticket id", nil)
	}
	return id, nil
}

func parseTicketQuery(c *fiber.Ctx) service.TicketListFilter {
	filter := service.TicketListFilter{
		Limit:  c.QueryInt("limit", 20),
		Offset: c.QueryInt("offset", 0),
	}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.TicketStatus(strings.TrimSpace(part)))
		}
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		for _, part := range strings.Split(priorityStr, ",") {
			filter.Priorities = append(filter.Priorities, domain.TicketPriority(strings.TrimSpace(part)))
		}
	}
	if v, err := strconv.ParseInt(c.Query("customer_id"), 10, 64); err == nil && v > 0 {
		filter.CustomerID = &v
	}
	if v, err := strconv.ParseInt(c.Query("assigned_to"), 10, 64); err == nil && v > 0 {
		filter.AssignedTo = &v
	}
	if from := parseTime(c.Query("created_from")); from != nil {
		filter.CreatedFrom = from
	}
	if to := parseTime(c.Query("created_to")); to != nil {
		filter.CreatedTo = to
	}
	return filter
}

func parseTime(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	return &parsed
}

func ticketResponse(t *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:              t.ID,
		TicketNumber:    t.TicketNumber,
		CustomerID:      t.CustomerID,
		AssignedTo:      t.AssignedTo,
		CreatedBy:       t.CreatedBy,
		CaseID:          t.CaseID,
		PendingReasonID: t.PendingReasonID,
		ClosingReasonID: t.ClosingReasonID,
		Title:           t.Title,
		Description:     t.Description,
		Status:          t.Status,
		Priority:        t.Priority,
		ScheduledDate:   t.ScheduledDate,
		SLADueDate:      t.SLADueDate,
		ResolvedAt:      t.ResolvedAt,
		ClosedAt:        t.ClosedAt,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}
