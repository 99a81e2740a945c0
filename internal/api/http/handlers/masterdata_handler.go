package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/trouble-tickets/internal/api/dto"
	"github.com/spec-kit/trouble-tickets/internal/domain"
	"github.com/spec-kit/trouble-tickets/internal/service"
	apperrors "github.com/spec-kit/trouble-tickets/pkg/util"
)

// MasterDataHandler exposes the reference tables tickets point at.
type MasterDataHandler struct {
	service *service.MasterDataService
}

// NewMasterDataHandler constructs handler.
func NewMasterDataHandler(masterData *service.MasterDataService) *MasterDataHandler {
	return &MasterDataHandler{service: masterData}
}

// CreateCustomer POST /customers.
func (h *MasterDataHandler) CreateCustomer(c *fiber.Ctx) error {
	var req dto.CreateCustomerRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	customer, err := h.service.CreateCustomer(c.UserContext(), service.CustomerInput{
		Name:     req.Name,
		Email:    req.Email,
		SLAHours: req.SLAHours,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": customerResponse(customer)})
}

// ListCustomers GET /customers.
func (h *MasterDataHandler) ListCustomers(c *fiber.Ctx) error {
	activeOnly := c.QueryBool("active", false)
	customers, err := h.service.ListCustomers(c.UserContext(), activeOnly, c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		return err
	}
	items := make([]dto.CustomerResponse, 0, len(customers))
	for i := range customers {
		items = append(items, customerResponse(&customers[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateCase POST /cases.
func (h *MasterDataHandler) CreateCase(c *fiber.Ctx) error {
	var req dto.CreateCaseRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	created, err := h.service.CreateCase(c.UserContext(), req.Name, req.Description)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": caseResponse(created)})
}

// ListCases GET /cases.
func (h *MasterDataHandler) ListCases(c *fiber.Ctx) error {
	cases, err := h.service.ListCases(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.CaseResponse, 0, len(cases))
	for i := range cases {
		items = append(items, caseResponse(&cases[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreatePendingReason POST /pending-reasons.
func (h *MasterDataHandler) CreatePendingReason(c *fiber.Ctx) error {
	return h.createReason(c, domain.ReasonKindPending)
}

// ListPendingReasons GET /pending-reasons.
func (h *MasterDataHandler) ListPendingReasons(c *fiber.Ctx) error {
	return h.listReasons(c, domain.ReasonKindPending)
}

// CreateClosingReason POST /closing-reasons.
func (h *MasterDataHandler) CreateClosingReason(c *fiber.Ctx) error {
	return h.createReason(c, domain.ReasonKindClosing)
}

// ListClosingReasons GET /closing-reasons.
func (h *MasterDataHandler) ListClosingReasons(c *fiber.Ctx) error {
	return h.listReasons(c, domain.ReasonKindClosing)
}

// CreateGroup POST /groups.
func (h *MasterDataHandler) CreateGroup(c *fiber.Ctx) error {
	var req dto.CreateGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	group, err := h.service.CreateGroup(c.UserContext(), req.Name, req.ViewAll)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": groupResponse(group)})
}

// ListGroups GET /groups.
func (h *MasterDataHandler) ListGroups(c *fiber.Ctx) error {
	groups, err := h.service.ListGroups(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.GroupResponse, 0, len(groups))
	for i := range groups {
		items = append(items, groupResponse(&groups[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func (h *MasterDataHandler) createReason(c *fiber.Ctx, kind domain.ReasonKind) error {
	var req dto.CreateReasonRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	reason, err := h.service.CreateReason(c.UserContext(), kind, req.Label)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": reasonResponse(reason)})
}

func (h *MasterDataHandler) listReasons(c *fiber.Ctx, kind domain.ReasonKind) error {
	reasons, err := h.service.ListReasons(c.UserContext(), kind)
	if err != nil {
		return err
	}
	items := make([]dto.ReasonResponse, 0, len(reasons))
	for i := range reasons {
		items = append(items, reasonResponse(&reasons[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func customerResponse(customer *domain.Customer) dto.CustomerResponse {
	return dto.CustomerResponse{
		ID:       customer.ID,
		Name:     customer.Name,
		Email:    customer.Email,
		SLAHours: customer.SLAHours,
		IsActive: customer.IsActive,
	}
}

func caseResponse(c *domain.Case) dto.CaseResponse {
	return dto.CaseResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		IsActive:    c.IsActive,
	}
}

func reasonResponse(r *domain.Reason) dto.ReasonResponse {
	return dto.ReasonResponse{
		ID:       r.ID,
		Label:    r.Label,
		IsActive: r.IsActive,
	}
}

func groupResponse(g *domain.Group) dto.GroupResponse {
	return dto.GroupResponse{
		ID:        g.ID,
		Name:      g.Name,
		ViewAll:   g.ViewAll,
		CreatedAt: g.CreatedAt,
	}
}
