package service

import (
	"context"
	"strings"

	"github.com/spec-kit/trouble-tickets/internal/domain"
	"github.com/spec-kit/trouble-tickets/internal/repository"
	apperrors "github.com/spec-kit/trouble-tickets/pkg/util"
)

// MasterDataService manages the reference tables tickets point at:
// customers, cases, pending reasons, closing reasons. Create and list only;
// these records carry no lifecycle logic.
type MasterDataService struct {
	customers repository.CustomerRepository
	cases     repository.CaseRepository
	reasons   repository.ReasonRepository
	groups    repository.GroupRepository
}

// MasterDataDependencies bundles repositories.
type MasterDataDependencies struct {
	CustomerRepo repository.CustomerRepository
	CaseRepo     repository.CaseRepository
	ReasonRepo   repository.ReasonRepository
	GroupRepo    repository.GroupRepository
}

// CustomerInput describes customer creation payload.
type CustomerInput struct {
	Name     string
	Email    string
	SLAHours int
}

// NewMasterDataService constructs the service.
func NewMasterDataService(deps MasterDataDependencies) *MasterDataService {
	return &MasterDataService{
		customers: deps.CustomerRepo,
		cases:     deps.CaseRepo,
		reasons:   deps.ReasonRepo,
		groups:    deps.GroupRepo,
	}
}

// CreateCustomer registers a customer with its SLA response window.
func (s *MasterDataService) CreateCustomer(ctx context.Context, input CustomerInput) (*domain.Customer, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.NewMissingRequiredField("name")
	}
	if input.SLAHours <= 0 {
		return nil, apperrors.NewValidationError("sla_hours must be a positive integer",
			map[string]any{"sla_hours": input.SLAHours})
	}

	customer := &domain.Customer{
		Name:     strings.TrimSpace(input.Name),
		Email:    strings.ToLower(strings.TrimSpace(input.Email)),
		SLAHours: input.SLAHours,
		IsActive: true,
	}
	if err := s.customers.Create(ctx, customer); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConstraintViolation("customer email already exists",
				map[string]any{"email": customer.Email})
		}
		return nil, apperrors.MapError(err)
	}
	return customer, nil
}

// ListCustomers lists customers, optionally only active ones.
func (s *MasterDataService) ListCustomers(ctx context.Context, activeOnly bool, limit, offset int) ([]domain.Customer, error) {
	filter := repository.CustomerFilter{Limit: limit, Offset: offset}
	if activeOnly {
		active := true
		filter.Active = &active
	}
	customers, err := s.customers.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return customers, nil
}

// CreateCase registers a case classification.
func (s *MasterDataService) CreateCase(ctx context.Context, name, description string) (*domain.Case, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperrors.NewMissingRequiredField("name")
	}
	c := &domain.Case{
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		IsActive:    true,
	}
	if err := s.cases.Create(ctx, c); err != nil {
		return nil, apperrors.MapError(err)
	}
	return c, nil
}

// ListCases lists case classifications.
func (s *MasterDataService) ListCases(ctx context.Context) ([]domain.Case, error) {
	cases, err := s.cases.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return cases, nil
}

// CreateReason registers a pending or closing reason.
func (s *MasterDataService) CreateReason(ctx context.Context, kind domain.ReasonKind, label string) (*domain.Reason, error) {
	if strings.TrimSpace(label) == "" {
		return nil, apperrors.NewMissingRequiredField("label")
	}
	reason := &domain.Reason{
		Kind:     kind,
		Label:    strings.TrimSpace(label),
		IsActive: true,
	}
	if err := s.reasons.Create(ctx, reason); err != nil {
		return nil, apperrors.MapError(err)
	}
	return reason, nil
}

// ListReasons lists reasons of one kind.
func (s *MasterDataService) ListReasons(ctx context.Context, kind domain.ReasonKind) ([]domain.Reason, error) {
	reasons, err := s.reasons.List(ctx, kind)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return reasons, nil
}

// CreateGroup registers a user group.
func (s *MasterDataService) CreateGroup(ctx context.Context, name string, viewAll bool) (*domain.Group, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperrors.NewMissingRequiredField("name")
	}
	group := &domain.Group{Name: strings.TrimSpace(name), ViewAll: viewAll}
	if err := s.groups.Create(ctx, group); err != nil {
		return nil, apperrors.MapError(err)
	}
	return group, nil
}

// ListGroups lists user groups.
func (s *MasterDataService) ListGroups(ctx context.Context) ([]domain.Group, error) {
	groups, err := s.groups.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return groups, nil
}
