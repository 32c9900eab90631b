package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ondegooltd/sirahats-sub001/internal/domain"
	"github.com/ondegooltd/sirahats-sub001/internal/notify"
	"github.com/ondegooltd/sirahats-sub001/internal/repository"
)

type ContactInput struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"omitempty,max=30"`
	Subject string `json:"subject" validate:"max=200"`
	Message string `json:"message" validate:"required,max=5000"`
}

type WholesaleInput struct {
	BusinessName   string `json:"business_name" validate:"required,max=200"`
	Name           string `json:"name" validate:"required,max=100"`
	Email          string `json:"email" validate:"required,email"`
	Phone          string `json:"phone" validate:"required,max=30"`
	Country        string `json:"country" validate:"required,max=100"`
	ExpectedVolume string `json:"expected_volume" validate:"max=200"`
	Message        string `json:"message" validate:"max=5000"`
}

type LeadService struct {
	leads    repository.LeadRepository
	notifier Dispatcher
	inbox    string
	now      func() time.Time
}

func NewLeadService(leads repository.LeadRepository, notifier Dispatcher, inbox string) *LeadService {
	return &LeadService{leads: leads, notifier: notifier, inbox: inbox, now: time.Now}
}

func (s *LeadService) SubmitContact(ctx context.Context, in ContactInput) (*domain.Lead, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	return s.store(ctx, &domain.Lead{
		Kind:    domain.LeadKindContact,
		Name:    strings.TrimSpace(in.Name),
		Email:   normalizeEmail(in.Email),
		Phone:   strings.TrimSpace(in.Phone),
		Subject: strings.TrimSpace(in.Subject),
		Message: strings.TrimSpace(in.Message),
	})
}

func (s *LeadService) SubmitWholesale(ctx context.Context, in WholesaleInput) (*domain.Lead, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	return s.store(ctx, &domain.Lead{
		Kind:           domain.LeadKindWholesale,
		Name:           strings.TrimSpace(in.Name),
		Email:          normalizeEmail(in.Email),
		Phone:          strings.TrimSpace(in.Phone),
		Message:        strings.TrimSpace(in.Message),
		BusinessName:   strings.TrimSpace(in.BusinessName),
		Country:        strings.TrimSpace(in.Country),
		ExpectedVolume: strings.TrimSpace(in.ExpectedVolume),
	})
}

func (s *LeadService) store(ctx context.Context, lead *domain.Lead) (*domain.Lead, error) {
	lead.ID = uuid.NewString()
	lead.CreatedAt = s.now().UTC()
	if err := s.leads.CreateLead(ctx, lead); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "lead received", "lead_id", lead.ID, "kind", lead.Kind)

	if s.inbox != "" {
		s.notifier.Dispatch(ctx, notify.LeadReceived(lead, s.inbox))
	}
	return lead, nil
}

func (s *LeadService) ListLeads(ctx context.Context, kind domain.LeadKind, page domain.Pagination) (*Page[*domain.Lead], error) {
	if kind != "" && kind != domain.LeadKindContact && kind != domain.LeadKindWholesale {
		return nil, invalid("unknown lead kind %q", kind)
	}
	page = page.Normalize()
	leads, total, err := s.leads.ListLeads(ctx, kind, page)
	if err != nil {
		return nil, err
	}
	return &Page[*domain.Lead]{Items: leads, Pagination: domain.NewPageInfo(page, total)}, nil
}
