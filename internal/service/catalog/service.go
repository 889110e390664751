package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/avitalak/salon-api/internal/model"
	"github.com/avitalak/salon-api/internal/repository"
	apperrors "github.com/avitalak/salon-api/pkg/errors"
)

const (
	cacheTTL      = 5 * time.Minute
	cacheCleanup  = 10 * time.Minute
	keyActiveList = "services:active"
	keyFullList   = "services:all"
)

// Service owns the treatment catalog. Reads go through a small in-process
// cache since the catalog changes rarely but is consulted on every booking
// and availability request. Any mutation flushes the whole cache.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Service, error)
	List(ctx context.Context, activeOnly bool) ([]*model.Service, error)
	Create(ctx context.Context, req *model.CreateServiceRequest) (*model.Service, error)
	Update(ctx context.Context, id uuid.UUID, req *model.UpdateServiceRequest) (*model.Service, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo  repository.ServiceRepository
	cache *gocache.Cache
}

func NewService(repo repository.ServiceRepository) Service {
	return &service{
		repo:  repo,
		cache: gocache.New(cacheTTL, cacheCleanup),
	}
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	key := "service:" + id.String()
	if cached, found := s.cache.Get(key); found {
		return cached.(*model.Service), nil
	}

	svc, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, svc, cacheTTL)
	return svc, nil
}

func (s *service) List(ctx context.Context, activeOnly bool) ([]*model.Service, error) {
	key := keyFullList
	if activeOnly {
		key = keyActiveList
	}
	if cached, found := s.cache.Get(key); found {
		return cached.([]*model.Service), nil
	}

	services, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, services, cacheTTL)
	return services, nil
}

func (s *service) Create(ctx context.Context, req *model.CreateServiceRequest) (*model.Service, error) {
	days, err := model.ParseDaySet(req.Days)
	if err != nil {
		return nil, apperrors.BadRequest("invalid available_days", err)
	}

	svc := &model.Service{
		Name:        req.Name,
		Description: req.Description,
		Duration:    req.Duration,
		Price:       req.Price,
		Category:    req.Category,
		Days:        days,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Active:      true,
	}
	if err := svc.Validate(); err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}

	if err := s.repo.Create(ctx, svc); err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}
	s.cache.Flush()
	return svc, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateServiceRequest) (*model.Service, error) {
	svc, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		svc.Name = *req.Name
	}
	if req.Description != nil {
		svc.Description = *req.Description
	}
	if req.Duration != nil {
		svc.Duration = *req.Duration
	}
	if req.Price != nil {
		svc.Price = *req.Price
	}
	if req.Category != nil {
		svc.Category = *req.Category
	}
	if req.Days != nil {
		days, err := model.ParseDaySet(*req.Days)
		if err != nil {
			return nil, apperrors.BadRequest("invalid available_days", err)
		}
		svc.Days = days
	}
	if req.StartTime != nil {
		svc.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		svc.EndTime = *req.EndTime
	}
	if req.Active != nil {
		svc.Active = *req.Active
	}
	if err := svc.Validate(); err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}

	if err := s.repo.Update(ctx, svc); err != nil {
		return nil, fmt.Errorf("failed to update service: %w", err)
	}
	s.cache.Flush()
	return svc, nil
}

// Delete removes a service outright only when it has never been booked.
// Services with appointment history are deactivated instead so existing
// bookings keep a valid reference.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	svc, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	count, err := s.repo.CountAppointments(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count appointments for service: %w", err)
	}

	if count > 0 {
		svc.Active = false
		if err := s.repo.Update(ctx, svc); err != nil {
			return fmt.Errorf("failed to deactivate service: %w", err)
		}
	} else if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete service: %w", err)
	}

	s.cache.Flush()
	return nil
}
