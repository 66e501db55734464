package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"railbite/internal/auth"
	"railbite/models"
	"railbite/repository"
)

// MenuService manages the menu catalog. Orders snapshot menu lines and never reference them.
type MenuService struct {
	store *repository.Store
}

func NewMenuService(store *repository.Store) *MenuService {
	return &MenuService{store: store}
}

type MenuItemInput struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Available   *bool           `json:"available"`
}

func (in MenuItemInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return Validation("name is required")
	}
	if in.Price.IsNegative() {
		return Validation("price must not be negative")
	}
	return nil
}

func (s *MenuService) List(ctx context.Context, onlyAvailable bool) ([]models.MenuItem, error) {
	return s.store.Menu.List(ctx, onlyAvailable)
}

func (s *MenuService) Create(ctx context.Context, actor auth.Principal, in MenuItemInput) (*models.MenuItem, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	m := &models.MenuItem{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		Price:       in.Price,
		Available:   in.Available == nil || *in.Available,
	}
	return s.store.Menu.Create(ctx, m)
}

func (s *MenuService) Update(ctx context.Context, actor auth.Principal, id int64, in MenuItemInput) (*models.MenuItem, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	m, err := s.store.Menu.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrMenuItemNotFound
	}
	m.Name = strings.TrimSpace(in.Name)
	m.Description = strings.TrimSpace(in.Description)
	m.Category = strings.TrimSpace(in.Category)
	m.Price = in.Price
	if in.Available != nil {
		m.Available = *in.Available
	}
	if err := s.store.Menu.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *MenuService) Delete(ctx context.Context, actor auth.Principal, id int64) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	m, err := s.store.Menu.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if m == nil {
		return ErrMenuItemNotFound
	}
	return s.store.Menu.Delete(ctx, id)
}
