package branches

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/shinwarieats/restaurant-backend/internal/products"
	dbpkg "github.com/shinwarieats/restaurant-backend/pkg/db"
	"github.com/shinwarieats/restaurant-backend/pkg/db/models"
	"github.com/shinwarieats/restaurant-backend/pkg/errors"
)

// selection TTL matches a browsing session rather than an account lifetime
const selectionTTL = 30 * 24 * time.Hour

// SelectionStore persists which branch a user is ordering from.
type SelectionStore interface {
	StoreBranchSelection(ctx context.Context, userID, branchID string, ttl time.Duration) error
	GetBranchSelection(ctx context.Context, userID string) (string, error)
	ClearBranchSelection(ctx context.Context, userID string) error
}

// Service defines branch operations, including per-user branch selection.
type Service interface {
	List(ctx context.Context, activeOnly bool) ([]models.Branch, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Branch, error)
	Create(ctx context.Context, input CreateBranchInput) (*models.Branch, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateBranchInput) (*models.Branch, error)
	Select(ctx context.Context, userID, branchID uuid.UUID) (*models.Branch, error)
	Selected(ctx context.Context, userID uuid.UUID) (*models.Branch, error)
	ClearSelection(ctx context.Context, userID uuid.UUID) error
}

// CreateBranchInput carries a new branch.
type CreateBranchInput struct {
	Name    string
	Address string
	City    string
	Phone   *string
}

// UpdateBranchInput carries partial branch changes; nil fields are untouched.
type UpdateBranchInput struct {
	Name     *string
	Address  *string
	City     *string
	Phone    *string
	IsActive *bool
}

type service struct {
	repo       Repository
	selections SelectionStore
}

// NewService wires a branch service with the provided repository and selection store.
func NewService(repo Repository, selections SelectionStore) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("branch repository required")
	}
	if selections == nil {
		return nil, fmt.Errorf("branch selection store required")
	}
	return &service{repo: repo, selections: selections}, nil
}

func (s *service) List(ctx context.Context, activeOnly bool) ([]models.Branch, error) {
	return s.repo.List(ctx, activeOnly)
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Branch, error) {
	branch, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.CodeNotFound, "branch not found")
		}
		return nil, err
	}
	return branch, nil
}

func (s *service) Create(ctx context.Context, input CreateBranchInput) (*models.Branch, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.New(errors.CodeValidation, "name is required")
	}
	if strings.TrimSpace(input.Address) == "" {
		return nil, errors.New(errors.CodeValidation, "address is required")
	}
	if strings.TrimSpace(input.City) == "" {
		return nil, errors.New(errors.CodeValidation, "city is required")
	}

	branch := &models.Branch{
		ID:       uuid.New(),
		Name:     name,
		Slug:     products.Slugify(name),
		Address:  strings.TrimSpace(input.Address),
		City:     strings.TrimSpace(input.City),
		Phone:    input.Phone,
		IsActive: true,
	}
	if err := s.repo.Create(ctx, branch); err != nil {
		if dbpkg.IsUniqueViolation(err, "ux_branches_slug") {
			return nil, errors.New(errors.CodeConflict, "a branch with this name already exists")
		}
		return nil, err
	}
	return branch, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateBranchInput) (*models.Branch, error) {
	branch, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, errors.New(errors.CodeValidation, "name cannot be empty")
		}
		branch.Name = name
		branch.Slug = products.Slugify(name)
	}
	if input.Address != nil {
		branch.Address = strings.TrimSpace(*input.Address)
	}
	if input.City != nil {
		branch.City = strings.TrimSpace(*input.City)
	}
	if input.Phone != nil {
		branch.Phone = input.Phone
	}
	if input.IsActive != nil {
		branch.IsActive = *input.IsActive
	}

	if err := s.repo.Update(ctx, branch); err != nil {
		if dbpkg.IsUniqueViolation(err, "ux_branches_slug") {
			return nil, errors.New(errors.CodeConflict, "a branch with this name already exists")
		}
		return nil, err
	}
	return branch, nil
}

// Select records the branch the user wants to order from.
func (s *service) Select(ctx context.Context, userID, branchID uuid.UUID) (*models.Branch, error) {
	branch, err := s.GetByID(ctx, branchID)
	if err != nil {
		return nil, err
	}
	if !branch.IsActive {
		return nil, errors.New(errors.CodeStateConflict, "branch is not accepting orders")
	}
	if err := s.selections.StoreBranchSelection(ctx, userID.String(), branchID.String(), selectionTTL); err != nil {
		return nil, err
	}
	return branch, nil
}

// Selected returns the user's chosen branch, or nil when none is set.
func (s *service) Selected(ctx context.Context, userID uuid.UUID) (*models.Branch, error) {
	raw, err := s.selections.GetBranchSelection(ctx, userID.String())
	if err != nil {
		if stderrors.Is(err, redislib.Nil) {
			return nil, nil
		}
		return nil, err
	}
	branchID, err := uuid.Parse(raw)
	if err != nil {
		return nil, nil
	}
	branch, err := s.repo.GetByID(ctx, branchID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return branch, nil
}

// ClearSelection forgets the user's chosen branch.
func (s *service) ClearSelection(ctx context.Context, userID uuid.UUID) error {
	return s.selections.ClearBranchSelection(ctx, userID.String())
}
