package reviews

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shinwarieats/restaurant-backend/internal/products"
	dbpkg "github.com/shinwarieats/restaurant-backend/pkg/db"
	"github.com/shinwarieats/restaurant-backend/pkg/db/models"
	"github.com/shinwarieats/restaurant-backend/pkg/enums"
	"github.com/shinwarieats/restaurant-backend/pkg/errors"
)

const defaultListLimit = 50

// SubmitInput carries a customer's rating for a menu item.
type SubmitInput struct {
	ProductID uuid.UUID
	Rating    int
	Comment   *string
}

// Service defines review operations. A customer holds at most one review per
// menu item; submitting again replaces the previous rating.
type Service interface {
	Submit(ctx context.Context, userID uuid.UUID, input SubmitInput) (*models.Review, error)
	ListByProduct(ctx context.Context, productID uuid.UUID, limit int) ([]models.Review, error)
	Delete(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, reviewID uuid.UUID) error
}

type service struct {
	repo        Repository
	productRepo products.Repository
}

// NewService wires the review service with its repositories.
func NewService(repo Repository, productRepo products.Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("review repository required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo, productRepo: productRepo}, nil
}

func (s *service) Submit(ctx context.Context, userID uuid.UUID, input SubmitInput) (*models.Review, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, errors.New(errors.CodeValidation, "rating must be between 1 and 5")
	}
	if input.Comment != nil {
		trimmed := strings.TrimSpace(*input.Comment)
		if trimmed == "" {
			input.Comment = nil
		} else {
			input.Comment = &trimmed
		}
	}

	if _, err := s.productRepo.GetByID(ctx, input.ProductID); err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.CodeNotFound, "menu item not found")
		}
		return nil, err
	}

	existing, err := s.repo.GetByProductAndUser(ctx, input.ProductID, userID)
	switch {
	case err == nil:
		existing.Rating = input.Rating
		existing.Comment = input.Comment
		existing.User = nil
		if err := s.repo.Update(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	case stderrors.Is(err, gorm.ErrRecordNotFound):
		// fall through to create
	default:
		return nil, err
	}

	review := &models.Review{
		ID:        uuid.New(),
		ProductID: input.ProductID,
		UserID:    userID,
		Rating:    input.Rating,
		Comment:   input.Comment,
	}
	if err := s.repo.Create(ctx, review); err != nil {
		// concurrent first submission, treat as the update path
		if dbpkg.IsUniqueViolation(err, "ux_reviews_product_user") {
			return nil, errors.New(errors.CodeConflict, "review already submitted, try again")
		}
		return nil, err
	}
	return review, nil
}

func (s *service) ListByProduct(ctx context.Context, productID uuid.UUID, limit int) ([]models.Review, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	return s.repo.ListByProduct(ctx, productID, limit)
}

// Delete removes a review. Customers can only delete their own; staff can
// delete any.
func (s *service) Delete(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, reviewID uuid.UUID) error {
	review, err := s.repo.GetByID(ctx, reviewID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New(errors.CodeNotFound, "review not found")
		}
		return err
	}
	if review.UserID != actorID && !actorRole.IsStaff() {
		return errors.New(errors.CodeForbidden, "cannot delete another customer's review")
	}
	return s.repo.Delete(ctx, reviewID)
}
