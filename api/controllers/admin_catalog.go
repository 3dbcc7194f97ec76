package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shinwarieats/restaurant-backend/api/responses"
	"github.com/shinwarieats/restaurant-backend/api/validators"
	"github.com/shinwarieats/restaurant-backend/internal/branches"
	"github.com/shinwarieats/restaurant-backend/internal/categories"
	"github.com/shinwarieats/restaurant-backend/internal/products"
	pkgerrors "github.com/shinwarieats/restaurant-backend/pkg/errors"
	"github.com/shinwarieats/restaurant-backend/pkg/logger"
)

type createProductRequest struct {
	CategoryID    uuid.UUID  `json:"category_id" validate:"required"`
	BranchID      *uuid.UUID `json:"branch_id,omitempty"`
	Name          string     `json:"name" validate:"required,min=2,max=160"`
	Description   *string    `json:"description,omitempty"`
	Price         string     `json:"price" validate:"required"`
	DiscountPrice *string    `json:"discount_price,omitempty"`
	ImageURL      *string    `json:"image_url,omitempty" validate:"omitempty,url"`
	IsAvailable   *bool      `json:"is_available,omitempty"`
	IsFeatured    bool       `json:"is_featured"`
}

type updateProductRequest struct {
	CategoryID    *uuid.UUID `json:"category_id,omitempty"`
	BranchID      *uuid.UUID `json:"branch_id,omitempty"`
	ClearBranch   bool       `json:"clear_branch"`
	Name          *string    `json:"name,omitempty" validate:"omitempty,min=2,max=160"`
	Description   *string    `json:"description,omitempty"`
	Price         *string    `json:"price,omitempty"`
	DiscountPrice *string    `json:"discount_price,omitempty"`
	ClearDiscount bool       `json:"clear_discount"`
	ImageURL      *string    `json:"image_url,omitempty" validate:"omitempty,url"`
	IsAvailable   *bool      `json:"is_available,omitempty"`
	IsFeatured    *bool      `json:"is_featured,omitempty"`
}

func parseMoney(raw, field string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "amount must be a decimal string").WithDetails(map[string]any{"field": field})
	}
	return value, nil
}

// AdminProductCreate handles staff creation of menu items.
func AdminProductCreate(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		var body createProductRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		price, err := parseMoney(body.Price, "price")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := products.CreateProductInput{
			CategoryID:  body.CategoryID,
			BranchID:    body.BranchID,
			Name:        body.Name,
			Description: body.Description,
			Price:       price,
			ImageURL:    body.ImageURL,
			IsAvailable: true,
			IsFeatured:  body.IsFeatured,
		}
		if body.IsAvailable != nil {
			input.IsAvailable = *body.IsAvailable
		}
		if body.DiscountPrice != nil {
			discount, err := parseMoney(*body.DiscountPrice, "discount_price")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.DiscountPrice = &discount
		}

		product, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newProductView(*product))
	}
}

// AdminProductUpdate handles staff edits of menu items.
func AdminProductUpdate(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateProductRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := products.UpdateProductInput{
			CategoryID:    body.CategoryID,
			BranchID:      body.BranchID,
			ClearBranch:   body.ClearBranch,
			Name:          body.Name,
			Description:   body.Description,
			ClearDiscount: body.ClearDiscount,
			ImageURL:      body.ImageURL,
			IsAvailable:   body.IsAvailable,
			IsFeatured:    body.IsFeatured,
		}
		if body.Price != nil {
			price, err := parseMoney(*body.Price, "price")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.Price = &price
		}
		if body.DiscountPrice != nil {
			discount, err := parseMoney(*body.DiscountPrice, "discount_price")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.DiscountPrice = &discount
		}

		product, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newProductView(*product))
	}
}

// AdminProductDelete removes a menu item.
func AdminProductDelete(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

type setAvailabilityRequest struct {
	Available *bool `json:"available" validate:"required"`
}

// AdminProductSetAvailability flips a menu item on or off the menu.
func AdminProductSetAvailability(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body setAvailabilityRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.SetAvailability(r.Context(), id, *body.Available)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newProductView(*product))
	}
}

type createCategoryRequest struct {
	Name        string  `json:"name" validate:"required,min=2,max=120"`
	Description *string `json:"description,omitempty"`
	SortOrder   int     `json:"sort_order"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

type updateCategoryRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=2,max=120"`
	Description *string `json:"description,omitempty"`
	SortOrder   *int    `json:"sort_order,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// AdminCategoryCreate handles staff creation of categories.
func AdminCategoryCreate(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "category service unavailable"))
			return
		}

		var body createCategoryRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := categories.CreateCategoryInput{
			Name:        body.Name,
			Description: body.Description,
			SortOrder:   body.SortOrder,
			IsActive:    true,
		}
		if body.IsActive != nil {
			input.IsActive = *body.IsActive
		}

		category, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newCategoryView(*category))
	}
}

// AdminCategoryUpdate handles staff edits of categories.
func AdminCategoryUpdate(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "category service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "categoryId"), "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateCategoryRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		category, err := svc.Update(r.Context(), id, categories.UpdateCategoryInput{
			Name:        body.Name,
			Description: body.Description,
			SortOrder:   body.SortOrder,
			IsActive:    body.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCategoryView(*category))
	}
}

// AdminCategoryDelete removes an empty category.
func AdminCategoryDelete(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "category service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "categoryId"), "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

type createBranchRequest struct {
	Name    string  `json:"name" validate:"required,min=2,max=120"`
	Address string  `json:"address" validate:"required"`
	City    string  `json:"city" validate:"required"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty,max=32"`
}

type updateBranchRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=2,max=120"`
	Address  *string `json:"address,omitempty"`
	City     *string `json:"city,omitempty"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// AdminBranchCreate handles staff creation of branches.
func AdminBranchCreate(svc branches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "branch service unavailable"))
			return
		}

		var body createBranchRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		branch, err := svc.Create(r.Context(), branches.CreateBranchInput{
			Name:    body.Name,
			Address: body.Address,
			City:    body.City,
			Phone:   body.Phone,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newBranchView(*branch))
	}
}

// AdminBranchUpdate handles staff edits of branches.
func AdminBranchUpdate(svc branches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "branch service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "branchId"), "branchId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateBranchRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		branch, err := svc.Update(r.Context(), id, branches.UpdateBranchInput{
			Name:     body.Name,
			Address:  body.Address,
			City:     body.City,
			Phone:    body.Phone,
			IsActive: body.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newBranchView(*branch))
	}
}
