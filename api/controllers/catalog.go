package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shinwarieats/restaurant-backend/api/middleware"
	"github.com/shinwarieats/restaurant-backend/api/responses"
	"github.com/shinwarieats/restaurant-backend/api/validators"
	"github.com/shinwarieats/restaurant-backend/internal/branches"
	"github.com/shinwarieats/restaurant-backend/internal/categories"
	"github.com/shinwarieats/restaurant-backend/internal/pricing"
	"github.com/shinwarieats/restaurant-backend/internal/products"
	"github.com/shinwarieats/restaurant-backend/pkg/db/models"
	pkgerrors "github.com/shinwarieats/restaurant-backend/pkg/errors"
	"github.com/shinwarieats/restaurant-backend/pkg/logger"
)

type productView struct {
	ID             string  `json:"id"`
	CategoryID     string  `json:"category_id"`
	CategoryName   string  `json:"category_name,omitempty"`
	BranchID       *string `json:"branch_id,omitempty"`
	Name           string  `json:"name"`
	Slug           string  `json:"slug"`
	Description    *string `json:"description,omitempty"`
	Price          string  `json:"price"`
	DiscountPrice  *string `json:"discount_price,omitempty"`
	EffectivePrice string  `json:"effective_price"`
	ImageURL       *string `json:"image_url,omitempty"`
	IsAvailable    bool    `json:"is_available"`
	IsFeatured     bool    `json:"is_featured"`
}

func newProductView(product models.Product) productView {
	view := productView{
		ID:             product.ID.String(),
		CategoryID:     product.CategoryID.String(),
		Name:           product.Name,
		Slug:           product.Slug,
		Description:    product.Description,
		Price:          product.Price.StringFixed(pricing.Scale),
		EffectivePrice: pricing.EffectivePrice(product).StringFixed(pricing.Scale),
		ImageURL:       product.ImageURL,
		IsAvailable:    product.IsAvailable,
		IsFeatured:     product.IsFeatured,
	}
	if product.DiscountPrice != nil {
		discounted := product.DiscountPrice.StringFixed(pricing.Scale)
		view.DiscountPrice = &discounted
	}
	if product.BranchID != nil {
		branchID := product.BranchID.String()
		view.BranchID = &branchID
	}
	if product.Category != nil {
		view.CategoryName = product.Category.Name
	}
	return view
}

func newProductViews(rows []models.Product) []productView {
	views := make([]productView, 0, len(rows))
	for _, row := range rows {
		views = append(views, newProductView(row))
	}
	return views
}

type categoryView struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Description *string `json:"description,omitempty"`
	SortOrder   int     `json:"sort_order"`
	IsActive    bool    `json:"is_active"`
}

func newCategoryView(category models.Category) categoryView {
	return categoryView{
		ID:          category.ID.String(),
		Name:        category.Name,
		Slug:        category.Slug,
		Description: category.Description,
		SortOrder:   category.SortOrder,
		IsActive:    category.IsActive,
	}
}

type branchView struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Slug     string  `json:"slug"`
	Address  string  `json:"address"`
	City     string  `json:"city"`
	Phone    *string `json:"phone,omitempty"`
	IsActive bool    `json:"is_active"`
}

func newBranchView(branch models.Branch) branchView {
	return branchView{
		ID:       branch.ID.String(),
		Name:     branch.Name,
		Slug:     branch.Slug,
		Address:  branch.Address,
		City:     branch.City,
		Phone:    branch.Phone,
		IsActive: branch.IsActive,
	}
}

// MenuList is the public catalog listing with filters and cursor pagination.
// An explicit ?branch= wins; otherwise a signed-in customer's stored branch
// choice scopes the listing.
func MenuList(svc products.Service, selections branches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		featuredOnly, err := validators.ParseQueryBool(r, "featured")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := products.ListFilter{
			CategorySlug:  strings.TrimSpace(r.URL.Query().Get("category")),
			Search:        strings.TrimSpace(r.URL.Query().Get("q")),
			FeaturedOnly:  featuredOnly,
			AvailableOnly: true,
		}

		for _, bound := range []struct {
			param  string
			target **decimal.Decimal
		}{
			{"min_price", &filter.MinPrice},
			{"max_price", &filter.MaxPrice},
		} {
			raw := strings.TrimSpace(r.URL.Query().Get(bound.param))
			if raw == "" {
				continue
			}
			value, err := parseMoney(raw, bound.param)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			*bound.target = &value
		}

		branchID, err := resolveBranchScope(r, selections)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.BranchID = branchID

		rows, next, err := svc.List(r.Context(), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessMeta(w, newProductViews(rows), map[string]string{"next_cursor": next})
	}
}

func resolveBranchScope(r *http.Request, selections branches.Service) (*uuid.UUID, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("branch"))
	if raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "branch must be a UUID")
		}
		return &id, nil
	}

	if selections == nil {
		return nil, nil
	}
	userID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
	if err != nil {
		return nil, nil
	}
	branch, err := selections.Selected(r.Context(), userID)
	if err != nil || branch == nil {
		return nil, nil
	}
	return &branch.ID, nil
}

// MenuItemBySlug serves one public menu item.
func MenuItemBySlug(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		product, err := svc.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newProductView(*product))
	}
}

// CategoryList serves the active categories.
func CategoryList(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "category service unavailable"))
			return
		}

		rows, err := svc.List(r.Context(), true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views := make([]categoryView, 0, len(rows))
		for _, row := range rows {
			views = append(views, newCategoryView(row))
		}
		responses.WriteSuccess(w, views)
	}
}

// BranchList serves the active branches.
func BranchList(svc branches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "branch service unavailable"))
			return
		}

		rows, err := svc.List(r.Context(), true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views := make([]branchView, 0, len(rows))
		for _, row := range rows {
			views = append(views, newBranchView(row))
		}
		responses.WriteSuccess(w, views)
	}
}
