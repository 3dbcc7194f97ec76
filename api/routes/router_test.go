package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shinwarieats/restaurant-backend/internal/branches"
	"github.com/shinwarieats/restaurant-backend/internal/cart"
	"github.com/shinwarieats/restaurant-backend/internal/categories"
	checkoutsvc "github.com/shinwarieats/restaurant-backend/internal/checkout"
	"github.com/shinwarieats/restaurant-backend/internal/engagement"
	"github.com/shinwarieats/restaurant-backend/internal/orders"
	"github.com/shinwarieats/restaurant-backend/internal/products"
	"github.com/shinwarieats/restaurant-backend/internal/reviews"
	usersvc "github.com/shinwarieats/restaurant-backend/internal/users"
	pkgauth "github.com/shinwarieats/restaurant-backend/pkg/auth"
	"github.com/shinwarieats/restaurant-backend/pkg/auth/session"
	"github.com/shinwarieats/restaurant-backend/pkg/config"
	"github.com/shinwarieats/restaurant-backend/pkg/db/models"
	"github.com/shinwarieats/restaurant-backend/pkg/enums"
	"github.com/shinwarieats/restaurant-backend/pkg/logger"
	"github.com/shinwarieats/restaurant-backend/pkg/pagination"
	"github.com/shinwarieats/restaurant-backend/pkg/payments"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubSessionChecker struct{}

func (stubSessionChecker) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

type stubProductService struct{}

func (stubProductService) List(ctx context.Context, filter products.ListFilter, params pagination.Params) ([]models.Product, string, error) {
	return []models.Product{}, "", nil
}

func (stubProductService) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	panic("unimplemented")
}

func (stubProductService) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	panic("unimplemented")
}

func (stubProductService) Create(ctx context.Context, input products.CreateProductInput) (*models.Product, error) {
	panic("unimplemented")
}

func (stubProductService) Update(ctx context.Context, id uuid.UUID, input products.UpdateProductInput) (*models.Product, error) {
	panic("unimplemented")
}

func (stubProductService) Delete(ctx context.Context, id uuid.UUID) error {
	panic("unimplemented")
}

func (stubProductService) SetAvailability(ctx context.Context, id uuid.UUID, available bool) (*models.Product, error) {
	panic("unimplemented")
}

type stubCategoryService struct{}

func (stubCategoryService) List(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	return []models.Category{}, nil
}

func (stubCategoryService) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	panic("unimplemented")
}

func (stubCategoryService) Create(ctx context.Context, input categories.CreateCategoryInput) (*models.Category, error) {
	panic("unimplemented")
}

func (stubCategoryService) Update(ctx context.Context, id uuid.UUID, input categories.UpdateCategoryInput) (*models.Category, error) {
	panic("unimplemented")
}

func (stubCategoryService) Delete(ctx context.Context, id uuid.UUID) error {
	panic("unimplemented")
}

type stubBranchService struct{}

func (stubBranchService) List(ctx context.Context, activeOnly bool) ([]models.Branch, error) {
	return []models.Branch{}, nil
}

func (stubBranchService) GetByID(ctx context.Context, id uuid.UUID) (*models.Branch, error) {
	panic("unimplemented")
}

func (stubBranchService) Create(ctx context.Context, input branches.CreateBranchInput) (*models.Branch, error) {
	panic("unimplemented")
}

func (stubBranchService) Update(ctx context.Context, id uuid.UUID, input branches.UpdateBranchInput) (*models.Branch, error) {
	panic("unimplemented")
}

func (stubBranchService) Select(ctx context.Context, userID, branchID uuid.UUID) (*models.Branch, error) {
	panic("unimplemented")
}

func (stubBranchService) Selected(ctx context.Context, userID uuid.UUID) (*models.Branch, error) {
	return nil, nil
}

func (stubBranchService) ClearSelection(ctx context.Context, userID uuid.UUID) error {
	return nil
}

type stubCartService struct{}

func (stubCartService) Get(ctx context.Context, userID uuid.UUID) (*cart.View, error) {
	return &cart.View{Cart: &models.Cart{ID: uuid.New(), UserID: userID}, Subtotal: decimal.Zero}, nil
}

func (stubCartService) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*cart.View, error) {
	panic("unimplemented")
}

func (stubCartService) SetItemQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*cart.View, error) {
	panic("unimplemented")
}

func (stubCartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*cart.View, error) {
	panic("unimplemented")
}

func (stubCartService) Clear(ctx context.Context, userID uuid.UUID) error {
	panic("unimplemented")
}

func (stubCartService) EnsureCart(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*models.Cart, error) {
	panic("unimplemented")
}

type stubCheckoutService struct{}

func (stubCheckoutService) PlaceOrder(ctx context.Context, userID uuid.UUID, input checkoutsvc.Input) (*checkoutsvc.Result, error) {
	panic("unimplemented")
}

func (stubCheckoutService) CreatePaymentSession(ctx context.Context, userID uuid.UUID, staff bool, orderID uuid.UUID) (*payments.CheckoutSession, error) {
	panic("unimplemented")
}

type stubOrdersService struct {
	dashboard func(ctx context.Context) (*orders.DashboardStats, error)
}

func (stubOrdersService) GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	return []models.Order{}, "", nil
}

func (stubOrdersService) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) List(ctx context.Context, filter orders.ListFilter, params pagination.Params) ([]models.Order, string, error) {
	return []models.Order{}, "", nil
}

func (stubOrdersService) UpdateStatus(ctx context.Context, orderID uuid.UUID, next enums.OrderStatus) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) Cancel(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	panic("unimplemented")
}

func (s stubOrdersService) Dashboard(ctx context.Context) (*orders.DashboardStats, error) {
	if s.dashboard != nil {
		return s.dashboard(ctx)
	}
	return &orders.DashboardStats{CountsByStatus: map[enums.OrderStatus]int64{}, DeliveredRevenue: decimal.Zero}, nil
}

type stubLoyaltyService struct{}

func (stubLoyaltyService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.LoyaltyProfile, error) {
	return &models.LoyaltyProfile{UserID: userID}, nil
}

func (stubLoyaltyService) EnsureProfile(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*models.LoyaltyProfile, error) {
	panic("unimplemented")
}

func (stubLoyaltyService) History(ctx context.Context, userID uuid.UUID, limit int) ([]models.PointsTransaction, error) {
	return []models.PointsTransaction{}, nil
}

func (stubLoyaltyService) ApplyRedemption(ctx context.Context, tx *gorm.DB, userID uuid.UUID, requestedPoints int, orderTotal decimal.Decimal, orderID uuid.UUID) (int, decimal.Decimal, error) {
	panic("unimplemented")
}

func (stubLoyaltyService) RedeemPoints(ctx context.Context, tx *gorm.DB, userID uuid.UUID, points int, note string) (*models.LoyaltyProfile, decimal.Decimal, error) {
	panic("unimplemented")
}

func (stubLoyaltyService) AwardPointsForOrder(ctx context.Context, tx *gorm.DB, userID uuid.UUID, orderID uuid.UUID, amountPaid decimal.Decimal) (int, error) {
	panic("unimplemented")
}

type stubReviewService struct{}

func (stubReviewService) Submit(ctx context.Context, userID uuid.UUID, input reviews.SubmitInput) (*models.Review, error) {
	panic("unimplemented")
}

func (stubReviewService) ListByProduct(ctx context.Context, productID uuid.UUID, limit int) ([]models.Review, error) {
	return []models.Review{}, nil
}

func (stubReviewService) Delete(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, reviewID uuid.UUID) error {
	panic("unimplemented")
}

type stubEngagementService struct{}

func (stubEngagementService) SubmitContact(ctx context.Context, input engagement.ContactInput) (*models.ContactMessage, error) {
	panic("unimplemented")
}

func (stubEngagementService) Subscribe(ctx context.Context, email string) (*models.NewsletterSubscriber, bool, error) {
	return &models.NewsletterSubscriber{Email: email}, true, nil
}

func (stubEngagementService) SubmitFeedback(ctx context.Context, input engagement.FeedbackInput) (*models.Feedback, error) {
	panic("unimplemented")
}

func (stubEngagementService) ListContactMessages(ctx context.Context, limit int) ([]models.ContactMessage, error) {
	return []models.ContactMessage{}, nil
}

func (stubEngagementService) ListFeedback(ctx context.Context, limit int) ([]models.Feedback, error) {
	return []models.Feedback{}, nil
}

type stubUserService struct{}

func (stubUserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return &models.User{ID: id}, nil
}

func (stubUserService) UpdateProfile(ctx context.Context, id uuid.UUID, input usersvc.UpdateProfileInput) (*models.User, error) {
	panic("unimplemented")
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:                 "secret",
			Issuer:                 "issuer",
			ExpirationMinutes:      60,
			RefreshTokenTTLMinutes: 120,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(Deps{
		Config:         cfg,
		Logger:         logg,
		DBPinger:       stubPinger{},
		RedisPinger:    stubPinger{},
		SessionChecker: stubSessionChecker{},
		Users:          stubUserService{},
		Products:       stubProductService{},
		Categories:     stubCategoryService{},
		Branches:       stubBranchService{},
		Cart:           stubCartService{},
		Checkout:       stubCheckoutService{},
		Orders:         stubOrdersService{},
		Loyalty:        stubLoyaltyService{},
		Reviews:        stubReviewService{},
		Engagement:     stubEngagementService{},
	})
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
		JTI:    session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestPublicMenuNeedsNoToken(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/menu", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for public menu got %d", resp.Code)
	}
}

func TestAuthedGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestAuthedGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/loyalty", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for authed loyalty got %d", resp.Code)
	}
}

func TestAdminGroupRequiresStaffRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	customer := httptest.NewRequest(http.MethodGet, "/api/admin/v1/dashboard", nil)
	customer.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, customer)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer got %d", resp.Code)
	}

	staff := httptest.NewRequest(http.MethodGet, "/api/admin/v1/dashboard", nil)
	staff.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleStaff))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, staff)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for staff got %d", resp.Code)
	}
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
}
