package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/denr-penro-mrq/permittree-backend/internal/notifications"
	"github.com/denr-penro-mrq/permittree-backend/internal/oop"
	"github.com/denr-penro-mrq/permittree-backend/internal/permits"
	pkgauth "github.com/denr-penro-mrq/permittree-backend/pkg/auth"
	"github.com/denr-penro-mrq/permittree-backend/pkg/config"
	"github.com/denr-penro-mrq/permittree-backend/pkg/db/models"
	"github.com/denr-penro-mrq/permittree-backend/pkg/enums"
	"github.com/denr-penro-mrq/permittree-backend/pkg/logger"
)

type routerPermitsService struct {
	listFn func(ctx context.Context, params permits.ListParams) (*permits.ListResult, error)
}

func (s *routerPermitsService) Create(ctx context.Context, input permits.CreateInput) (*models.Permit, error) {
	return nil, nil
}

func (s *routerPermitsService) Transition(ctx context.Context, input permits.TransitionInput) (*permits.TransitionResult, error) {
	return nil, nil
}

func (s *routerPermitsService) AllowedActions(ctx context.Context, permitID uuid.UUID, actor permits.Actor) ([]enums.PermitAction, error) {
	return nil, nil
}

func (s *routerPermitsService) Get(ctx context.Context, permitID uuid.UUID, actor permits.Actor) (*models.Permit, error) {
	return nil, nil
}

func (s *routerPermitsService) List(ctx context.Context, params permits.ListParams) (*permits.ListResult, error) {
	if s.listFn != nil {
		return s.listFn(ctx, params)
	}
	return &permits.ListResult{}, nil
}

var _ permits.Service = (*routerPermitsService)(nil)

type routerOOPService struct{}

func (routerOOPService) CreateForPermit(ctx context.Context, permitID uuid.UUID, items []models.OOPLineItem) (*models.OrderOfPayment, error) {
	return nil, nil
}
func (routerOOPService) Get(ctx context.Context, permitID uuid.UUID) (*models.OrderOfPayment, error) {
	return &models.OrderOfPayment{PermitID: permitID}, nil
}
func (routerOOPService) UpdateItems(ctx context.Context, permitID uuid.UUID, items []models.OOPLineItem) (*models.OrderOfPayment, error) {
	return nil, nil
}
func (routerOOPService) Sign(ctx context.Context, permitID uuid.UUID, signatory enums.Signatory) (*models.OrderOfPayment, error) {
	return nil, nil
}
func (routerOOPService) Approve(ctx context.Context, permitID uuid.UUID, approved bool) (*models.OrderOfPayment, error) {
	return nil, nil
}
func (routerOOPService) RequestPayment(ctx context.Context, permitID uuid.UUID) (*models.OrderOfPayment, error) {
	return nil, nil
}
func (routerOOPService) SubmitPaymentProof(ctx context.Context, permitID uuid.UUID, proofRef string) (*models.OrderOfPayment, error) {
	return nil, nil
}
func (routerOOPService) ReviewPaymentProof(ctx context.Context, permitID uuid.UUID, approved bool) (*models.OrderOfPayment, error) {
	return nil, nil
}

var _ oop.Service = routerOOPService{}

type routerNotificationsService struct{}

func (routerNotificationsService) List(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	return &notifications.ListResult{}, nil
}
func (routerNotificationsService) MarkRead(ctx context.Context, recipient notifications.Recipient, notificationID uuid.UUID) error {
	return nil
}
func (routerNotificationsService) MarkAllRead(ctx context.Context, recipient notifications.Recipient) (int64, error) {
	return 0, nil
}

var _ notifications.Service = routerNotificationsService{}

func testRouterConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "router-test-secret",
			Issuer:            "permittree-test",
			ExpirationMinutes: 5,
		},
	}
}

func newTestRouter(t *testing.T, cfg *config.Config, svc permits.Service) http.Handler {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	return NewRouter(cfg, logg, nil, nil, svc, routerOOPService{}, routerNotificationsService{})
}

func mintToken(t *testing.T, cfg *config.Config, role enums.Role) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
		JTI:    uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestRouterHealthLive(t *testing.T) {
	router := newTestRouter(t, testRouterConfig(), &routerPermitsService{})
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
}

func TestRouterMetricsExposed(t *testing.T) {
	router := newTestRouter(t, testRouterConfig(), &routerPermitsService{})
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
}

func TestRouterRejectsMissingToken(t *testing.T) {
	router := newTestRouter(t, testRouterConfig(), &routerPermitsService{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/permits", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestRouterAuthenticatedList(t *testing.T) {
	cfg := testRouterConfig()
	called := false
	svc := &routerPermitsService{
		listFn: func(ctx context.Context, params permits.ListParams) (*permits.ListResult, error) {
			called = true
			return &permits.ListResult{}, nil
		},
	}
	router := newTestRouter(t, cfg, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/permits", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, cfg, enums.RoleApplicant))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if !called {
		t.Fatal("expected list handler reached")
	}
}

func TestRouterRoleGateOnOOPApprove(t *testing.T) {
	cfg := testRouterConfig()
	router := newTestRouter(t, cfg, &routerPermitsService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/permits/"+uuid.NewString()+"/oop", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, cfg, enums.RoleApplicant))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected oop fetch allowed for applicant, got %d", resp.Code)
	}
}
