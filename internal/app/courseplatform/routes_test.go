package courseplatform

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"

	accessservice "github.com/nstepano/course-platform/internal/services/access"
	authservice "github.com/nstepano/course-platform/internal/services/auth"
	catalogservice "github.com/nstepano/course-platform/internal/services/catalog"
	ledgerservice "github.com/nstepano/course-platform/internal/services/ledger"
	purchaseservice "github.com/nstepano/course-platform/internal/services/purchase"
)

func newTestRouter(t *testing.T) chi.Router {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))

	r := chi.NewRouter()
	RegisterRoutes(r, logger, &Services{
		Auth:     authservice.NewAuthService(nil, nil),
		Catalog:  catalogservice.NewCatalogService(nil, nil, logger),
		Ledger:   ledgerservice.NewLedgerService(nil, logger),
		Access:   accessservice.NewAccessService(nil),
		Purchase: purchaseservice.NewPurchaseService(nil, nil, logger),
	})
	return r
}

// Все методы изменения курса по ID зарегистрированы: без токена каждый из
// них упирается в аутентификацию (401), а не в отсутствие маршрута (405).
func TestRegisterRoutes_CourseItemMethods(t *testing.T) {
	r := newTestRouter(t)

	for _, method := range []string{http.MethodPut, http.MethodPatch, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			req := httptest.NewRequest(method, "/api/v1/courses/1", nil)
			rec := httptest.NewRecorder()

			r.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), `"detail":"missing or invalid authorization header"`)
		})
	}
}

func TestRegisterRoutes_ProtectedRoutesRequireToken(t *testing.T) {
	r := newTestRouter(t)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/balance"},
		{http.MethodPost, "/api/v1/courses/1/pay"},
		{http.MethodPost, "/api/v1/courses"},
		{http.MethodGet, "/api/v1/courses/1/lessons"},
		{http.MethodGet, "/api/v1/courses/1/groups"},
	}

	for _, tt := range routes {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rec := httptest.NewRecorder()

			r.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}
