package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pcgearph/storefront/internal/auth"
)

type fakeLogin struct {
	token string
	user  auth.User
	err   error
}

func (f *fakeLogin) Login(context.Context, string, string) (string, auth.User, error) {
	return f.token, f.user, f.err
}

func newAuthRouter(svc LoginService) *chi.Mux {
	h := &AuthHandler{Service: svc}
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func TestLoginSuccess(t *testing.T) {
	r := newAuthRouter(&fakeLogin{token: "tok", user: auth.User{ID: 1, Username: "admin", Role: "admin"}})

	rr := postJSON(r, "/auth/login", `{"username":"admin","password":"secret"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"token":"tok"`)
}

func TestLoginMissingFields(t *testing.T) {
	r := newAuthRouter(&fakeLogin{})

	rr := postJSON(r, "/auth/login", `{"username":"admin"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Username and Password are required")
}

func TestLoginInvalidCredentials(t *testing.T) {
	r := newAuthRouter(&fakeLogin{err: auth.ErrInvalidCredentials})

	rr := postJSON(r, "/auth/login", `{"username":"admin","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestLoginCooldown(t *testing.T) {
	r := newAuthRouter(&fakeLogin{err: auth.ErrTooManyAttempts})

	rr := postJSON(r, "/auth/login", `{"username":"admin","password":"wrong"}`)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
}

func TestRequireAdmin(t *testing.T) {
	svc := &auth.Service{Secret: []byte("test-secret"), TokenTTL: time.Hour}
	adminTok, err := svc.IssueToken(auth.User{ID: 1, Username: "admin", Role: auth.RoleAdmin})
	require.NoError(t, err)
	customerTok, err := svc.IssueToken(auth.User{ID: 2, Username: "juan", Role: "customer"})
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Group(func(g chi.Router) {
		g.Use(RequireAdmin(svc))
		g.Get("/admin/ping", func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFrom(r.Context())
			require.True(t, ok)
			assert.Equal(t, "admin", claims.Username)
			w.WriteHeader(http.StatusOK)
		})
	})

	get := func(token string) int {
		req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, get(adminTok))
	assert.Equal(t, http.StatusForbidden, get(customerTok))
	assert.Equal(t, http.StatusUnauthorized, get(""))
	assert.Equal(t, http.StatusUnauthorized, get("garbage"))
}
