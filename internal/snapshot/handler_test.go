// AngelaMos | 2026
// handler_test.go

package snapshot

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/brasil-no-mundo/internal/domain"
	"github.com/carterperez-dev/brasil-no-mundo/internal/middleware"
	"github.com/carterperez-dev/brasil-no-mundo/internal/store"
)

func withRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if role != "" {
				r = r.WithContext(middleware.WithClaims(r.Context(), &middleware.AccessTokenClaims{
					UserID: "u1",
					Role:   role,
				}))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func fetchState(t *testing.T, st *store.Store, role string) map[string]json.RawMessage {
	t.Helper()

	r := chi.NewRouter()
	NewHandler(st).RegisterRoutes(r, withRole(role))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/state", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var env struct {
		Data map[string]json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Data
}

func seededStore(t *testing.T) *store.Store {
	t.Helper()

	st := store.New()
	require.NoError(t, st.Seed(domain.User{
		ID:    "admin",
		Name:  "Super Admin",
		Email: "admin@example.com",
	}, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	return st
}

func TestState_AnonymousHasNoStats(t *testing.T) {
	st := seededStore(t)
	st.CreateBusiness(domain.Business{Name: "Pão de Queijo Co", Type: "Padaria", Location: "Porto"})

	data := fetchState(t, st, "")

	assert.NotContains(t, data, "admin_stats")
	for _, key := range []string{"settings", "plans", "messages", "meetups", "businesses", "posts"} {
		assert.Contains(t, data, key)
	}

	var businesses []domain.Business
	require.NoError(t, json.Unmarshal(data["businesses"], &businesses))
	for _, b := range businesses {
		assert.Equal(t, domain.StatusApproved, b.Status)
	}
}

func TestState_MemberHasNoStats(t *testing.T) {
	data := fetchState(t, seededStore(t), domain.RoleUser)
	assert.NotContains(t, data, "admin_stats")
}

func TestState_AdminSeesStats(t *testing.T) {
	st := seededStore(t)
	st.CreateBusiness(domain.Business{Name: "Açaí Bar", Type: "Café", Location: "Madrid"})

	data := fetchState(t, st, domain.RoleAdmin)
	require.Contains(t, data, "admin_stats")

	var stats store.AdminStats
	require.NoError(t, json.Unmarshal(data["admin_stats"], &stats))
	assert.Equal(t, 1, stats.Users)
	assert.GreaterOrEqual(t, stats.PendingBusinesses, 1)
}
