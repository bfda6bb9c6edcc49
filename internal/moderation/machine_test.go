// AngelaMos | 2026
// machine_test.go

package moderation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/brasil-no-mundo/internal/core"
	"github.com/carterperez-dev/brasil-no-mundo/internal/domain"
	"github.com/carterperez-dev/brasil-no-mundo/internal/middleware"
	"github.com/carterperez-dev/brasil-no-mundo/internal/realtime"
	"github.com/carterperez-dev/brasil-no-mundo/internal/store"
)

type recordingPublisher struct {
	mu     sync.Mutex
	topics []realtime.Topic
}

func (p *recordingPublisher) Publish(topic realtime.Topic, _ any) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	return 1
}

func (p *recordingPublisher) count(topic realtime.Topic) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for _, t := range p.topics {
		if t == topic {
			n++
		}
	}
	return n
}

var admin = Actor{UserID: "admin-1", Role: domain.RoleAdmin}

func newBusinessMachine() (*Machine[domain.Business], *store.Store, *recordingPublisher) {
	st := store.New()
	pub := &recordingPublisher{}
	m := NewMachine[domain.Business]("business", realtime.TopicBusinessApproved, st.TransitionBusiness, pub, nil)
	return m, st, pub
}

func TestNext(t *testing.T) {
	tests := []struct {
		name    string
		current domain.Status
		target  domain.Status
		wantErr error
	}{
		{"approve pending", domain.StatusPending, domain.StatusApproved, nil},
		{"reject pending", domain.StatusPending, domain.StatusRejected, nil},
		{"approve approved", domain.StatusApproved, domain.StatusApproved, ErrInvalidTransition},
		{"reject approved", domain.StatusApproved, domain.StatusRejected, ErrInvalidTransition},
		{"approve rejected", domain.StatusRejected, domain.StatusApproved, ErrInvalidTransition},
		{"back to pending", domain.StatusPending, domain.StatusPending, core.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Next(tt.current, tt.target)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.target, got)
		})
	}
}

func TestApprove_PublishesOnce(t *testing.T) {
	m, st, pub := newBusinessMachine()
	b := st.CreateBusiness(domain.Business{Name: "Padaria Pão de Queijo"})
	ctx := context.Background()

	approved, err := m.Approve(ctx, admin, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, approved.Status)

	_, err = m.Approve(ctx, admin, b.ID)
	assert.ErrorIs(t, err, core.ErrConflict)

	assert.Equal(t, 1, pub.count(realtime.TopicBusinessApproved))
	assert.Len(t, st.Businesses(domain.StatusApproved), 1)
}

func TestReject_IsSilentAndTerminal(t *testing.T) {
	m, st, pub := newBusinessMachine()
	b := st.CreateBusiness(domain.Business{Name: "Salão Carioca"})
	ctx := context.Background()

	rejected, err := m.Reject(ctx, admin, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, rejected.Status)

	_, err = m.Approve(ctx, admin, b.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	assert.Zero(t, pub.count(realtime.TopicBusinessApproved))
	assert.Empty(t, st.Businesses(domain.StatusApproved))
}

func TestApprove_RequiresAdmin(t *testing.T) {
	m, st, pub := newBusinessMachine()
	b := st.CreateBusiness(domain.Business{Name: "Açaí Express"})

	_, err := m.Approve(context.Background(), Actor{UserID: "u1", Role: domain.RoleUser}, b.ID)
	assert.ErrorIs(t, err, core.ErrForbidden)

	current, err := st.Business(b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, current.Status)
	assert.Zero(t, pub.count(realtime.TopicBusinessApproved))
}

func TestApprove_NotFound(t *testing.T) {
	m, _, _ := newBusinessMachine()

	_, err := m.Approve(context.Background(), admin, 999)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestApprove_ConcurrentCallsPublishOnce(t *testing.T) {
	st := store.New()
	pub := &recordingPublisher{}
	m := NewMachine[domain.Post]("post", realtime.TopicPostApproved, st.TransitionPost, pub, nil)
	p := st.CreatePost(domain.Post{Title: "Morar em Lisboa"})

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			//nolint:errcheck // only one call may succeed
			_, _ = m.Approve(context.Background(), admin, p.ID)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, pub.count(realtime.TopicPostApproved))
}

func TestRoutes(t *testing.T) {
	m, st, _ := newBusinessMachine()
	b := st.CreateBusiness(domain.Business{Name: "Feijoada da Vó"})

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := middleware.WithClaims(req.Context(), &middleware.AccessTokenClaims{
				UserID: "admin-1",
				Role:   domain.RoleAdmin,
			})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Route("/businesses", func(r chi.Router) {
		RegisterRoutes(r, m)
	})

	post := func(path string) int {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))
		return rec.Code
	}

	assert.Equal(t, http.StatusBadRequest, post("/businesses/abc/approve"))
	assert.Equal(t, http.StatusNotFound, post("/businesses/999/approve"))
	assert.Equal(t, http.StatusOK, post("/businesses/"+itoa(b.ID)+"/reject"))
	assert.Equal(t, http.StatusConflict, post("/businesses/"+itoa(b.ID)+"/approve"))
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
