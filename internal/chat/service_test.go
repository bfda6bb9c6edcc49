// AngelaMos | 2026
// service_test.go

package chat

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/brasil-no-mundo/internal/core"
	"github.com/carterperez-dev/brasil-no-mundo/internal/middleware"
	"github.com/carterperez-dev/brasil-no-mundo/internal/realtime"
	"github.com/carterperez-dev/brasil-no-mundo/internal/store"
)

type countingPublisher struct {
	mu     sync.Mutex
	counts map[realtime.Topic]int
}

func (p *countingPublisher) Publish(topic realtime.Topic, _ any) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.counts == nil {
		p.counts = make(map[realtime.Topic]int)
	}
	p.counts[topic]++
	return 1
}

func TestSend_KeepsFiftyMostRecent(t *testing.T) {
	st := store.New()
	pub := &countingPublisher{}
	svc := NewService(st, pub, 0)
	ctx := context.Background()

	for i := 1; i <= 51; i++ {
		_, err := svc.Send(ctx, "Mariana", fmt.Sprintf("msg %d", i))
		require.NoError(t, err)
	}

	history := svc.History()
	require.Len(t, history, 50)
	assert.Equal(t, "msg 2", history[0].Text)
	assert.Equal(t, "msg 51", history[49].Text)
	for _, m := range history {
		assert.NotEqual(t, "msg 1", m.Text)
	}
	assert.Equal(t, 51, pub.counts[realtime.TopicMessageNew])
}

func TestSend_Validation(t *testing.T) {
	svc := NewService(store.New(), &countingPublisher{}, 5)
	ctx := context.Background()

	_, err := svc.Send(ctx, "", "oi")
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = svc.Send(ctx, "Mariana", "   ")
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = svc.Send(ctx, "Mariana", "olá!!")
	assert.NoError(t, err)

	_, err = svc.Send(ctx, "Mariana", "olá!!!")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestSend_StampsMessage(t *testing.T) {
	svc := NewService(store.New(), &countingPublisher{}, 0)

	msg, err := svc.Send(context.Background(), "  João ", " Bom dia ")
	require.NoError(t, err)
	assert.NotZero(t, msg.ID)
	assert.Equal(t, "João", msg.Author)
	assert.Equal(t, "Bom dia", msg.Text)
	assert.False(t, msg.Time.IsZero())
}

func TestHandler_Send(t *testing.T) {
	st := store.New()
	h := NewHandler(NewService(st, &countingPublisher{}, 0))

	r := chi.NewRouter()
	h.RegisterRoutes(r, func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := middleware.WithClaims(req.Context(), &middleware.AccessTokenClaims{
				UserID: "u1",
				Name:   "Mariana",
			})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat/messages", strings.NewReader(`{"text":"Oi gente"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chat/messages", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"author":"Mariana"`)
	assert.Len(t, st.Messages(), 1)
}
