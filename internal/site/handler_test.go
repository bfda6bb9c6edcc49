// AngelaMos | 2026
// handler_test.go

package site

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/brasil-no-mundo/internal/domain"
	"github.com/carterperez-dev/brasil-no-mundo/internal/realtime"
	"github.com/carterperez-dev/brasil-no-mundo/internal/store"
)

type recordingPublisher struct {
	topics   []realtime.Topic
	payloads []any
}

func (p *recordingPublisher) Publish(topic realtime.Topic, payload any) int {
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload)
	return 1
}

func newTestRouter() (chi.Router, *store.Store, *recordingPublisher) {
	st := store.New()
	pub := &recordingPublisher{}
	h := NewHandler(NewService(st, pub, nil))

	r := chi.NewRouter()
	h.RegisterRoutes(r)
	r.Route("/admin", h.RegisterAdminRoutes)
	return r, st, pub
}

func TestUpdate_MergesAndBroadcasts(t *testing.T) {
	r, st, pub := newTestRouter()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(
		http.MethodPost,
		"/admin/settings",
		strings.NewReader(`{"site_name":"Brasileiros em Lisboa"}`),
	))
	require.Equal(t, http.StatusOK, rec.Code)

	want := domain.Settings{Logo: "B", SiteName: "Brasileiros em Lisboa"}
	assert.Equal(t, want, st.Settings())

	require.Equal(t, []realtime.Topic{realtime.TopicSettingsChanged}, pub.topics)
	assert.Equal(t, want, pub.payloads[0])

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/settings", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var env struct {
		Data domain.Settings `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, want, env.Data)
}

func TestUpdate_Validation(t *testing.T) {
	r, st, pub := newTestRouter()

	for _, body := range []string{`{"site_name":""}`, `not json`} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(
			http.MethodPost,
			"/admin/settings",
			strings.NewReader(body),
		))
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}

	assert.Equal(t, store.DefaultSettings(), st.Settings())
	assert.Empty(t, pub.topics)
}
