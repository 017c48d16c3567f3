package services

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/kittygram/kittygram-api/api/middleware"
	"github.com/kittygram/kittygram-api/internal/appconfig"
	"github.com/kittygram/kittygram-api/internal/authn"
	"github.com/kittygram/kittygram-api/internal/events"
	"github.com/kittygram/kittygram-api/internal/throttle"
	"github.com/stretchr/testify/require"
)

// noon is inside the default working hours.
var noon = time.Date(2024, 5, 14, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, db CatsDBInterface) *Service {
	t.Helper()
	cfg := appconfig.Default()
	chains, err := throttle.NewChains(cfg.Throttle, throttle.NewMemoryStore())
	require.NoError(t, err)

	return &Service{
		Config:    &cfg,
		DB:        db,
		Publisher: events.NoopNotifier{},
		Throttles: chains,
		Now:       func() time.Time { return noon },
	}
}

func newRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	return httptest.NewRequest(method, target, &buf)
}

func withUser(r *http.Request, username string) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.ClaimsKey, authn.Claims{Username: username})
	return r.WithContext(ctx)
}

func withID(r *http.Request, id string) *http.Request {
	return mux.SetURLVars(r, map[string]string{"id": id})
}
