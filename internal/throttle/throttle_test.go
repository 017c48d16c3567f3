package throttle

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kittygram/kittygram-api/internal/appconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var noon = time.Date(2024, 5, 14, 12, 0, 0, 0, time.UTC)

type stubThrottle struct {
	name     string
	decision Decision
	err      error
	calls    int
}

func (s *stubThrottle) Name() string { return s.name }

func (s *stubThrottle) Allow(context.Context, Request) (Decision, error) {
	s.calls++
	return s.decision, s.err
}

func TestChain_ShortCircuits(t *testing.T) {
	first := &stubThrottle{name: "first", decision: Decision{Allowed: true}}
	second := &stubThrottle{name: "second", decision: Decision{Wait: time.Minute}}
	third := &stubThrottle{name: "third", decision: Decision{Allowed: true}}

	d := Chain{first, second, third}.Allow(context.Background(), Request{Now: noon})

	assert.False(t, d.Allowed)
	assert.Equal(t, "second", d.Throttle)
	assert.Equal(t, time.Minute, d.Wait)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
	assert.Equal(t, 0, third.calls)
}

func TestChain_SkipsFailingThrottle(t *testing.T) {
	broken := &stubThrottle{name: "broken", err: errors.New("redis down")}
	ok := &stubThrottle{name: "ok", decision: Decision{Allowed: true}}

	d := Chain{broken, ok}.Allow(context.Background(), Request{Now: noon})

	assert.True(t, d.Allowed)
	assert.Equal(t, 1, ok.calls)
}

func TestWorkingHours(t *testing.T) {
	wh := WorkingHours{Start: 6, End: 3, Location: time.UTC}

	at := func(hour, min int) time.Time { return time.Date(2024, 5, 14, hour, min, 0, 0, time.UTC) }

	assert.True(t, wh.Open(at(0, 30)))
	assert.True(t, wh.Open(at(2, 59)))
	assert.False(t, wh.Open(at(3, 0)))
	assert.False(t, wh.Open(at(5, 59)))
	assert.True(t, wh.Open(at(6, 0)))
	assert.True(t, wh.Open(at(23, 0)))

	d, err := wh.Allow(context.Background(), Request{Now: at(4, 30)})
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 90*time.Minute, d.Wait)

	office := WorkingHours{Start: 9, End: 17, Location: time.UTC}
	assert.False(t, office.Open(at(8, 0)))
	assert.True(t, office.Open(at(16, 59)))
	assert.False(t, office.Open(at(17, 0)))

	d, err = office.Allow(context.Background(), Request{Now: at(18, 0)})
	require.NoError(t, err)
	assert.Equal(t, 15*time.Hour, d.Wait)

	assert.True(t, WorkingHours{Start: 0, End: 0}.Open(at(4, 0)))
}

func TestWorkingHours_Timezone(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	wh := WorkingHours{Start: 9, End: 17, Location: loc}

	// 07:00 UTC is 10:00 at UTC+3
	assert.True(t, wh.Open(time.Date(2024, 5, 14, 7, 0, 0, 0, time.UTC)))
	assert.False(t, wh.Open(time.Date(2024, 5, 14, 15, 0, 0, 0, time.UTC)))
}

func TestScopedRate_OnePerMinute(t *testing.T) {
	store := NewMemoryStore()
	s := ScopedRate{Store: store, Rates: Rates{"low_request": {1, time.Minute}}}
	ctx := context.Background()

	req := Request{User: "alice", Scope: "low_request", Now: noon}
	d, err := s.Allow(ctx, req)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	req.Now = noon.Add(time.Second)
	d, err = s.Allow(ctx, req)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.InDelta(t, float64(59*time.Second), float64(d.Wait), float64(time.Millisecond))

	other := Request{User: "bob", Scope: "low_request", Now: noon.Add(time.Second)}
	d, err = s.Allow(ctx, other)
	require.NoError(t, err)
	assert.True(t, d.Allowed, "identities are counted separately")

	req.Now = noon.Add(61 * time.Second)
	d, err = s.Allow(ctx, req)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestScopedRate_UnknownScope(t *testing.T) {
	s := ScopedRate{Store: NewMemoryStore(), Rates: Rates{}}

	for i := 0; i < 5; i++ {
		d, err := s.Allow(context.Background(), Request{IP: "10.0.0.1", Scope: "other", Now: noon})
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	}
}

func TestAnonRate(t *testing.T) {
	a := AnonRate{Store: NewMemoryStore(), Rate: Rate{2, time.Hour}}
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		d, err := a.Allow(ctx, Request{User: "alice", IP: "10.0.0.1", Now: noon})
		require.NoError(t, err)
		assert.True(t, d.Allowed, "authenticated callers are not limited")
	}

	anon := Request{IP: "10.0.0.1", Now: noon}
	for i := 0; i < 2; i++ {
		d, err := a.Allow(ctx, anon)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	}
	d, err := a.Allow(ctx, anon)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
}

func TestMemoryStore_Sweep(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, _, err := store.Hit(ctx, "a", Rate{1, time.Minute}, noon)
	require.NoError(t, err)
	_, _, err = store.Hit(ctx, "b", Rate{1, time.Minute}, noon.Add(time.Hour))
	require.NoError(t, err)

	assert.Equal(t, 1, store.Sweep(noon.Add(90*time.Minute), time.Hour))

	ok, _, err := store.Hit(ctx, "a", Rate{1, time.Minute}, noon.Add(90*time.Minute))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNewChains(t *testing.T) {
	cfg := appconfig.Default().Throttle
	chains, err := NewChains(cfg, NewMemoryStore())
	require.NoError(t, err)

	require.Len(t, chains.Cats, 3)
	assert.Equal(t, "working_hours", chains.Cats[0].Name())
	assert.Equal(t, "scoped", chains.Cats[1].Name())
	assert.Equal(t, "anon", chains.Cats[2].Name())

	require.Len(t, chains.Default, 2)
	assert.Equal(t, "user", chains.Default[0].Name())
	assert.Equal(t, "anon", chains.Default[1].Name())

	cfg.WorkingHours.Timezone = "Nowhere/Special"
	_, err = NewChains(cfg, NewMemoryStore())
	assert.Error(t, err)
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/cats/", nil)
	r.RemoteAddr = "192.0.2.10:5555"
	assert.Equal(t, "192.0.2.10", ClientIP(r, 0))
	assert.Equal(t, "192.0.2.10", ClientIP(r, 1), "no header falls back to the peer")

	// The caller controls every entry left of what the trusted proxies appended
	r.Header.Set("X-Forwarded-For", "198.51.100.99, 203.0.113.7, 10.0.0.1")
	assert.Equal(t, "192.0.2.10", ClientIP(r, 0), "the header is ignored without trusted proxies")
	assert.Equal(t, "10.0.0.1", ClientIP(r, 1))
	assert.Equal(t, "203.0.113.7", ClientIP(r, 2))
	assert.Equal(t, "198.51.100.99", ClientIP(r, 5), "more proxies than entries uses the leftmost")
}

func TestAnonRate_ForgedForwardedForSharesBucket(t *testing.T) {
	chains, err := NewChains(appconfig.ThrottleConfig{
		Rates:          map[string]string{"anon": "1/minute"},
		TrustedProxies: 1,
	}, NewMemoryStore())
	require.NoError(t, err)

	now := time.Date(2024, 5, 14, 12, 0, 0, 0, time.UTC)
	decide := func(forged string) Decision {
		r := httptest.NewRequest("GET", "/users/", nil)
		r.RemoteAddr = "10.0.0.1:443"
		r.Header.Set("X-Forwarded-For", forged+", 203.0.113.7")
		return chains.Default.Allow(context.Background(), Request{IP: ClientIP(r, chains.TrustedProxies), Now: now})
	}

	assert.True(t, decide("198.51.100.1").Allowed)
	d := decide("198.51.100.2")
	assert.False(t, d.Allowed, "rotating the forged entry does not reset the quota")
	assert.Equal(t, "anon", d.Throttle)
}

func TestNewChains_NegativeTrustedProxies(t *testing.T) {
	cfg := appconfig.Default().Throttle
	cfg.TrustedProxies = -1
	_, err := NewChains(cfg, NewMemoryStore())
	assert.Error(t, err)
}
