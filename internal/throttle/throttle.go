// Package throttle rate-limits requests with an ordered chain of independent checks.
package throttle

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Request identifies the caller and the scope being throttled.
type Request struct {
	// User is empty for anonymous callers.
	User  string
	IP    string
	Scope string
	Now   time.Time
}

// Ident is the caller identity used in counter keys.
func (r Request) Ident() string {
	if r.User != "" {
		return "user:" + r.User
	}
	return r.IP
}

// Decision is the outcome of a throttle check.
type Decision struct {
	Allowed  bool
	Wait     time.Duration
	Throttle string
}

var allow = Decision{Allowed: true}

// Throttle is a single rate-limit check.
type Throttle interface {
	Name() string
	Allow(ctx context.Context, req Request) (Decision, error)
}

// Chain evaluates throttles left to right and stops at the first rejection.
type Chain []Throttle

// Allow returns the first rejecting decision, or an allowing one. A throttle whose store
// fails is skipped so a counter outage does not take the API down.
func (c Chain) Allow(ctx context.Context, req Request) Decision {
	logger := zerolog.Ctx(ctx)
	for _, t := range c {
		d, err := t.Allow(ctx, req)
		if err != nil {
			logger.Warn().Err(err).Str("throttle", t.Name()).Msg("throttle check failed, skipping")
			continue
		}
		if !d.Allowed {
			d.Throttle = t.Name()
			return d
		}
	}
	return allow
}

// WorkingHours rejects every request outside [Start, End) in Location. A window with
// Start greater than End wraps past midnight; Start equal to End is always open.
type WorkingHours struct {
	Start    int
	End      int
	Location *time.Location
}

func (WorkingHours) Name() string { return "working_hours" }

func (w WorkingHours) local(t time.Time) time.Time {
	if w.Location != nil {
		return t.In(w.Location)
	}
	return t
}

// Open reports whether t falls inside working hours.
func (w WorkingHours) Open(t time.Time) bool {
	h := w.local(t).Hour()
	switch {
	case w.Start == w.End:
		return true
	case w.Start < w.End:
		return h >= w.Start && h < w.End
	default:
		return h >= w.Start || h < w.End
	}
}

func (w WorkingHours) Allow(_ context.Context, req Request) (Decision, error) {
	if w.Open(req.Now) {
		return allow, nil
	}

	local := w.local(req.Now)
	opens := time.Date(local.Year(), local.Month(), local.Day(), w.Start, 0, 0, 0, local.Location())
	if !opens.After(local) {
		opens = opens.AddDate(0, 0, 1)
	}
	return Decision{Wait: opens.Sub(local)}, nil
}

// ScopedRate limits each caller per scope using the rate configured for the request scope.
// Requests without a scope, or with a scope that has no rate, are not throttled.
type ScopedRate struct {
	Store Store
	Rates Rates
}

func (ScopedRate) Name() string { return "scoped" }

func (s ScopedRate) Allow(ctx context.Context, req Request) (Decision, error) {
	r, ok := s.Rates[req.Scope]
	if req.Scope == "" || !ok {
		return allow, nil
	}
	return hit(ctx, s.Store, "throttle_"+req.Scope+"_"+req.Ident(), r, req.Now)
}

// AnonRate limits anonymous callers by IP address.
type AnonRate struct {
	Store Store
	Rate  Rate
}

func (AnonRate) Name() string { return "anon" }

func (a AnonRate) Allow(ctx context.Context, req Request) (Decision, error) {
	if req.User != "" {
		return allow, nil
	}
	return hit(ctx, a.Store, "throttle_anon_"+req.IP, a.Rate, req.Now)
}

// UserRate limits every caller, by user when authenticated and by IP otherwise.
type UserRate struct {
	Store Store
	Rate  Rate
}

func (UserRate) Name() string { return "user" }

func (u UserRate) Allow(ctx context.Context, req Request) (Decision, error) {
	return hit(ctx, u.Store, "throttle_user_"+req.Ident(), u.Rate, req.Now)
}

func hit(ctx context.Context, store Store, key string, r Rate, now time.Time) (Decision, error) {
	ok, wait, err := store.Hit(ctx, key, r, now)
	if err != nil {
		return Decision{}, err
	}
	if ok {
		return allow, nil
	}
	return Decision{Wait: wait}, nil
}

// ClientIP returns the address of the caller. With trustedProxies > 0 it is the entry that many
// positions from the right of X-Forwarded-For, since only the trusted proxies appended to the
// header; otherwise, or when the header is missing, it is the host part of RemoteAddr.
func ClientIP(r *http.Request, trustedProxies int) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" && trustedProxies > 0 {
		addrs := strings.Split(xff, ",")
		n := trustedProxies
		if n > len(addrs) {
			n = len(addrs)
		}
		if ip := strings.TrimSpace(addrs[len(addrs)-n]); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
