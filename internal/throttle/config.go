package throttle

import (
	"fmt"
	"time"

	"github.com/kittygram/kittygram-api/internal/appconfig"
)

// LowRequestScope is the scope the cats endpoint is throttled under.
const LowRequestScope = "low_request"

// Chains holds the throttle chain of every endpoint.
type Chains struct {
	// Cats is checked by the cats endpoint: working hours, then the request scope, then anonymous callers.
	Cats Chain
	// Default is checked by every other endpoint.
	Default Chain
	// TrustedProxies is passed to ClientIP when identifying anonymous callers.
	TrustedProxies int
}

// NewChains builds the throttle chains from configuration.
func NewChains(cfg appconfig.ThrottleConfig, store Store) (*Chains, error) {
	rates, err := ParseRates(cfg.Rates)
	if err != nil {
		return nil, err
	}

	loc := time.UTC
	if cfg.WorkingHours.Timezone != "" {
		loc, err = time.LoadLocation(cfg.WorkingHours.Timezone)
		if err != nil {
			return nil, fmt.Errorf("working hours timezone: %w", err)
		}
	}
	for _, h := range []int{cfg.WorkingHours.Start, cfg.WorkingHours.End} {
		if h < 0 || h > 23 {
			return nil, fmt.Errorf("working hours must be between 0 and 23, got %d", h)
		}
	}

	workingHours := WorkingHours{Start: cfg.WorkingHours.Start, End: cfg.WorkingHours.End, Location: loc}

	if cfg.TrustedProxies < 0 {
		return nil, fmt.Errorf("trusted proxies must not be negative, got %d", cfg.TrustedProxies)
	}

	chains := &Chains{
		Cats:           Chain{workingHours, ScopedRate{Store: store, Rates: rates}},
		TrustedProxies: cfg.TrustedProxies,
	}
	if anon, ok := rates["anon"]; ok {
		anonRate := AnonRate{Store: store, Rate: anon}
		chains.Cats = append(chains.Cats, anonRate)
		if user, ok := rates["user"]; ok {
			chains.Default = append(chains.Default, UserRate{Store: store, Rate: user})
		}
		chains.Default = append(chains.Default, anonRate)
	} else if user, ok := rates["user"]; ok {
		chains.Default = append(chains.Default, UserRate{Store: store, Rate: user})
	}

	return chains, nil
}
