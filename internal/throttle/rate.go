package throttle

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Rate is a number of requests allowed per period.
type Rate struct {
	Requests int
	Period   time.Duration
}

func (r Rate) String() string {
	return fmt.Sprintf("%d/%s", r.Requests, r.Period)
}

var periods = map[byte]time.Duration{
	's': time.Second,
	'm': time.Minute,
	'h': time.Hour,
	'd': 24 * time.Hour,
}

// ParseRate parses rates written as "<requests>/<period>", e.g. "1/minute" or "100/d".
// Only the first letter of the period is significant.
func ParseRate(s string) (Rate, error) {
	num, period, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || period == "" {
		return Rate{}, fmt.Errorf("invalid rate %q: expected <requests>/<period>", s)
	}

	n, err := strconv.Atoi(num)
	if err != nil || n <= 0 {
		return Rate{}, fmt.Errorf("invalid rate %q: request count must be a positive integer", s)
	}

	d, ok := periods[strings.ToLower(period)[0]]
	if !ok {
		return Rate{}, fmt.Errorf("invalid rate %q: unknown period %q", s, period)
	}

	return Rate{Requests: n, Period: d}, nil
}

// Rates maps a throttle scope to its rate.
type Rates map[string]Rate

// ParseRates parses every configured scope.
func ParseRates(raw map[string]string) (Rates, error) {
	rates := make(Rates, len(raw))
	for scope, s := range raw {
		r, err := ParseRate(s)
		if err != nil {
			return nil, fmt.Errorf("scope %s: %w", scope, err)
		}
		rates[scope] = r
	}
	return rates, nil
}
