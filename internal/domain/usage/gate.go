package usage

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrMalformedQuota indicates a usage header that is not "<current>/<limit>".
	ErrMalformedQuota = errors.New("malformed usage quota")
	// ErrLimitReached indicates a create blocked by the last reported quota.
	ErrLimitReached = errors.New("usage limit reached")
)

// Gate is the derived state of one quota.
type Gate struct {
	IsLimitReached bool `json:"isLimitReached"`
	IsNearLimit    bool `json:"isNearLimit"`
}

// Evaluate derives the gate for a counter. A limit of zero or less means
// unlimited and never trips.
func Evaluate(current, limit int64) Gate {
	if limit <= 0 {
		return Gate{}
	}
	reached := current >= limit
	return Gate{
		IsLimitReached: reached,
		IsNearLimit:    !reached && current*10 >= limit*8,
	}
}

// Quota is one server-reported usage counter.
type Quota struct {
	Current int64 `json:"current"`
	Limit   int64 `json:"limit"`
}

// ParseQuota parses a "<current>/<limit>" header value.
func ParseQuota(raw string) (Quota, error) {
	cur, lim, ok := strings.Cut(strings.TrimSpace(raw), "/")
	if !ok {
		return Quota{}, fmt.Errorf("%w: %q", ErrMalformedQuota, raw)
	}
	current, err := strconv.ParseInt(strings.TrimSpace(cur), 10, 64)
	if err != nil {
		return Quota{}, fmt.Errorf("%w: %q", ErrMalformedQuota, raw)
	}
	limit, err := strconv.ParseInt(strings.TrimSpace(lim), 10, 64)
	if err != nil {
		return Quota{}, fmt.Errorf("%w: %q", ErrMalformedQuota, raw)
	}
	if current < 0 || limit < 0 {
		return Quota{}, fmt.Errorf("%w: %q", ErrMalformedQuota, raw)
	}
	return Quota{Current: current, Limit: limit}, nil
}

// Gate evaluates the quota.
func (q Quota) Gate() Gate {
	return Evaluate(q.Current, q.Limit)
}

// Percent returns usage as a percentage capped at 100. Unlimited quotas
// report zero.
func (q Quota) Percent() float64 {
	if q.Limit <= 0 {
		return 0
	}
	p := float64(q.Current) / float64(q.Limit) * 100
	if p > 100 {
		return 100
	}
	return p
}

func (q Quota) String() string {
	return fmt.Sprintf("%d/%d", q.Current, q.Limit)
}
