package resolve

import (
	"context"
	"errors"

	"github.com/i474232898/weather-dashboard/internal/geo"
)

// Strategy is one way of acquiring a location, tried in order.
type Strategy interface {
	Name() string
	Resolve(ctx context.Context) (geo.Location, error)
}

// Outcome records what a single strategy produced.
type Outcome struct {
	Strategy string
	Location geo.Location
	Err      error
}

// OK reports whether the strategy produced a location.
func (o Outcome) OK() bool {
	return o.Err == nil
}

type strategyFunc struct {
	name string
	fn   func(ctx context.Context) (geo.Location, error)
}

func (s strategyFunc) Name() string {
	return s.name
}

func (s strategyFunc) Resolve(ctx context.Context) (geo.Location, error) {
	return s.fn(ctx)
}

// runChain tries each strategy in turn; the first success wins. It returns
// the winning (or last failing) outcome together with every attempt made.
func runChain(ctx context.Context, strategies []Strategy) (Outcome, []Outcome) {
	attempts := make([]Outcome, 0, len(strategies))
	last := Outcome{Err: errors.New("no location strategies configured")}

	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			last = Outcome{Strategy: s.Name(), Err: err}
			attempts = append(attempts, last)
			break
		}

		loc, err := s.Resolve(ctx)
		last = Outcome{Strategy: s.Name(), Location: loc, Err: err}
		attempts = append(attempts, last)
		if err == nil {
			break
		}
	}
	return last, attempts
}
