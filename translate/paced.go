package translate

import (
	"context"

	"golang.org/x/time/rate"
)

// Paced spaces calls to the wrapped translator with a token bucket
// (burst 1), keeping a sequential run under a provider's rate limit.
type Paced struct {
	next    Translator
	limiter *rate.Limiter
}

// NewPaced allows at most perSecond calls per second to next.
func NewPaced(next Translator, perSecond float64) *Paced {
	return &Paced{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
	}
}

func (p *Paced) Translate(ctx context.Context, text, target, source string) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", err
	}
	return p.next.Translate(ctx, text, target, source)
}
