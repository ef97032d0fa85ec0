package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimitedClient throttles a Client with a token bucket
type RateLimitedClient struct {
	Client
	limiter *rate.Limiter
}

// NewRateLimited wraps c so it issues at most rps requests per second, with a
// burst of twice that. A non-positive rps returns c unchanged.
func NewRateLimited(c Client, rps float64) Client {
	if rps <= 0 {
		return c
	}
	return &RateLimitedClient{
		Client:  c,
		limiter: rate.NewLimiter(rate.Limit(rps), max(1, int(rps*2))),
	}
}

func (c *RateLimitedClient) Complete(ctx context.Context, req *Request) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrRateLimited, err)
	}
	return c.Client.Complete(ctx, req)
}
