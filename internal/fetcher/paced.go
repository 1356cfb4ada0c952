package fetcher

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/stplive/stp-live/internal/pipeline"
	"github.com/stplive/stp-live/internal/telemetry"
)

// Paced delays fetches so that no upstream host sees more than the configured
// request rate. Every host gets its own token bucket.
type Paced struct {
	next  pipeline.Fetcher
	limit rate.Limit
	burst int

	mu    sync.Mutex
	hosts map[string]*rate.Limiter
}

// NewPaced wraps next with per-host pacing. rps <= 0 means unlimited.
func NewPaced(next pipeline.Fetcher, rps float64, burst int) *Paced {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	return &Paced{
		next:  next,
		limit: limit,
		burst: burst,
		hosts: make(map[string]*rate.Limiter),
	}
}

// Fetch implements pipeline.Fetcher. The wait for a token counts against the
// request timeout: a wait that cannot finish within it is reported as a
// timeout fetch error, and the downstream fetch gets only what is left.
func (p *Paced) Fetch(ctx context.Context, request pipeline.FetchRequest) (pipeline.RawDocument, error) {
	host := hostOf(request.URL)
	waitCtx := ctx
	if request.Timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, request.Timeout)
		defer cancel()
	}

	start := time.Now()
	if err := p.limiter(host).Wait(waitCtx); err != nil {
		return pipeline.RawDocument{}, timeoutError(request.URL, err)
	}
	waited := time.Since(start)
	if waited > time.Millisecond {
		telemetry.ObservePacingDelay(host, waited)
	}
	if request.Timeout > 0 {
		request.Timeout -= waited
		if request.Timeout <= 0 {
			return pipeline.RawDocument{}, timeoutError(request.URL, context.DeadlineExceeded)
		}
	}
	return p.next.Fetch(ctx, request)
}

func timeoutError(url string, err error) *pipeline.FetchError {
	return &pipeline.FetchError{URL: url, Kind: pipeline.FetchTimeout, Err: fmt.Errorf("wait for host slot: %w", err)}
}

func (p *Paced) limiter(host string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.hosts[host]
	if !ok {
		l = rate.NewLimiter(p.limit, p.burst)
		p.hosts[host] = l
	}
	return l
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return u.Hostname()
}

// Unwrap returns the fetcher being paced.
func (p *Paced) Unwrap() pipeline.Fetcher {
	return p.next
}
