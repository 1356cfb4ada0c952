// Package headless renders JavaScript-built pages in headless Chrome.
package headless

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"golang.org/x/sync/semaphore"

	"github.com/stplive/stp-live/internal/pipeline"
)

const (
	defaultNavTimeout = 25 * time.Second
	defaultSettle     = 500 * time.Millisecond
)

// Config controls the behavior of the headless fetcher. Settle is how long the
// page may keep running scripts after <body> is ready.
type Config struct {
	MaxParallel       int
	UserAgent         string
	AcceptLanguage    string
	NavigationTimeout time.Duration
	Settle            time.Duration
	Clock             pipeline.Clock
}

// Fetcher implements pipeline.Fetcher using chromedp. Renders share one browser
// allocator and at most MaxParallel tabs run at once.
type Fetcher struct {
	cfg         Config
	slots       *semaphore.Weighted
	allocator   context.Context
	allocCancel context.CancelFunc
}

// NewChromedp starts a browser allocator. MaxParallel of zero means unbounded.
func NewChromedp(cfg Config) (*Fetcher, error) {
	if cfg.MaxParallel < 0 {
		return nil, fmt.Errorf("max parallel must be >= 0")
	}
	f := &Fetcher{cfg: cfg}
	if cfg.MaxParallel > 0 {
		f.slots = semaphore.NewWeighted(int64(cfg.MaxParallel))
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("enable-automation", false),
	)
	f.allocator, f.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	return f, nil
}

// Close shuts the browser down.
func (f *Fetcher) Close() {
	f.allocCancel()
}

// Fetch loads the page in a fresh tab and returns the rendered DOM. Document
// status codes outside 2xx are reported like the probe reports them.
func (f *Fetcher) Fetch(ctx context.Context, request pipeline.FetchRequest) (pipeline.RawDocument, error) {
	if err := f.acquire(ctx); err != nil {
		return pipeline.RawDocument{}, classify(request.URL, err)
	}
	defer f.release()

	tab, closeTab := chromedp.NewContext(f.allocator)
	defer closeTab()
	tab, cancel := context.WithTimeout(tab, f.navTimeout())
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	resp := &documentResponse{}
	chromedp.ListenTarget(tab, resp.observe)

	var html, location string
	err := chromedp.Run(tab,
		f.identity(request.Headers),
		chromedp.Navigate(request.URL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(f.settle()),
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return pipeline.RawDocument{}, classify(request.URL, fmt.Errorf("render: %w", err))
	}

	status, finalURL := resp.result(request.URL, location)
	if status < 200 || status > 299 {
		return pipeline.RawDocument{}, &pipeline.FetchError{
			Kind:       pipeline.FetchHTTPStatus,
			URL:        request.URL,
			StatusCode: status,
		}
	}
	return pipeline.RawDocument{
		SourceURL:  finalURL,
		FetchedAt:  f.now(),
		StatusCode: status,
		Body:       html,
		Rendered:   true,
	}, nil
}

// identity applies the configured user agent and the merged request headers to the tab.
func (f *Fetcher) identity(extra http.Header) chromedp.Action {
	headers := f.requestHeaders(extra)
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable network: %w", err)
		}
		if f.cfg.UserAgent != "" {
			ua := emulation.SetUserAgentOverride(f.cfg.UserAgent)
			if f.cfg.AcceptLanguage != "" {
				ua = ua.WithAcceptLanguage(f.cfg.AcceptLanguage)
			}
			if err := ua.Do(ctx); err != nil {
				return fmt.Errorf("override user agent: %w", err)
			}
		}
		if len(headers) == 0 {
			return nil
		}
		if err := network.SetExtraHTTPHeaders(toNetworkHeaders(headers)).Do(ctx); err != nil {
			return fmt.Errorf("set headers: %w", err)
		}
		return nil
	})
}

// requestHeaders layers caller headers over the configured Accept-Language.
func (f *Fetcher) requestHeaders(extra http.Header) http.Header {
	headers := http.Header{}
	if f.cfg.AcceptLanguage != "" {
		headers.Set("Accept-Language", f.cfg.AcceptLanguage)
	}
	for key, values := range extra {
		headers[http.CanonicalHeaderKey(key)] = append([]string(nil), values...)
	}
	return headers
}

func (f *Fetcher) acquire(ctx context.Context) error {
	if f.slots == nil {
		return nil
	}
	if err := f.slots.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("wait for render slot: %w", err)
	}
	return nil
}

func (f *Fetcher) release() {
	if f.slots != nil {
		f.slots.Release(1)
	}
}

func (f *Fetcher) navTimeout() time.Duration {
	if f.cfg.NavigationTimeout > 0 {
		return f.cfg.NavigationTimeout
	}
	return defaultNavTimeout
}

func (f *Fetcher) settle() time.Duration {
	if f.cfg.Settle > 0 {
		return f.cfg.Settle
	}
	return defaultSettle
}

func (f *Fetcher) now() time.Time {
	if f.cfg.Clock != nil {
		return f.cfg.Clock.Now()
	}
	return time.Now().UTC()
}

// documentResponse remembers the status of the top-level document. Frames
// arrive later as further document responses and are ignored.
type documentResponse struct {
	mu     sync.Mutex
	seen   bool
	status int
	url    string
}

func (d *documentResponse) observe(ev any) {
	resp, ok := ev.(*network.EventResponseReceived)
	if !ok || resp.Type != network.ResourceTypeDocument || resp.Response == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen {
		return
	}
	d.seen = true
	d.status = int(resp.Response.Status)
	d.url = resp.Response.URL
}

// result prefers the browser location, then the document response URL, then
// the requested URL. A missing status is assumed to be 200.
func (d *documentResponse) result(requestURL, location string) (int, string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	url := requestURL
	switch {
	case location != "":
		url = location
	case d.url != "":
		url = d.url
	}
	status := d.status
	if status == 0 {
		status = http.StatusOK
	}
	return status, url
}

func toNetworkHeaders(h http.Header) network.Headers {
	out := network.Headers{}
	for key, values := range h {
		switch len(values) {
		case 0:
		case 1:
			out[key] = values[0]
		default:
			out[key] = append([]string(nil), values...)
		}
	}
	return out
}

func classify(url string, err error) *pipeline.FetchError {
	kind := pipeline.FetchNetwork
	if errors.Is(err, context.DeadlineExceeded) {
		kind = pipeline.FetchTimeout
	}
	return &pipeline.FetchError{Kind: kind, URL: url, Err: err}
}
