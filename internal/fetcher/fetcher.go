package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"quote_spider/internal/logger"
	"quote_spider/internal/models"

	"github.com/gocolly/colly"
)

var (
	ErrBadStatus        = errors.New("unexpected HTTP status")
	ErrRobotsDisallowed = errors.New("disallowed by robots.txt")
	ErrTooManyRedirects = errors.New("too many redirects")
	ErrBodyTooLarge     = errors.New("response body too large")
)

type Config struct {
	Timeout       time.Duration
	UserAgent     string
	MaxHops       int
	RespectRobots bool
	// MaxBodyBytes caps a page body; 0 means unlimited. A larger body is an
	// error, never a silently truncated page.
	MaxBodyBytes int
}

// Fetcher downloads listing pages. A fresh colly collector is built for every
// request so no visited-URL state survives between fetches or between runs.
type Fetcher struct {
	cfg       Config
	transport http.RoundTripper
	robots    *robotsGate
	log       logger.Logger
}

func New(cfg Config, log logger.Logger) *Fetcher {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	f := &Fetcher{
		cfg:       cfg,
		transport: transport,
		log:       log,
	}
	if cfg.RespectRobots {
		f.robots = newRobotsGate(&http.Client{Transport: transport, Timeout: cfg.Timeout}, cfg.UserAgent, log)
	}
	return f
}

// Fetch performs one GET. Any network failure, non-2xx status, robots.txt
// refusal or cancellation comes back as an error and no page.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*models.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if f.robots != nil && !f.robots.Allowed(ctx, rawURL) {
		return nil, fmt.Errorf("%w: %s", ErrRobotsDisallowed, rawURL)
	}

	// colly reads at most MaxBodySize bytes; one extra byte tells a body
	// that exactly fits apart from a truncated one.
	bodyLimit := 0
	if f.cfg.MaxBodyBytes > 0 {
		bodyLimit = f.cfg.MaxBodyBytes + 1
	}

	c := colly.NewCollector(
		colly.UserAgent(f.cfg.UserAgent),
		colly.AllowURLRevisit(),
		colly.MaxBodySize(bodyLimit),
		colly.ParseHTTPErrorResponse(),
	)
	c.WithTransport(&ctxTransport{ctx: ctx, base: f.transport})
	c.SetRequestTimeout(f.cfg.Timeout)
	c.RedirectHandler = func(req *http.Request, via []*http.Request) error {
		if len(via) >= f.cfg.MaxHops {
			return fmt.Errorf("%w: stopped after %d", ErrTooManyRedirects, f.cfg.MaxHops)
		}
		return nil
	}

	var (
		page     *models.Page
		fetchErr error
	)

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
		}
	})

	c.OnResponse(func(r *colly.Response) {
		switch {
		case r.StatusCode < 200 || r.StatusCode > 299:
			fetchErr = fmt.Errorf("%w: %d from %s", ErrBadStatus, r.StatusCode, rawURL)
			return
		case f.cfg.MaxBodyBytes > 0 && len(r.Body) > f.cfg.MaxBodyBytes:
			fetchErr = fmt.Errorf("%w: more than %d bytes from %s", ErrBodyTooLarge, f.cfg.MaxBodyBytes, rawURL)
			return
		}
		page = &models.Page{
			URL:         r.Request.URL.String(),
			ContentType: r.Headers.Get("Content-Type"),
			Body:        r.Body,
		}
	})

	c.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	if err := c.Visit(rawURL); err != nil && fetchErr == nil {
		fetchErr = err
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if fetchErr != nil {
		return nil, fetchErr
	}
	if page == nil {
		return nil, fmt.Errorf("no response for %s", rawURL)
	}

	f.log.Debug("Fetched page",
		logger.String("url", page.URL),
		logger.Int("bytes", len(page.Body)),
	)
	return page, nil
}

// ctxTransport binds every outgoing request of one fetch to the caller's
// context, so cancelling a run also aborts its in-flight request.
type ctxTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t *ctxTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.base.RoundTrip(req.WithContext(t.ctx))
}
