package fetcher

import (
	"context"
	"net/http"
	"net/url"
	"sync"

	"quote_spider/internal/logger"

	"github.com/temoto/robotstxt"
)

// robotsGate caches the robots.txt group for each scheme+host. The cache is
// transport state only; it holds nothing a run collects.
type robotsGate struct {
	client *http.Client
	agent  string
	log    logger.Logger

	mu     sync.Mutex
	groups map[string]*robotstxt.Group
}

func newRobotsGate(client *http.Client, agent string, log logger.Logger) *robotsGate {
	return &robotsGate{
		client: client,
		agent:  agent,
		log:    log,
		groups: make(map[string]*robotstxt.Group),
	}
}

// Allowed reports whether rawURL may be fetched. A robots.txt that cannot be
// downloaded or parsed allows everything and is retried on the next call.
func (g *robotsGate) Allowed(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return true
	}
	origin := u.Scheme + "://" + u.Host

	g.mu.Lock()
	group, ok := g.groups[origin]
	g.mu.Unlock()

	if !ok {
		group, err = g.load(ctx, origin)
		if err != nil {
			g.log.Warn("Could not load robots.txt, ignoring it",
				logger.String("origin", origin),
				logger.Error(err),
			)
			return true
		}
		g.mu.Lock()
		g.groups[origin] = group
		g.mu.Unlock()
	}

	return group.Test(u.RequestURI())
}

func (g *robotsGate) load(ctx context.Context, origin string) (*robotstxt.Group, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", g.agent)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil, err
	}
	return data.FindGroup(g.agent), nil
}
