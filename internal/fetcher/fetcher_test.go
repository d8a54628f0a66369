package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"quote_spider/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFetcher(respectRobots bool) *Fetcher {
	return New(Config{
		Timeout:       5 * time.Second,
		UserAgent:     "QuoteSpiderTest/1.0",
		MaxHops:       2,
		RespectRobots: respectRobots,
	}, logger.NewNop())
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/tag/life", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><body><div class="quote">hi</div></body></html>`))
	})
	mux.HandleFunc("/tag/broken", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	})
	mux.HandleFunc("/private/page", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html></html>"))
	})
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("User-agent: *\nDisallow: /private/\n"))
	})
	mux.HandleFunc("/loop", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/loop", http.StatusFound)
	})
	mux.HandleFunc("/status/{code}", func(w http.ResponseWriter, r *http.Request) {
		code, _ := strconv.Atoi(r.PathValue("code"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(code)
		if code != http.StatusNoContent {
			_, _ = w.Write([]byte("<html><body>status page</body></html>"))
		}
	})
	mux.HandleFunc("/size/{n}", func(w http.ResponseWriter, r *http.Request) {
		n, _ := strconv.Atoi(r.PathValue("n"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		next := `<li class="next"><a href="/tag/life/page/2/">Next</a></li>`
		_, _ = w.Write([]byte(strings.Repeat(" ", n-len(next)) + next))
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch_Success(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	page, err := newTestFetcher(true).Fetch(context.Background(), srv.URL+"/tag/life")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/tag/life", page.URL)
	assert.Contains(t, string(page.Body), `class="quote"`)
	assert.Contains(t, page.ContentType, "text/html")
}

func TestFetch_SameURLTwice(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	f := newTestFetcher(false)

	for i := 0; i < 2; i++ {
		_, err := f.Fetch(context.Background(), srv.URL+"/tag/life")
		require.NoError(t, err, "fetch %d", i)
	}
}

func TestFetch_BadStatus(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	_, err := newTestFetcher(false).Fetch(context.Background(), srv.URL+"/tag/broken")
	require.ErrorIs(t, err, ErrBadStatus)
}

func TestFetch_NotFound(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	_, err := newTestFetcher(false).Fetch(context.Background(), srv.URL+"/tag/missing")
	require.ErrorIs(t, err, ErrBadStatus)
}

func TestFetch_StatusCodes(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	f := newTestFetcher(false)

	tests := []struct {
		name    string
		code    int
		wantErr bool
	}{
		{name: "ok", code: http.StatusOK},
		{name: "non-authoritative", code: http.StatusNonAuthoritativeInfo},
		{name: "no content", code: http.StatusNoContent},
		{name: "partial content", code: http.StatusPartialContent},
		{name: "redirect without location", code: http.StatusMovedPermanently, wantErr: true},
		{name: "not found", code: http.StatusNotFound, wantErr: true},
		{name: "server error", code: http.StatusInternalServerError, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			page, err := f.Fetch(context.Background(), srv.URL+"/status/"+strconv.Itoa(tt.code))
			if tt.wantErr {
				require.ErrorIs(t, err, ErrBadStatus)
				assert.Contains(t, err.Error(), strconv.Itoa(tt.code))
				assert.Nil(t, page)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, page)
		})
	}
}

func TestFetch_BodyLimit(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	const limit = 4096
	f := New(Config{
		Timeout:      5 * time.Second,
		UserAgent:    "QuoteSpiderTest/1.0",
		MaxHops:      2,
		MaxBodyBytes: limit,
	}, logger.NewNop())

	page, err := f.Fetch(context.Background(), srv.URL+"/size/"+strconv.Itoa(limit))
	require.NoError(t, err, "a body that exactly fits is accepted")
	assert.Len(t, page.Body, limit)
	assert.Contains(t, string(page.Body), `class="next"`)

	page, err = f.Fetch(context.Background(), srv.URL+"/size/"+strconv.Itoa(limit+1))
	require.ErrorIs(t, err, ErrBodyTooLarge, "an oversized body is never returned truncated")
	assert.Nil(t, page)
}

func TestFetch_UnlimitedBody(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	// Larger than colly's 10 MiB default.
	const size = 11 << 20
	page, err := newTestFetcher(false).Fetch(context.Background(), srv.URL+"/size/"+strconv.Itoa(size))
	require.NoError(t, err)
	assert.Len(t, page.Body, size)
	assert.True(t, strings.HasSuffix(string(page.Body), "</a></li>"))
}

func TestFetch_RobotsDisallowed(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	_, err := newTestFetcher(true).Fetch(context.Background(), srv.URL+"/private/page")
	require.ErrorIs(t, err, ErrRobotsDisallowed)

	_, err = newTestFetcher(false).Fetch(context.Background(), srv.URL+"/private/page")
	require.NoError(t, err, "robots.txt is only honoured when enabled")
}

func TestFetch_RedirectLoop(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	_, err := newTestFetcher(false).Fetch(context.Background(), srv.URL+"/loop")
	require.ErrorIs(t, err, ErrTooManyRedirects)
}

func TestFetch_CanceledBeforeStart(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestFetcher(false).Fetch(ctx, srv.URL+"/tag/life")
	require.ErrorIs(t, err, context.Canceled)
}

func TestFetch_CanceledInFlight(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := newTestFetcher(false).Fetch(ctx, srv.URL+"/slow")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestFetch_NetworkError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := newTestFetcher(false).Fetch(context.Background(), addr+"/tag/life")
	require.Error(t, err)
}
