package urlqueue

import (
	"fmt"
	"net/url"
	"strings"
)

// SeedURL builds the first listing page for a tag: base + "/" + tag, with the
// tag path-escaped and exactly one slash between the two.
func SeedURL(base, tag string) string {
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + url.PathEscape(tag)
}

// Resolve turns href into an absolute URL relative to pageURL.
func Resolve(pageURL, href string) (string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("parse page url %q: %w", pageURL, err)
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", fmt.Errorf("parse href %q: %w", href, err)
	}
	return base.ResolveReference(ref).String(), nil
}

// Frontier holds the single pending link of one run. It is owned by that run
// and is not safe for concurrent use.
//
// There is no visited set: a next-link cycle is followed forever.
type Frontier struct {
	pending string
	has     bool
	popped  int
}

func NewFrontier(seed string) *Frontier {
	return &Frontier{pending: seed, has: true}
}

// Push replaces the pending link. An empty link leaves the frontier exhausted.
func (f *Frontier) Push(link string) {
	f.pending = link
	f.has = link != ""
}

func (f *Frontier) Pop() (string, bool) {
	if !f.has {
		return "", false
	}
	link := f.pending
	f.pending, f.has = "", false
	f.popped++
	return link, true
}

// Popped is the number of links handed out so far, i.e. pages attempted.
func (f *Frontier) Popped() int {
	return f.popped
}
