// Package testutils provides shared testing fixtures: HTML page builders
// and stub servers for exercising the crawl pipeline without the network.
package testutils

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// CardItem is one entry of a listing page fixture.
type CardItem struct {
	Href  string
	Title string
	Date  string
}

// InsightListingPage builds a listing page whose structure matches real
// insight hubs: repeated sibling cards, each with a link and a date.
func InsightListingPage(title string, items []CardItem) string {
	var b strings.Builder
	b.WriteString("<html><head><title>")
	b.WriteString(title)
	b.WriteString("</title></head><body><main><div class=\"listing\">")
	for _, item := range items {
		fmt.Fprintf(&b,
			`<div class="card"><a href="%s">%s</a><span class="date">%s</span></div>`,
			item.Href, item.Title, item.Date)
	}
	b.WriteString("</div></main></body></html>")
	return b.String()
}

// ArticlePage builds a plain article page with a few outbound links.
func ArticlePage(title, body string, links ...string) string {
	var b strings.Builder
	b.WriteString("<html><head><title>")
	b.WriteString(title)
	b.WriteString("</title></head><body><article><h1>")
	b.WriteString(title)
	b.WriteString("</h1><p>")
	b.WriteString(body)
	b.WriteString("</p>")
	for i, link := range links {
		fmt.Fprintf(&b, `<a href="%s">related link %d</a>`, link, i+1)
	}
	b.WriteString("</article></body></html>")
	return b.String()
}

// LinkSoupPage builds a navigation-heavy page with many short links and no
// card structure or dates.
func LinkSoupPage(title string, hrefs []string) string {
	var b strings.Builder
	b.WriteString("<html><head><title>")
	b.WriteString(title)
	b.WriteString("</title></head><body><nav><ul>")
	for i, href := range hrefs {
		fmt.Fprintf(&b, `<li><a href="%s">nav %d</a></li>`, href, i+1)
	}
	b.WriteString("</ul></nav></body></html>")
	return b.String()
}

// StubSite serves a fixed set of HTML pages and counts requests per path.
type StubSite struct {
	mu     sync.Mutex
	pages  map[string]string
	hits   map[string]int
	Server *httptest.Server
}

// NewStubSite starts a server over the given path-to-HTML map. A nil map
// starts empty; add pages with SetPage.
func NewStubSite(pages map[string]string) *StubSite {
	if pages == nil {
		pages = make(map[string]string)
	}
	site := &StubSite{
		pages: pages,
		hits:  make(map[string]int),
	}
	site.Server = httptest.NewServer(http.HandlerFunc(site.handle))
	return site
}

func (s *StubSite) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.hits[r.URL.Path]++
	page, ok := s.pages[r.URL.Path]
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, page)
}

// URL returns the absolute URL for a path on the stub site.
func (s *StubSite) URL(path string) string {
	return s.Server.URL + path
}

// Hits returns how many times a path was requested.
func (s *StubSite) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// SetPage replaces a page's content, for change-detection tests.
func (s *StubSite) SetPage(path, html string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[path] = html
}

// Close shuts the server down.
func (s *StubSite) Close() {
	s.Server.Close()
}
