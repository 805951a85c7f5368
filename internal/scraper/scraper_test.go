package scraper

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestScraper_FetchSinglePage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`
			<html>
			<head><title>Acme</title></head>
			<body>
				<h1>Hello World</h1>
				<p>We sell <b>widgets</b>.</p>
			</body>
			</html>
		`))
	}))
	defer server.Close()

	s := New(Config{
		Delay:    10 * time.Millisecond,
		MaxDepth: 1,
	})

	texts, pages, err := s.Fetch(t.Context(), []string{server.URL})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if len(texts) != 1 {
		t.Fatalf("expected 1 text, got %d", len(texts))
	}
	if !strings.Contains(texts[0], "Hello World") || !strings.Contains(texts[0], "We sell widgets") {
		t.Errorf("text = %q, want page content", texts[0])
	}
	if strings.Contains(texts[0], "<") || strings.Contains(texts[0], "#") {
		t.Errorf("text not cleaned: %q", texts[0])
	}

	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
	if !strings.HasPrefix(pages[0].URL, server.URL) {
		t.Errorf("page URL = %q, want prefix %q", pages[0].URL, server.URL)
	}
	if pages[0].Title != "Acme" {
		t.Errorf("page title = %q, want Acme", pages[0].Title)
	}
}

func TestScraper_FollowsLinksWithinDomain(t *testing.T) {
	pages := map[string]string{
		"/": `<html><body>
			<a href="/page1">Page 1</a>
			<a href="/page2">Page 2</a>
		</body></html>`,
		"/page1": `<html><body><h1>Page 1 Content</h1></body></html>`,
		"/page2": `<html><body><h1>Page 2 Content</h1></body></html>`,
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		if content, ok := pages[r.URL.Path]; ok {
			w.Write([]byte(content))
		} else {
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	s := New(Config{
		Delay:    10 * time.Millisecond,
		MaxDepth: 2,
	})

	texts, scraped, err := s.Fetch(t.Context(), []string{server.URL})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(texts) != 1 {
		t.Fatalf("expected 1 concatenated text, got %d", len(texts))
	}

	urls := make(map[string]bool)
	for _, p := range scraped {
		urls[p.URL] = true
	}
	if !urls[server.URL+"/page1"] {
		t.Error("should have scraped /page1")
	}
	if !urls[server.URL+"/page2"] {
		t.Error("should have scraped /page2")
	}
}

func TestScraper_RespectsPageLimit(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body>
			<p>index page</p>
			<a href="/a">a</a><a href="/b">b</a><a href="/c">c</a>
			<a href="/d">d</a><a href="/e">e</a>
		</body></html>`))
	})
	for _, path := range []string{"/a", "/b", "/c", "/d", "/e"} {
		p := path
		mux.HandleFunc(p, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(`<html><body><p>leaf content</p></body></html>`))
		})
	}

	server := httptest.NewServer(mux)
	defer server.Close()

	s := New(Config{
		Delay:     time.Millisecond,
		MaxDepth:  2,
		PageLimit: 3,
	})

	_, scraped, err := s.Fetch(t.Context(), []string{server.URL})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(scraped) > 3 {
		t.Errorf("scraped %d pages, want <= 3", len(scraped))
	}
}

func TestScraper_EmptySiteYieldsNoText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Internal Error", http.StatusInternalServerError)
	}))
	defer server.Close()

	s := New(Config{Delay: time.Millisecond, MaxDepth: 1})

	texts, scraped, err := s.Fetch(t.Context(), []string{server.URL})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(texts) != 0 || len(scraped) != 0 {
		t.Errorf("expected empty result, got %d texts %d pages", len(texts), len(scraped))
	}
}
