package news

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func articlesJSON(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf(`{"source":{"id":null,"name":"Wire %d"},"title":"Headline %d","description":"d","url":"https://example.com/%d","publishedAt":"2024-03-0%dT12:00:00Z"}`, i, i, i, i%9+1)
	}
	return `{"status":"ok","totalResults":` + fmt.Sprint(n) + `,"articles":[` + strings.Join(parts, ",") + `]}`
}

func TestHeadlines_FirstFive(t *testing.T) {
	var query, key string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Path + "?" + r.URL.RawQuery
		key = r.Header.Get("X-Api-Key")
		w.Write([]byte(articlesJSON(8)))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", 0, "")
	got, err := c.Headlines(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("articles = %d, want 5", len(got))
	}
	if got[0].Title != "Headline 0" || got[4].Source.Name != "Wire 4" || got[0].PublishedAt.Day() != 1 {
		t.Errorf("unexpected articles: %+v", got)
	}
	for _, want := range []string{"/v2/everything", "q=AAPL", "sortBy=publishedAt"} {
		if !strings.Contains(query, want) {
			t.Errorf("query %q missing %q", query, want)
		}
	}
	if key != "secret" {
		t.Errorf("X-Api-Key = %q, want secret", key)
	}
	if strings.Contains(query, "secret") {
		t.Errorf("api key leaked into query %q", query)
	}
}

func TestHeadlines_TransportErrorHidesKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	got, err := NewClient(base, "topsecret", 5, "").Headlines(context.Background(), "AAPL")
	if err == nil {
		t.Fatal("expected error from closed server")
	}
	if strings.Contains(err.Error(), "topsecret") {
		t.Errorf("error exposes api key: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", got)
	}
}

func TestHeadlines_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"status":"error","code":"apiKeyInvalid"}`))
	}))
	defer srv.Close()

	got, err := NewClient(srv.URL, "bad", 5, "").Headlines(context.Background(), "AAPL")
	if err == nil {
		t.Fatal("expected error")
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", got)
	}
}

func TestHeadlines_NoKey(t *testing.T) {
	got, err := NewClient("http://127.0.0.1:0", "", 5, "").Headlines(context.Background(), "AAPL")
	if err == nil || len(got) != 0 {
		t.Errorf("expected error and no articles, got %v %v", got, err)
	}
}
