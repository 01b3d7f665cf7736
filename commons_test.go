package quizimages

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const commonsSearchResponse = `{
	"batchcomplete": true,
	"query": {"pages": [
		{"pageid": 2, "ns": 6, "title": "File:Human skull side.svg", "index": 2,
		 "categories": [{"ns": 14, "title": "Category:Human skulls"}],
		 "imageinfo": [{"url": "https://upload.wikimedia.org/skull-side.svg", "descriptionurl": "https://commons.wikimedia.org/wiki/File:Human_skull_side.svg",
		   "width": 1024, "height": 768, "mime": "image/svg+xml",
		   "extmetadata": {"ImageDescription": {"value": "<p>Human skull, <b>lateral</b> view</p>"}}}]},
		{"pageid": 1, "ns": 6, "title": "File:Skull front.jpg", "index": 1,
		 "imageinfo": [{"url": "https://upload.wikimedia.org/skull-front.jpg", "width": 640, "height": 480, "mime": "image/jpeg"}]},
		{"pageid": 3, "ns": 6, "title": "File:Broken.jpg", "index": 3}
	]}
}`

func TestCommonsSearchFiles(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(commonsSearchResponse))
	}))
	defer srv.Close()

	c := NewCommonsClient("quizimages-test/1.0")
	c.Endpoint = srv.URL

	cands, err := c.SearchFiles(context.Background(), " human skull ", 15)
	if err != nil {
		t.Fatal(err)
	}

	q := got.URL.Query()
	if q.Get("generator") != "search" || q.Get("gsrsearch") != "human skull" || q.Get("gsrnamespace") != "6" || q.Get("gsrlimit") != "15" {
		t.Errorf("query params = %v", q)
	}
	if got.Header.Get("User-Agent") != "quizimages-test/1.0" {
		t.Errorf("user agent = %q", got.Header.Get("User-Agent"))
	}

	if len(cands) != 2 {
		t.Fatalf("got %d candidates, want 2 (page without imageinfo dropped)", len(cands))
	}
	if cands[0].Title != "File:Skull front.jpg" {
		t.Errorf("candidates should follow search rank, first = %s", cands[0].Title)
	}
	side := cands[1]
	if side.Description != "Human skull, lateral view" {
		t.Errorf("description = %q", side.Description)
	}
	if len(side.Categories) != 1 || side.Categories[0] != "Category:Human skulls" {
		t.Errorf("categories = %v", side.Categories)
	}
	if side.Query != "human skull" || side.Source != SourceCommons || side.MIME != "image/svg+xml" {
		t.Errorf("candidate = %+v", side)
	}
}

func TestCommonsCategoryMembers(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Write([]byte(commonsSearchResponse))
	}))
	defer srv.Close()

	c := NewCommonsClient("")
	c.Endpoint = srv.URL
	if _, err := c.CategoryMembers(context.Background(), "Category:Human skulls", 20); err != nil {
		t.Fatal(err)
	}
	q := got.URL.Query()
	if q.Get("generator") != "categorymembers" || q.Get("gcmtitle") != "Category:Human skulls" || q.Get("gcmtype") != "file" {
		t.Errorf("query params = %v", q)
	}
}

func TestCommonsErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("gsrsearch") == "boom" {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"error": {"code": "badvalue", "info": "Unrecognized value"}}`))
	}))
	defer srv.Close()

	c := NewCommonsClient("")
	c.Endpoint = srv.URL

	if _, err := c.SearchFiles(context.Background(), "boom", 5); err == nil || !strings.Contains(err.Error(), "503") {
		t.Errorf("http error = %v", err)
	}
	if _, err := c.SearchFiles(context.Background(), "anything", 5); err == nil || !strings.Contains(err.Error(), "badvalue") {
		t.Errorf("api error = %v", err)
	}
	if cands, err := c.SearchFiles(context.Background(), "  ", 5); err != nil || cands != nil {
		t.Errorf("empty query = %v, %v", cands, err)
	}
}
