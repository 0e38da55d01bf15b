package wikiapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

// newTestClient wires a Client to a canned handler.
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{BaseURL: server.URL})
}

// ==================== Search Tests ====================

func TestSearchPaginatesThroughContinuation(t *testing.T) {
	var calls int
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if got := r.URL.Query().Get("action"); got != "query" {
			t.Errorf("action = %q", got)
		}
		if got := r.URL.Query().Get("srsearch"); got != "anime" {
			t.Errorf("srsearch = %q", got)
		}

		switch r.URL.Query().Get("sroffset") {
		case "":
			fmt.Fprint(w, `{
				"continue": {"sroffset": 2, "continue": "-||"},
				"query": {
					"searchinfo": {"totalhits": 3},
					"search": [
						{"pageid": 1, "title": "One"},
						{"pageid": 2, "title": "Two"}
					]
				}
			}`)
		case "2":
			fmt.Fprint(w, `{
				"query": {
					"searchinfo": {"totalhits": 3},
					"search": [{"pageid": 3, "title": "Three"}]
				}
			}`)
		default:
			t.Errorf("unexpected sroffset %q", r.URL.Query().Get("sroffset"))
		}
	})

	ctx := context.Background()
	cursor, total, err := client.Search(ctx, "anime", 2)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}

	var titles []string
	for {
		hit, ok, err := cursor.Next(ctx)
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if !ok {
			break
		}
		titles = append(titles, hit.Title)
	}
	if len(titles) != 3 || titles[0] != "One" || titles[2] != "Three" {
		t.Errorf("titles = %v", titles)
	}
	if calls != 2 {
		t.Errorf("expected 2 API calls, got %d", calls)
	}
}

func TestSearchCursorSeekRefetches(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		offset := r.URL.Query().Get("sroffset")
		if offset == "" {
			offset = "0"
		}
		fmt.Fprintf(w, `{
			"query": {
				"searchinfo": {"totalhits": 100},
				"search": [{"pageid": 1, "title": "At offset %s"}]
			}
		}`, offset)
	})

	ctx := context.Background()
	cursor, _, err := client.Search(ctx, "x", 1)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	hit, _, _ := cursor.Next(ctx)
	if hit.Title != "At offset 0" {
		t.Errorf("first hit = %q", hit.Title)
	}

	cursor.Seek(50)
	hit, ok, err := cursor.Next(ctx)
	if err != nil || !ok {
		t.Fatalf("Next after Seek: ok=%v err=%v", ok, err)
	}
	if hit.Title != "At offset 50" {
		t.Errorf("hit after Seek = %q", hit.Title)
	}
}

// ==================== Page Fetch Tests ====================

func TestFindPageReturnsSource(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("prop"); got != "revisions" {
			t.Errorf("prop = %q", got)
		}
		fmt.Fprint(w, `{
			"query": {
				"pages": [{
					"pageid": 42,
					"title": "Example",
					"revisions": [{"content": "{{Infobox thing|a=1}} body"}]
				}]
			}
		}`)
	})

	page, err := client.FindPage(context.Background(), "Example", true)
	if err != nil {
		t.Fatalf("FindPage failed: %v", err)
	}
	if page.PageID != 42 || page.Title != "Example" {
		t.Errorf("page = %+v", page)
	}
	if page.Source != "{{Infobox thing|a=1}} body" {
		t.Errorf("source = %q", page.Source)
	}
}

func TestFindPageFollowsRenames(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"query": {
				"normalized": [{"from": "old name", "to": "Old name"}],
				"redirects": [{"from": "Old name", "to": "New name"}],
				"pages": [{
					"pageid": 7,
					"title": "New name",
					"revisions": [{"content": "redirect target source"}]
				}]
			}
		}`)
	})

	page, err := client.FindPage(context.Background(), "old name", true)
	if err != nil {
		t.Fatalf("FindPage failed: %v", err)
	}
	if page.Title != "New name" {
		t.Errorf("title = %q", page.Title)
	}
}

func TestFindPageRedirectLoopTerminates(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"query": {
				"redirects": [
					{"from": "A", "to": "B"},
					{"from": "B", "to": "A"}
				],
				"pages": [{"title": "A", "missing": true}]
			}
		}`)
	})

	_, err := client.FindPage(context.Background(), "A", true)
	if !errors.Is(err, ErrMissingPage) {
		t.Fatalf("Looped redirects should resolve to a miss, got %v", err)
	}
}

func TestFindPageSelfRedirectTerminates(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"query": {
				"redirects": [{"from": "A", "to": "A"}],
				"pages": [{
					"pageid": 9,
					"title": "A",
					"revisions": [{"content": "self target source"}]
				}]
			}
		}`)
	})

	page, err := client.FindPage(context.Background(), "A", true)
	if err != nil {
		t.Fatalf("FindPage failed: %v", err)
	}
	if page.Source != "self target source" {
		t.Errorf("source = %q", page.Source)
	}
}

func TestFindPageMissing(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"query": {"pages": [{"title": "Nope", "missing": true}]}}`)
	})

	_, err := client.FindPage(context.Background(), "Nope", true)
	if !errors.Is(err, ErrMissingPage) {
		t.Fatalf("Expected ErrMissingPage, got %v", err)
	}
}

func TestFindPagesMapsEachTitle(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"query": {
				"pages": [
					{"pageid": 1, "title": "A", "revisions": [{"content": "a source"}]},
					{"title": "B", "missing": true}
				]
			}
		}`)
	})

	pages, err := client.FindPages(context.Background(), []string{"A", "B"}, false)
	if err != nil {
		t.Fatalf("FindPages failed: %v", err)
	}
	if pages["A"] == nil || pages["A"].Source != "a source" {
		t.Errorf("pages[A] = %+v", pages["A"])
	}
	if pages["B"] != nil {
		t.Errorf("pages[B] should be nil, got %+v", pages["B"])
	}
}

// ==================== PageSource Tests ====================

func TestFetchMissingPageIsNotAnError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"query": {"pages": [{"title": "Template:X", "missing": true}]}}`)
	})

	source, ok, err := client.Fetch(context.Background(), "Template:X")
	if err != nil {
		t.Fatalf("Fetch should absorb missing pages, got %v", err)
	}
	if ok || source != "" {
		t.Errorf("Expected ok=false, got ok=%v source=%q", ok, source)
	}
}

func TestFetchServerErrorIsAnError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, ok, err := client.Fetch(context.Background(), "Template:X")
	if err == nil || ok {
		t.Errorf("Expected error from server failure, got ok=%v err=%v", ok, err)
	}
}

// ==================== Page Method Tests ====================

func TestPageTemplatesAndUnlink(t *testing.T) {
	page := &Page{
		Title:  "T",
		Source: "{{Infobox a|x=[[L|alias]]}} {{Cite}}",
	}

	boxes, err := page.Infoboxes()
	if err != nil {
		t.Fatalf("Infoboxes failed: %v", err)
	}
	if len(boxes) != 1 || boxes[0].Name() != "Infobox a" {
		t.Fatalf("boxes = %v", boxes)
	}

	page.Unlink()
	if page.Source != "{{Infobox a|x=alias}} {{Cite}}" {
		t.Errorf("unlinked source = %q", page.Source)
	}

	finder, err := page.Templates(nil)
	if err != nil {
		t.Fatalf("Templates failed: %v", err)
	}
	all, err := finder.All()
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Expected 2 templates, got %d", len(all))
	}
}
