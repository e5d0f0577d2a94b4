package hltb

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func newStubSite(t *testing.T, tokenCalls, searchCalls *atomic.Int32, rejectFirstSearch bool) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/finder/init", func(w http.ResponseWriter, r *http.Request) {
		n := tokenCalls.Add(1)
		json.NewEncoder(w).Encode(map[string]string{"token": fmt.Sprintf("tok-%d", n)})
	})
	mux.HandleFunc("POST /api/finder", func(w http.ResponseWriter, r *http.Request) {
		searchCalls.Add(1)
		if rejectFirstSearch && r.Header.Get("x-auth-token") == "tok-1" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if r.Header.Get("x-auth-token") == "" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"game_id": 10270, "game_name": "Hollow Knight", "game_image": "hk.jpg"},
				{"game_id": 68151, "game_name": "Hollow Knight: Silksong", "game_image": ""},
			},
		})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestSearch(t *testing.T) {
	var tokenCalls, searchCalls atomic.Int32
	server := newStubSite(t, &tokenCalls, &searchCalls, false)
	client := NewClient(server.URL)

	results, err := client.Search("hollow knight")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].ID != "10270" || results[0].Name != "Hollow Knight" {
		t.Errorf("first result = %+v", results[0])
	}
	if results[0].ImageURL == nil || *results[0].ImageURL != server.URL+"/games/hk.jpg" {
		t.Errorf("imageUrl = %v, want absolute URL", results[0].ImageURL)
	}
	if results[1].ImageURL != nil {
		t.Error("empty game_image should map to nil imageUrl")
	}
}

func TestSearchReusesToken(t *testing.T) {
	var tokenCalls, searchCalls atomic.Int32
	server := newStubSite(t, &tokenCalls, &searchCalls, false)
	client := NewClient(server.URL)

	for i := 0; i < 3; i++ {
		if _, err := client.Search("x"); err != nil {
			t.Fatal(err)
		}
	}
	if got := tokenCalls.Load(); got != 1 {
		t.Errorf("token fetches = %d, want 1 within the TTL", got)
	}
}

func TestSearchRetriesOnceOn403(t *testing.T) {
	var tokenCalls, searchCalls atomic.Int32
	server := newStubSite(t, &tokenCalls, &searchCalls, true)
	client := NewClient(server.URL)

	results, err := client.Search("x")
	if err != nil {
		t.Fatalf("Search failed despite retry: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("got %d results, want 2", len(results))
	}
	if got := tokenCalls.Load(); got != 2 {
		t.Errorf("token fetches = %d, want forced refresh after 403", got)
	}
	if got := searchCalls.Load(); got != 2 {
		t.Errorf("search calls = %d, want exactly one retry", got)
	}
}

func TestSearchGivesUpAfterSecond403(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/finder/init", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"token": "t"})
	})
	var searchCalls atomic.Int32
	mux.HandleFunc("POST /api/finder", func(w http.ResponseWriter, r *http.Request) {
		searchCalls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.Search("x"); err == nil {
		t.Fatal("expected error after persistent 403")
	}
	if got := searchCalls.Load(); got != 2 {
		t.Errorf("search calls = %d, want exactly 2", got)
	}
}

func TestGameParsesEmbeddedJSON(t *testing.T) {
	pageData := map[string]any{
		"props": map[string]any{
			"pageProps": map[string]any{
				"game": map[string]any{
					"data": map[string]any{
						"game": []map[string]any{{
							"game_name":    "Hollow Knight",
							"game_image":   "hk.jpg",
							"comp_main":    95400, // 26.5h
							"comp_plus":    145800,
							"comp_100":     0,
							"comp_all":     112000,
							"review_score": 92.0,
						}},
						"relationships": []map[string]any{
							{"game_id": 52156, "game_name": "Godmaster"},
						},
					},
				},
			},
		},
	}
	raw, _ := json.Marshal(pageData)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /game/{id}", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><head></head><body>
<script id="__NEXT_DATA__" type="application/json">%s</script>
</body></html>`, raw)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(server.URL)
	game, err := client.Game("10270")
	if err != nil {
		t.Fatalf("Game failed: %v", err)
	}
	if game.Name != "Hollow Knight" {
		t.Errorf("name = %q", game.Name)
	}
	if game.GameplayMain == nil || *game.GameplayMain != 26.5 {
		t.Errorf("gameplayMain = %v, want 26.5", game.GameplayMain)
	}
	if game.GameplayComplete != nil {
		t.Error("zero seconds should map to nil hours")
	}
	if game.Rating == nil || *game.Rating != 92.0 {
		t.Errorf("rating = %v, want 92", game.Rating)
	}
	if len(game.DLCs) != 1 || game.DLCs[0].ID != "52156" {
		t.Errorf("dlcs = %v, want Godmaster", game.DLCs)
	}
	if game.ImageURL == nil || *game.ImageURL != server.URL+"/games/hk.jpg" {
		t.Errorf("imageUrl = %v", game.ImageURL)
	}
}

func TestGameMissingPageData(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /game/{id}", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body>maintenance</body></html>")
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.Game("1"); err == nil {
		t.Fatal("expected error for a page without embedded data")
	}
}

func TestToHours(t *testing.T) {
	tests := []struct {
		seconds float64
		want    float64
	}{
		{3600, 1},
		{5400, 1.5},
		{95400, 26.5},
		{1234, 0.3},
	}
	for _, tt := range tests {
		got := toHours(tt.seconds)
		if got == nil || *got != tt.want {
			t.Errorf("toHours(%v) = %v, want %v", tt.seconds, got, tt.want)
		}
	}
	if toHours(0) != nil {
		t.Error("toHours(0) should be nil")
	}
}
