package api

import (
	"net/http"
	"testing"

	"github.com/medialib/medialib-go-server/internal/model"
)

func TestCreateMovie(t *testing.T) {
	env := setupAPI(t)

	rec := env.request(t, "POST", "/api/movies", map[string]any{
		"externalId": "603",
		"status":     "watchlist",
		"providers":  []string{"netflix"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	movie := decode[model.AggregatedMovie](t, rec)
	if movie.Title != "Title 603" {
		t.Errorf("title = %q, want provider title", movie.Title)
	}
	if len(movie.Providers) != 1 || movie.Providers[0].Provider != "netflix" {
		t.Errorf("providers = %v, want netflix", movie.Providers)
	}
}

func TestCreateMovieRejectsSeriesStatus(t *testing.T) {
	env := setupAPI(t)

	rec := env.request(t, "POST", "/api/movies", map[string]any{
		"externalId": "603",
		"status":     "paused",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for series-only status", rec.Code)
	}
}

func TestUpdateMovieRating(t *testing.T) {
	env := setupAPI(t)

	rec := env.request(t, "POST", "/api/movies", map[string]any{"externalId": "603", "status": "watchlist"})
	created := decode[model.AggregatedMovie](t, rec)

	rec = env.request(t, "PUT", "/api/movies/"+created.ID, map[string]any{"userRating": 8})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	updated := decode[model.AggregatedMovie](t, rec)
	if updated.UserRating == nil || *updated.UserRating != 8 {
		t.Errorf("userRating = %v, want 8", updated.UserRating)
	}
	if updated.Status != "watchlist" {
		t.Errorf("status = %q, omitted field must keep stored value", updated.Status)
	}

	// Out-of-range rating is rejected and leaves the stored value alone
	rec = env.request(t, "PUT", "/api/movies/"+created.ID, map[string]any{"userRating": 11})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	movie, err := env.db.GetMovie(1)
	if err != nil {
		t.Fatal(err)
	}
	if movie.UserRating == nil || *movie.UserRating != 8 {
		t.Errorf("stored userRating = %v, want unchanged 8", movie.UserRating)
	}
}

func TestSeriesProgressFlow(t *testing.T) {
	env := setupAPI(t)

	rec := env.request(t, "POST", "/api/series", map[string]any{"externalId": "1399", "status": "watching"})
	created := decode[model.AggregatedSeries](t, rec)

	rec = env.request(t, "POST", "/api/series/"+created.ID+"/progress/toggle",
		map[string]any{"season": 1, "episode": 1})
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle status = %d: %s", rec.Code, rec.Body.String())
	}
	if resp := decode[map[string]bool](t, rec); !resp["watched"] {
		t.Error("first toggle should report watched=true")
	}

	rec = env.request(t, "PUT", "/api/series/"+created.ID+"/progress/season",
		map[string]any{"season": 1, "episodes": []int{1, 2, 3}, "watched": true})
	if rec.Code != http.StatusOK {
		t.Fatalf("season progress status = %d: %s", rec.Code, rec.Body.String())
	}
	if progress := decode[[]model.EpisodeProgress](t, rec); len(progress) != 3 {
		t.Errorf("progress = %v, want 3 episodes", progress)
	}

	rec = env.request(t, "GET", "/api/series/"+created.ID+"/progress", nil)
	if progress := decode[[]model.EpisodeProgress](t, rec); len(progress) != 3 {
		t.Errorf("GET progress = %v, want 3 episodes", progress)
	}
}

func TestSeriesProgressValidation(t *testing.T) {
	env := setupAPI(t)

	rec := env.request(t, "POST", "/api/series", map[string]any{"externalId": "1399", "status": "watching"})
	created := decode[model.AggregatedSeries](t, rec)

	rec = env.request(t, "POST", "/api/series/"+created.ID+"/progress/toggle", map[string]any{"season": 1})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("toggle without episode = %d, want 400", rec.Code)
	}

	rec = env.request(t, "POST", "/api/series/999/progress/toggle", map[string]any{"season": 1, "episode": 1})
	if rec.Code != http.StatusNotFound {
		t.Errorf("toggle on unknown series = %d, want 404", rec.Code)
	}
}

func TestSeriesEpisodes(t *testing.T) {
	env := setupAPI(t)

	rec := env.request(t, "POST", "/api/series", map[string]any{"externalId": "1399", "status": "watching"})
	created := decode[model.AggregatedSeries](t, rec)

	rec = env.request(t, "GET", "/api/series/"+created.ID+"/episodes", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	episodes := decode[[]model.Episode](t, rec)
	if len(episodes) != 2 {
		t.Fatalf("got %d episodes, want 2 from the single stub season", len(episodes))
	}

	// Cached on first read; a provider outage must not affect the second
	env.tmdb.err = errUpstream
	rec = env.request(t, "GET", "/api/series/"+created.ID+"/episodes", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("cached read status = %d: %s", rec.Code, rec.Body.String())
	}
	if episodes := decode[[]model.Episode](t, rec); len(episodes) != 2 {
		t.Errorf("cached read got %d episodes, want 2", len(episodes))
	}
}

func TestDeleteSeriesCacheDropsEpisodes(t *testing.T) {
	env := setupAPI(t)

	rec := env.request(t, "POST", "/api/series", map[string]any{"externalId": "1399", "status": "watching"})
	created := decode[model.AggregatedSeries](t, rec)

	env.request(t, "GET", "/api/series/"+created.ID+"/episodes", nil)

	rec = env.request(t, "DELETE", "/api/series/"+created.ID+"/cache", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}

	episodes, err := env.db.GetEpisodes("1399")
	if err != nil {
		t.Fatal(err)
	}
	if episodes != nil {
		t.Errorf("episode cache survived invalidation: %v", episodes)
	}
	item, err := env.db.GetTMDB("1399", "series")
	if err != nil {
		t.Fatal(err)
	}
	if item != nil {
		t.Errorf("tmdb cache survived invalidation: %+v", item)
	}
}
