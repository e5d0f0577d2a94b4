package db

import (
	"context"
	"testing"
	"time"

	"github.com/medialib/medialib-go-server/internal/model"
)

func setupDB(t *testing.T) *DB {
	t.Helper()
	database, err := New("file:dbtest_" + t.Name() + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func TestHLTBCacheRoundTrip(t *testing.T) {
	database := setupDB(t)

	hours := 12.5
	game := &model.HLTBGame{
		ID:           "10270",
		Name:         "Hollow Knight",
		GameplayMain: &hours,
		DLCs:         []model.DLC{{ID: "52156", Name: "Godmaster"}},
	}
	if err := database.PutHLTB(game); err != nil {
		t.Fatalf("PutHLTB failed: %v", err)
	}

	got, err := database.GetHLTB("10270")
	if err != nil {
		t.Fatalf("GetHLTB failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected cache hit, got miss")
	}
	if got.Name != "Hollow Knight" {
		t.Errorf("name = %q, want %q", got.Name, "Hollow Knight")
	}
	if got.GameplayMain == nil || *got.GameplayMain != 12.5 {
		t.Errorf("gameplayMain = %v, want 12.5", got.GameplayMain)
	}
	if len(got.DLCs) != 1 || got.DLCs[0].Name != "Godmaster" {
		t.Errorf("dlcs = %v, want one Godmaster entry", got.DLCs)
	}
}

func TestHLTBCacheMiss(t *testing.T) {
	database := setupDB(t)

	got, err := database.GetHLTB("unknown")
	if err != nil {
		t.Fatalf("GetHLTB failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected miss, got %+v", got)
	}
}

func TestHLTBCacheExpiry(t *testing.T) {
	database := setupDB(t)

	if err := database.PutHLTB(&model.HLTBGame{ID: "1", Name: "Old"}); err != nil {
		t.Fatalf("PutHLTB failed: %v", err)
	}

	// Age the row past its TTL
	expired := time.Now().Add(-11 * 24 * time.Hour).UnixMilli()
	if _, err := database.Exec(`UPDATE hltbcache SET updatedAt = ? WHERE id = '1'`, expired); err != nil {
		t.Fatalf("failed to age row: %v", err)
	}

	got, err := database.GetHLTB("1")
	if err != nil {
		t.Fatalf("GetHLTB failed: %v", err)
	}
	if got != nil {
		t.Error("expected expired row to read as a miss")
	}

	// The expired row must still exist; a put overwrites it in place
	var count int
	if err := database.QueryRow(`SELECT COUNT(*) FROM hltbcache WHERE id = '1'`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("expired row count = %d, want 1", count)
	}
}

func TestHLTBCacheTTLJitter(t *testing.T) {
	database := setupDB(t)

	if err := database.PutHLTB(&model.HLTBGame{ID: "1"}); err != nil {
		t.Fatal(err)
	}
	var ttlMs int64
	if err := database.QueryRow(`SELECT ttlMs FROM hltbcache WHERE id = '1'`).Scan(&ttlMs); err != nil {
		t.Fatal(err)
	}
	if ttlMs < CacheTTLMin.Milliseconds() || ttlMs >= CacheTTLMax.Milliseconds() {
		t.Errorf("ttlMs = %d, want within [%d, %d)", ttlMs, CacheTTLMin.Milliseconds(), CacheTTLMax.Milliseconds())
	}
}

func TestTMDBCacheRoundTrip(t *testing.T) {
	database := setupDB(t)

	title := "The Matrix"
	item := &model.TMDBItem{
		ID:        "603",
		MediaType: "movie",
		TitleEn:   &title,
		Genres:    []string{"Action", "Science Fiction"},
		StreamingProviders: []model.StreamingProvider{
			{ID: 8, Name: "Netflix", Logo: "https://image.tmdb.org/t/p/w45/x.jpg"},
		},
	}
	if err := database.PutTMDB(item); err != nil {
		t.Fatalf("PutTMDB failed: %v", err)
	}

	got, err := database.GetTMDB("603", "movie")
	if err != nil {
		t.Fatalf("GetTMDB failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected cache hit, got miss")
	}
	if got.TitleEn == nil || *got.TitleEn != "The Matrix" {
		t.Errorf("titleEn = %v, want The Matrix", got.TitleEn)
	}
	if len(got.Genres) != 2 {
		t.Errorf("genres = %v, want 2 entries", got.Genres)
	}
	if len(got.StreamingProviders) != 1 || got.StreamingProviders[0].Name != "Netflix" {
		t.Errorf("streamingProviders = %v, want Netflix", got.StreamingProviders)
	}

	// Same id under a different media type is a distinct row
	other, err := database.GetTMDB("603", "series")
	if err != nil {
		t.Fatal(err)
	}
	if other != nil {
		t.Error("movie row leaked into series lookup")
	}
}

func TestSetCachedSeriesRuntime(t *testing.T) {
	database := setupDB(t)

	if err := database.PutTMDB(&model.TMDBItem{ID: "1399", MediaType: "series"}); err != nil {
		t.Fatal(err)
	}
	var before int64
	if err := database.QueryRow(`SELECT updatedAt FROM tmdbcache WHERE id = '1399'`).Scan(&before); err != nil {
		t.Fatal(err)
	}

	if err := database.SetCachedSeriesRuntime("1399", 57); err != nil {
		t.Fatalf("SetCachedSeriesRuntime failed: %v", err)
	}

	got, err := database.GetTMDB("1399", "series")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Runtime == nil || *got.Runtime != 57 {
		t.Fatalf("runtime not backfilled, got %+v", got)
	}

	// The backfill must not extend the row's life
	var after int64
	if err := database.QueryRow(`SELECT updatedAt FROM tmdbcache WHERE id = '1399'`).Scan(&after); err != nil {
		t.Fatal(err)
	}
	if after != before {
		t.Errorf("updatedAt changed from %d to %d", before, after)
	}
}

func TestEpisodeCache(t *testing.T) {
	database := setupDB(t)
	ctx := context.Background()

	rt := 57
	episodes := []model.Episode{
		{Season: 1, Episode: 1, Runtime: &rt},
		{Season: 1, Episode: 2, Runtime: &rt},
	}
	if err := database.PutEpisodes(ctx, "1399", episodes); err != nil {
		t.Fatalf("PutEpisodes failed: %v", err)
	}

	got, err := database.GetEpisodes("1399")
	if err != nil {
		t.Fatalf("GetEpisodes failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d episodes, want 2", len(got))
	}

	// Age one row past the episode TTL; staleness is judged from the
	// oldest row, so the whole set reads as a miss
	old := time.Now().Add(-31 * 24 * time.Hour).UnixMilli()
	if _, err := database.Exec(`UPDATE tmdbcacheepisodes SET updatedAt = ? WHERE season = 1 AND episode = 1`, old); err != nil {
		t.Fatal(err)
	}
	got, err = database.GetEpisodes("1399")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("expected stale episode set to read as miss, got %d rows", len(got))
	}

	if err := database.InvalidateEpisodes("1399"); err != nil {
		t.Fatal(err)
	}
	var count int
	if err := database.QueryRow(`SELECT COUNT(*) FROM tmdbcacheepisodes`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("invalidate left %d rows", count)
	}
}
