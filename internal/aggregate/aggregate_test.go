package aggregate

import (
	"context"
	"errors"
	"testing"

	"github.com/medialib/medialib-go-server/internal/model"
	"github.com/medialib/medialib-go-server/internal/testutil"
)

type stubHLTB struct {
	game  *model.HLTBGame
	err   error
	calls int
}

func (s *stubHLTB) Game(id string) (*model.HLTBGame, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	g := *s.game
	g.ID = id
	return &g, nil
}

type stubTMDB struct {
	item     *model.TMDBItem
	episodes map[int][]model.Episode
	err      error
}

func (s *stubTMDB) Movie(id string) (*model.TMDBItem, error) {
	if s.err != nil {
		return nil, s.err
	}
	item := *s.item
	item.ID = id
	item.MediaType = "movie"
	return &item, nil
}

func (s *stubTMDB) Series(id string) (*model.TMDBItem, error) {
	if s.err != nil {
		return nil, s.err
	}
	item := *s.item
	item.ID = id
	item.MediaType = "series"
	return &item, nil
}

func (s *stubTMDB) Season(seriesID string, season int) ([]model.Episode, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.episodes[season], nil
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func floatPtr(v float64) *float64 { return &v }

func TestTypicalRuntime(t *testing.T) {
	tests := []struct {
		name     string
		runtimes []int
		want     *int
	}{
		{"empty", nil, nil},
		{"mode wins", []int{30, 30, 45}, intPtr(30)},
		{"no repeats falls back to median, even count rounds", []int{30, 45}, intPtr(38)},
		{"no repeats odd count takes middle", []int{20, 30, 45}, intPtr(30)},
		{"tied modes fall back to median", []int{30, 30, 45, 45, 60}, intPtr(45)},
		{"single value", []int{42}, intPtr(42)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := typicalRuntime(tt.runtimes)
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("got %d, want nil", *got)
			case tt.want != nil && got == nil:
				t.Errorf("got nil, want %d", *tt.want)
			case tt.want != nil && *got != *tt.want:
				t.Errorf("got %d, want %d", *got, *tt.want)
			}
		})
	}
}

func TestGameAggregationUsesCache(t *testing.T) {
	database := testutil.SetupTestDB(t)
	hltb := &stubHLTB{game: &model.HLTBGame{Name: "Celeste", GameplayMain: floatPtr(8)}}
	agg := New(database, hltb, &stubTMDB{})

	game := &model.Game{ID: 1, ExternalID: "42"}
	out := agg.Game(game)
	if out.Name != "Celeste" {
		t.Errorf("name = %q, want Celeste", out.Name)
	}
	if out.ID != "1" {
		t.Errorf("id = %q, want surrogate id as string", out.ID)
	}
	if hltb.calls != 1 {
		t.Fatalf("provider calls = %d, want 1", hltb.calls)
	}

	// Second aggregation must be served from the cache
	agg.Game(game)
	if hltb.calls != 1 {
		t.Errorf("provider calls after cached read = %d, want 1", hltb.calls)
	}
}

func TestGameAggregationDegradesOnProviderFailure(t *testing.T) {
	database := testutil.SetupTestDB(t)
	hltb := &stubHLTB{err: errors.New("upstream down")}
	agg := New(database, hltb, &stubTMDB{})

	out := agg.Game(&model.Game{ID: 7, ExternalID: "999", Status: "backlog"})
	if out.Name != "999" {
		t.Errorf("name = %q, want externalId fallback", out.Name)
	}
	if out.Status != "backlog" {
		t.Errorf("status = %q, local fields must survive", out.Status)
	}
	if out.GameplayMain != nil {
		t.Error("gameplayMain should be nil without a snapshot")
	}
}

func TestMovieTitleFallback(t *testing.T) {
	database := testutil.SetupTestDB(t)
	tmdb := &stubTMDB{item: &model.TMDBItem{TitleDe: strPtr("Das Boot")}}
	agg := New(database, &stubHLTB{}, tmdb)

	out := agg.Movie(&model.Movie{ID: 1, ExternalID: "387"})
	if out.Title != "Das Boot" {
		t.Errorf("title = %q, want titleDe fallback", out.Title)
	}
}

func TestListAggregationSortsByTitle(t *testing.T) {
	database := testutil.SetupTestDB(t)
	tmdb := &stubTMDB{err: errors.New("offline")}
	agg := New(database, &stubHLTB{}, tmdb)

	// With the provider down titles fall back to externalIds
	movies := []model.Movie{
		{ID: 1, ExternalID: "zeta"},
		{ID: 2, ExternalID: "alpha"},
		{ID: 3, ExternalID: "mid"},
	}
	out := agg.Movies(movies)
	if len(out) != 3 {
		t.Fatalf("got %d movies, want 3", len(out))
	}
	if out[0].Title != "alpha" || out[1].Title != "mid" || out[2].Title != "zeta" {
		t.Errorf("order = %q %q %q, want alphabetical", out[0].Title, out[1].Title, out[2].Title)
	}
}

func TestEpisodesFetchAndRuntimeBackfill(t *testing.T) {
	database := testutil.SetupTestDB(t)
	tmdb := &stubTMDB{
		item: &model.TMDBItem{TitleEn: strPtr("Dark"), Seasons: intPtr(2)},
		episodes: map[int][]model.Episode{
			1: {
				{Season: 1, Episode: 1, Runtime: intPtr(50)},
				{Season: 1, Episode: 2, Runtime: intPtr(50)},
			},
			2: {
				{Season: 2, Episode: 1, Runtime: intPtr(60)},
			},
		},
	}
	agg := New(database, &stubHLTB{}, tmdb)
	ctx := context.Background()

	episodes, err := agg.Episodes(ctx, "70523")
	if err != nil {
		t.Fatalf("Episodes failed: %v", err)
	}
	if len(episodes) != 3 {
		t.Fatalf("got %d episodes, want 3 across both seasons", len(episodes))
	}

	// The fetch had no series runtime, so the mode of the episode
	// runtimes must have been written back
	cached, err := database.GetTMDB("70523", "series")
	if err != nil {
		t.Fatal(err)
	}
	if cached == nil || cached.Runtime == nil || *cached.Runtime != 50 {
		t.Fatalf("backfilled runtime = %+v, want 50", cached)
	}

	// Second call is served from the episode cache
	tmdb.err = errors.New("offline")
	episodes, err = agg.Episodes(ctx, "70523")
	if err != nil {
		t.Fatalf("cached Episodes failed: %v", err)
	}
	if len(episodes) != 3 {
		t.Errorf("cached read got %d episodes, want 3", len(episodes))
	}
}
