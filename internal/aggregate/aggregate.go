// Package aggregate merges locally stored library rows with cached
// provider snapshots into the shapes the API serves. Provider failures
// never fail a request: the snapshot is simply absent and display fields
// fall back to what the local row knows.
package aggregate

import (
	"context"
	"log"
	"math"
	"sort"
	"strconv"
	"sync"

	"github.com/medialib/medialib-go-server/internal/db"
	"github.com/medialib/medialib-go-server/internal/model"
)

// GameProvider is the game-length lookup, satisfied by hltb.Client.
type GameProvider interface {
	Game(id string) (*model.HLTBGame, error)
}

// MediaProvider is the movie/series lookup, satisfied by tmdb.Client.
type MediaProvider interface {
	Movie(id string) (*model.TMDBItem, error)
	Series(id string) (*model.TMDBItem, error)
	Season(seriesID string, season int) ([]model.Episode, error)
}

type Aggregator struct {
	db   *db.DB
	hltb GameProvider
	tmdb MediaProvider
}

func New(database *db.DB, hltb GameProvider, tmdb MediaProvider) *Aggregator {
	return &Aggregator{db: database, hltb: hltb, tmdb: tmdb}
}

// gameSnapshot returns the cached snapshot, fetching and caching on a
// miss. Returns nil without error when the provider is unreachable.
func (a *Aggregator) gameSnapshot(externalID string) *model.HLTBGame {
	cached, err := a.db.GetHLTB(externalID)
	if err != nil {
		log.Printf("[aggregate] hltb cache read for %s: %v", externalID, err)
		return nil
	}
	if cached != nil {
		return cached
	}

	fetched, err := a.hltb.Game(externalID)
	if err != nil {
		log.Printf("[aggregate] hltb fetch for %s: %v", externalID, err)
		return nil
	}
	if err := a.db.PutHLTB(fetched); err != nil {
		log.Printf("[aggregate] hltb cache write for %s: %v", externalID, err)
	}
	return fetched
}

// mediaSnapshot is the TMDB counterpart of gameSnapshot. For series with
// no runtime of their own it also tries the episode-based backfill using
// whatever episodes are already cached.
func (a *Aggregator) mediaSnapshot(externalID, mediaType string) *model.TMDBItem {
	cached, err := a.db.GetTMDB(externalID, mediaType)
	if err != nil {
		log.Printf("[aggregate] tmdb cache read for %s %s: %v", mediaType, externalID, err)
		return nil
	}
	if cached == nil {
		var fetchErr error
		if mediaType == "movie" {
			cached, fetchErr = a.tmdb.Movie(externalID)
		} else {
			cached, fetchErr = a.tmdb.Series(externalID)
		}
		if fetchErr != nil {
			log.Printf("[aggregate] tmdb fetch for %s %s: %v", mediaType, externalID, fetchErr)
			return nil
		}
		if err := a.db.PutTMDB(cached); err != nil {
			log.Printf("[aggregate] tmdb cache write for %s %s: %v", mediaType, externalID, err)
		}
	}

	if mediaType == "series" && cached.Runtime == nil {
		if rt := a.backfillSeriesRuntime(externalID); rt != nil {
			cached.Runtime = rt
		}
	}
	return cached
}

// backfillSeriesRuntime derives a series-level runtime from cached episode
// runtimes and persists it on the snapshot row. Only already-cached
// episodes are considered; no fetch is triggered here.
func (a *Aggregator) backfillSeriesRuntime(externalID string) *int {
	episodes, err := a.db.GetEpisodes(externalID)
	if err != nil || episodes == nil {
		return nil
	}
	var runtimes []int
	for _, ep := range episodes {
		if ep.Runtime != nil {
			runtimes = append(runtimes, *ep.Runtime)
		}
	}
	rt := typicalRuntime(runtimes)
	if rt == nil {
		return nil
	}
	if err := a.db.SetCachedSeriesRuntime(externalID, *rt); err != nil {
		log.Printf("[aggregate] runtime backfill write for %s: %v", externalID, err)
	}
	return rt
}

// typicalRuntime picks the most frequent runtime; when no single value
// dominates it falls back to the median (mean of the middle pair, rounded,
// for even counts).
func typicalRuntime(runtimes []int) *int {
	if len(runtimes) == 0 {
		return nil
	}

	counts := make(map[int]int)
	for _, rt := range runtimes {
		counts[rt]++
	}
	mode, modeCount, unique := 0, 0, true
	for rt, n := range counts {
		switch {
		case n > modeCount:
			mode, modeCount, unique = rt, n, true
		case n == modeCount:
			unique = false
		}
	}
	if unique && modeCount > 1 {
		return &mode
	}

	sorted := append([]int(nil), runtimes...)
	sort.Ints(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return &sorted[mid]
	}
	median := int(math.Round(float64(sorted[mid-1]+sorted[mid]) / 2))
	return &median
}

// Game merges one game row with its snapshot.
func (a *Aggregator) Game(g *model.Game) model.AggregatedGame {
	out := model.AggregatedGame{
		ID:         strconv.FormatInt(g.ID, 10),
		ExternalID: g.ExternalID,
		Name:       g.ExternalID,
		Status:     g.Status,
		Platforms:  g.Platforms,
		Tags:       g.Tags,
		DLCs:       []model.DLC{},
	}
	if out.Platforms == nil {
		out.Platforms = []model.Platform{}
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}

	if snap := a.gameSnapshot(g.ExternalID); snap != nil {
		if snap.Name != "" {
			out.Name = snap.Name
		}
		out.ImageURL = snap.ImageURL
		out.GameplayMain = snap.GameplayMain
		out.GameplayExtra = snap.GameplayExtra
		out.GameplayComplete = snap.GameplayComplete
		out.GameplayAll = snap.GameplayAll
		out.Rating = snap.Rating
		if snap.DLCs != nil {
			out.DLCs = snap.DLCs
		}
	}
	return out
}

// Games aggregates a whole list, one goroutine per row since each may hit
// the provider, then sorts by display name.
func (a *Aggregator) Games(games []model.Game) []model.AggregatedGame {
	out := make([]model.AggregatedGame, len(games))
	var wg sync.WaitGroup
	for i := range games {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out[i] = a.Game(&games[i])
		}(i)
	}
	wg.Wait()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Movie merges one movie row with its snapshot. The display title falls
// back through titleEn, titleDe, externalId.
func (a *Aggregator) Movie(m *model.Movie) model.AggregatedMovie {
	out := model.AggregatedMovie{
		ID:         strconv.FormatInt(m.ID, 10),
		ExternalID: m.ExternalID,
		Status:     m.Status,
		UserRating: m.UserRating,
		Providers:  m.Providers,
		Title:      m.ExternalID,
		Genres:     []string{},
	}
	if out.Providers == nil {
		out.Providers = []model.Provider{}
	}

	if snap := a.mediaSnapshot(m.ExternalID, "movie"); snap != nil {
		out.Title = displayTitle(snap, m.ExternalID)
		out.TitleDe = snap.TitleDe
		out.ImageURL = snap.ImageURL
		out.Year = snap.Year
		out.Certification = snap.Certification
		out.Rating = snap.Rating
		out.Runtime = snap.Runtime
		out.LinkURL = snap.LinkURL
		if snap.Genres != nil {
			out.Genres = snap.Genres
		}
	}
	return out
}

func (a *Aggregator) Movies(movies []model.Movie) []model.AggregatedMovie {
	out := make([]model.AggregatedMovie, len(movies))
	var wg sync.WaitGroup
	for i := range movies {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out[i] = a.Movie(&movies[i])
		}(i)
	}
	wg.Wait()

	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out
}

// Series merges one series row with its snapshot.
func (a *Aggregator) Series(s *model.Series) model.AggregatedSeries {
	out := model.AggregatedSeries{
		ID:                 strconv.FormatInt(s.ID, 10),
		ExternalID:         s.ExternalID,
		Status:             s.Status,
		UserRating:         s.UserRating,
		Providers:          s.Providers,
		Title:              s.ExternalID,
		Genres:             []string{},
		StreamingProviders: []model.StreamingProvider{},
	}
	if out.Providers == nil {
		out.Providers = []model.Provider{}
	}

	if snap := a.mediaSnapshot(s.ExternalID, "series"); snap != nil {
		out.Title = displayTitle(snap, s.ExternalID)
		out.TitleDe = snap.TitleDe
		out.ImageURL = snap.ImageURL
		out.Year = snap.Year
		out.Certification = snap.Certification
		out.Rating = snap.Rating
		out.Runtime = snap.Runtime
		out.Seasons = snap.Seasons
		out.Episodes = snap.Episodes
		out.LinkURL = snap.LinkURL
		if snap.Genres != nil {
			out.Genres = snap.Genres
		}
		if snap.StreamingProviders != nil {
			out.StreamingProviders = snap.StreamingProviders
		}
	}
	return out
}

func (a *Aggregator) SeriesList(series []model.Series) []model.AggregatedSeries {
	out := make([]model.AggregatedSeries, len(series))
	var wg sync.WaitGroup
	for i := range series {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out[i] = a.Series(&series[i])
		}(i)
	}
	wg.Wait()

	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out
}

// Episodes returns the episode list of a series, fetching and caching all
// seasons on a cache miss. A fresh fetch also triggers the runtime
// backfill, since new episode runtimes may have arrived.
func (a *Aggregator) Episodes(ctx context.Context, externalID string) ([]model.Episode, error) {
	cached, err := a.db.GetEpisodes(externalID)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		return cached, nil
	}

	snap := a.mediaSnapshot(externalID, "series")
	if snap == nil || snap.Seasons == nil {
		return []model.Episode{}, nil
	}

	var episodes []model.Episode
	for season := 1; season <= *snap.Seasons; season++ {
		eps, err := a.tmdb.Season(externalID, season)
		if err != nil {
			return nil, err
		}
		episodes = append(episodes, eps...)
	}
	if len(episodes) == 0 {
		return []model.Episode{}, nil
	}

	if err := a.db.PutEpisodes(ctx, externalID, episodes); err != nil {
		log.Printf("[aggregate] episode cache write for %s: %v", externalID, err)
	}
	if snap.Runtime == nil {
		a.backfillSeriesRuntime(externalID)
	}
	return episodes, nil
}

func displayTitle(snap *model.TMDBItem, fallback string) string {
	if snap.TitleEn != nil && *snap.TitleEn != "" {
		return *snap.TitleEn
	}
	if snap.TitleDe != nil && *snap.TitleDe != "" {
		return *snap.TitleDe
	}
	return fallback
}
