package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/medialib/medialib-go-server/internal/aggregate"
	"github.com/medialib/medialib-go-server/internal/db"
	"github.com/medialib/medialib-go-server/internal/model"
	"github.com/medialib/medialib-go-server/internal/testutil"
)

// fakeHLTB satisfies both the passthrough interface and the aggregator's
// provider interface.
type fakeHLTB struct {
	err error
}

func (f *fakeHLTB) Search(query string) ([]model.SearchResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	name := query + " result"
	return []model.SearchResult{{ID: "1", Name: name}}, nil
}

func (f *fakeHLTB) Game(id string) (*model.HLTBGame, error) {
	if f.err != nil {
		return nil, f.err
	}
	hours := 10.0
	return &model.HLTBGame{ID: id, Name: "Game " + id, GameplayMain: &hours, DLCs: []model.DLC{}}, nil
}

type fakeTMDB struct {
	err error
}

func (f *fakeTMDB) Search(query, mediaType string) ([]model.MediaSearchResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	title := query + " result"
	return []model.MediaSearchResult{{ID: "1", TitleEn: &title}}, nil
}

func (f *fakeTMDB) item(id, mediaType string) (*model.TMDBItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	title := "Title " + id
	seasons := 1
	item := &model.TMDBItem{
		ID:                 id,
		MediaType:          mediaType,
		TitleEn:            &title,
		Genres:             []string{"Drama"},
		StreamingProviders: []model.StreamingProvider{},
	}
	if mediaType == "series" {
		item.Seasons = &seasons
	}
	return item, nil
}

func (f *fakeTMDB) Movie(id string) (*model.TMDBItem, error) { return f.item(id, "movie") }

func (f *fakeTMDB) Series(id string) (*model.TMDBItem, error) { return f.item(id, "series") }

func (f *fakeTMDB) Season(seriesID string, season int) ([]model.Episode, error) {
	if f.err != nil {
		return nil, f.err
	}
	rt := 45
	return []model.Episode{
		{Season: season, Episode: 1, Runtime: &rt},
		{Season: season, Episode: 2, Runtime: &rt},
	}, nil
}

type testEnv struct {
	db      *db.DB
	handler http.Handler
	hltb    *fakeHLTB
	tmdb    *fakeTMDB
}

func setupAPI(t *testing.T) *testEnv {
	return setupAPIWithPassword(t, "")
}

func setupAPIWithPassword(t *testing.T, passwordHash string) *testEnv {
	t.Helper()

	database := testutil.SetupTestDB(t)
	hltbStub := &fakeHLTB{}
	tmdbStub := &fakeTMDB{}
	agg := aggregate.New(database, hltbStub, tmdbStub)

	handler := NewRouter(RouterConfig{
		DB:           database,
		Agg:          agg,
		HLTB:         hltbStub,
		TMDB:         tmdbStub,
		PasswordHash: passwordHash,
		FrontendURL:  "http://localhost:5173",
	})

	return &testEnv{db: database, handler: handler, hltb: hltbStub, tmdb: tmdbStub}
}

func (env *testEnv) request(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(buf)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

var errUpstream = errors.New("upstream unavailable")
