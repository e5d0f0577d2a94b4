// Package tmdb fetches movie and series metadata from The Movie Database.
// Every lookup is done twice, in de-DE and en-US, and merged into one
// snapshot carrying both titles plus the German certification and
// streaming availability.
package tmdb

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/medialib/medialib-go-server/internal/model"
)

const (
	DefaultBaseURL = "https://api.themoviedb.org/3"
	imageBaseURL   = "https://image.tmdb.org/t/p"
	siteBaseURL    = "https://www.themoviedb.org"
)

// Streaming providers shown to the user. Everything else TMDB lists for
// the DE region (channel add-ons, resellers) is noise.
var providerAllowList = map[int]bool{
	8:    true, // Netflix
	9:    true, // Amazon Prime Video
	30:   true, // WOW
	283:  true, // Crunchyroll
	337:  true, // Disney Plus
	350:  true, // Apple TV+
	531:  true, // Paramount Plus
	1899: true, // Max
}

type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) get(path string, params url.Values, out any) error {
	params.Set("api_key", c.apiKey)
	resp, err := c.client.Get(c.baseURL + path + "?" + params.Encode())
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tmdb %s: HTTP %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Wire shapes. Movie and TV details share most fields; the differences
// (release_dates vs content_ratings, runtime vs episode_run_time) are all
// optional so one struct covers both.
type detailResponse struct {
	Title            string  `json:"title"`
	Name             string  `json:"name"`
	OriginalTitle    string  `json:"original_title"`
	OriginalName     string  `json:"original_name"`
	PosterPath       string  `json:"poster_path"`
	ReleaseDate      string  `json:"release_date"`
	FirstAirDate     string  `json:"first_air_date"`
	VoteAverage      float64 `json:"vote_average"`
	Runtime          int     `json:"runtime"`
	EpisodeRunTime   []int   `json:"episode_run_time"`
	NumberOfSeasons  int     `json:"number_of_seasons"`
	NumberOfEpisodes int     `json:"number_of_episodes"`
	OriginalLanguage string  `json:"original_language"`
	Genres           []struct {
		Name string `json:"name"`
	} `json:"genres"`
	ReleaseDates struct {
		Results []struct {
			ISO31661     string `json:"iso_3166_1"`
			ReleaseDates []struct {
				Certification string `json:"certification"`
			} `json:"release_dates"`
		} `json:"results"`
	} `json:"release_dates"`
	ContentRatings struct {
		Results []struct {
			ISO31661 string `json:"iso_3166_1"`
			Rating   string `json:"rating"`
		} `json:"results"`
	} `json:"content_ratings"`
	WatchProviders struct {
		Results map[string]struct {
			Flatrate []struct {
				ProviderID   int    `json:"provider_id"`
				ProviderName string `json:"provider_name"`
				LogoPath     string `json:"logo_path"`
			} `json:"flatrate"`
		} `json:"results"`
	} `json:"watch/providers"`
}

// Movie fetches one movie in both locales and merges the results.
func (c *Client) Movie(id string) (*model.TMDBItem, error) {
	var de, en detailResponse
	if err := c.get("/movie/"+id, url.Values{
		"language":           {"de-DE"},
		"append_to_response": {"release_dates,watch/providers"},
	}, &de); err != nil {
		return nil, err
	}
	if err := c.get("/movie/"+id, url.Values{"language": {"en-US"}}, &en); err != nil {
		return nil, err
	}

	item := c.mergeDetail(id, "movie", &de, &en)
	item.LinkURL = ptr(fmt.Sprintf("%s/movie/%s", siteBaseURL, id))
	if de.Runtime > 0 {
		item.Runtime = &de.Runtime
	}
	item.Year = yearOf(de.ReleaseDate)
	item.Certification = deCertificationMovie(&de)
	return item, nil
}

// Series fetches one TV series in both locales and merges the results.
// The series-level runtime is TMDB's episode_run_time when present; when
// absent it is backfilled later from cached episode runtimes.
func (c *Client) Series(id string) (*model.TMDBItem, error) {
	var de, en detailResponse
	if err := c.get("/tv/"+id, url.Values{
		"language":           {"de-DE"},
		"append_to_response": {"content_ratings,watch/providers"},
	}, &de); err != nil {
		return nil, err
	}
	if err := c.get("/tv/"+id, url.Values{"language": {"en-US"}}, &en); err != nil {
		return nil, err
	}

	item := c.mergeDetail(id, "series", &de, &en)
	item.LinkURL = ptr(fmt.Sprintf("%s/tv/%s", siteBaseURL, id))
	if len(de.EpisodeRunTime) > 0 && de.EpisodeRunTime[0] > 0 {
		item.Runtime = &de.EpisodeRunTime[0]
	}
	if de.NumberOfSeasons > 0 {
		item.Seasons = &de.NumberOfSeasons
	}
	if de.NumberOfEpisodes > 0 {
		item.Episodes = &de.NumberOfEpisodes
	}
	item.Year = yearOf(de.FirstAirDate)
	item.Certification = deCertificationTV(&de)
	return item, nil
}

// mergeDetail combines the locale-independent and per-locale fields.
// titleDe is always the de-DE title. titleEn prefers the work's original
// title, except for German originals where that would duplicate titleDe,
// so those take the en-US translation instead.
func (c *Client) mergeDetail(id, mediaType string, de, en *detailResponse) *model.TMDBItem {
	item := &model.TMDBItem{
		ID:                 id,
		MediaType:          mediaType,
		Genres:             []string{},
		StreamingProviders: []model.StreamingProvider{},
	}

	enTitle := firstNonEmpty(en.Title, en.Name)
	item.TitleDe = nonEmpty(firstNonEmpty(de.Title, de.Name))
	if de.OriginalLanguage == "de" {
		item.TitleEn = nonEmpty(enTitle)
	} else {
		item.TitleEn = nonEmpty(firstNonEmpty(firstNonEmpty(en.OriginalTitle, en.OriginalName), enTitle))
	}

	if de.PosterPath != "" {
		item.ImageURL = ptr(imageBaseURL + "/w500" + de.PosterPath)
	}
	if de.VoteAverage > 0 {
		r := math.Round(de.VoteAverage*10) / 10
		item.Rating = &r
	}
	if de.OriginalLanguage != "" {
		item.OriginalLang = &de.OriginalLanguage
	}
	// English genre names; the de-DE fetch returns localized ones.
	for _, g := range en.Genres {
		item.Genres = append(item.Genres, g.Name)
	}
	if region, ok := de.WatchProviders.Results["DE"]; ok {
		for _, p := range region.Flatrate {
			if !providerAllowList[p.ProviderID] {
				continue
			}
			item.StreamingProviders = append(item.StreamingProviders, model.StreamingProvider{
				ID:   p.ProviderID,
				Name: p.ProviderName,
				Logo: imageBaseURL + "/w45" + p.LogoPath,
			})
		}
	}
	return item
}

func deCertificationMovie(de *detailResponse) *string {
	for _, r := range de.ReleaseDates.Results {
		if r.ISO31661 != "DE" {
			continue
		}
		for _, rd := range r.ReleaseDates {
			if rd.Certification != "" {
				return ptr(rd.Certification)
			}
		}
	}
	return nil
}

func deCertificationTV(de *detailResponse) *string {
	for _, r := range de.ContentRatings.Results {
		if r.ISO31661 == "DE" && r.Rating != "" {
			return ptr(r.Rating)
		}
	}
	return nil
}

type searchResult struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	Name             string  `json:"name"`
	OriginalTitle    string  `json:"original_title"`
	OriginalName     string  `json:"original_name"`
	OriginalLanguage string  `json:"original_language"`
	PosterPath       string  `json:"poster_path"`
	ReleaseDate      string  `json:"release_date"`
	FirstAirDate     string  `json:"first_air_date"`
	VoteAverage      float64 `json:"vote_average"`
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

// Search queries /search/movie or /search/tv in both locales. The de-DE
// response drives the merged list and its ordering; en-US is only the
// lookup side for English titles of German originals. Capped at 20.
func (c *Client) Search(query, mediaType string) ([]model.MediaSearchResult, error) {
	path := "/search/movie"
	if mediaType == "series" {
		path = "/search/tv"
	}

	var de, en searchResponse
	if err := c.get(path, url.Values{"language": {"de-DE"}, "query": {query}}, &de); err != nil {
		return nil, err
	}
	if err := c.get(path, url.Values{"language": {"en-US"}, "query": {query}}, &en); err != nil {
		return nil, err
	}

	enByID := make(map[int64]searchResult, len(en.Results))
	for _, r := range en.Results {
		enByID[r.ID] = r
	}

	results := make([]model.MediaSearchResult, 0, len(de.Results))
	for _, r := range de.Results {
		if len(results) == 20 {
			break
		}
		res := model.MediaSearchResult{
			ID:      fmt.Sprintf("%d", r.ID),
			TitleDe: nonEmpty(firstNonEmpty(r.Title, r.Name)),
			Year:    yearOf(firstNonEmpty(r.ReleaseDate, r.FirstAirDate)),
		}
		if r.OriginalLanguage == "de" {
			enItem := enByID[r.ID]
			res.TitleEn = nonEmpty(firstNonEmpty(enItem.Title, enItem.Name))
		} else {
			res.TitleEn = nonEmpty(firstNonEmpty(r.OriginalTitle, r.OriginalName))
		}
		if r.PosterPath != "" {
			res.ImageURL = ptr(imageBaseURL + "/w500" + r.PosterPath)
		}
		if r.VoteAverage > 0 {
			rating := math.Round(r.VoteAverage*10) / 10
			res.Rating = &rating
		}
		results = append(results, res)
	}
	return results, nil
}

type seasonResponse struct {
	Episodes []struct {
		SeasonNumber  int    `json:"season_number"`
		EpisodeNumber int    `json:"episode_number"`
		Name          string `json:"name"`
		AirDate       string `json:"air_date"`
		Runtime       int    `json:"runtime"`
	} `json:"episodes"`
}

// Season fetches the episode list of one season in en-US.
func (c *Client) Season(seriesID string, season int) ([]model.Episode, error) {
	var body seasonResponse
	path := fmt.Sprintf("/tv/%s/season/%d", seriesID, season)
	if err := c.get(path, url.Values{"language": {"en-US"}}, &body); err != nil {
		return nil, err
	}

	episodes := make([]model.Episode, 0, len(body.Episodes))
	for _, e := range body.Episodes {
		ep := model.Episode{
			Season:  e.SeasonNumber,
			Episode: e.EpisodeNumber,
			TitleEn: nonEmpty(e.Name),
			AirDate: nonEmpty(e.AirDate),
		}
		if e.Runtime > 0 {
			rt := e.Runtime
			ep.Runtime = &rt
		}
		episodes = append(episodes, ep)
	}
	return episodes, nil
}

func ptr(s string) *string { return &s }

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func yearOf(date string) *string {
	if len(date) < 4 {
		return nil
	}
	y := date[:4]
	return &y
}
