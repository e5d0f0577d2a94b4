// Package hltb fetches game metadata from howlongtobeat.com, which has no
// official API: search goes through the finder endpoint the site's own
// frontend uses, details come from the JSON payload embedded in the game
// page.
package hltb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/medialib/medialib-go-server/internal/model"
)

const DefaultBaseURL = "https://howlongtobeat.com"

// tokenTTL bounds how long a finder auth token is reused before a fresh
// one is requested.
const tokenTTL = 30 * time.Minute

type Client struct {
	baseURL string
	client  *http.Client

	mu             sync.Mutex
	authToken      string
	tokenFetchedAt time.Time
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// The site rejects requests without browser-looking headers.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Referer", c.baseURL)
	req.Header.Set("Origin", c.baseURL)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:145.0) Gecko/20100101 Firefox/145.0")
}

// getAuthToken returns the cached finder token, refreshing it when expired
// or when force is set (after a 403).
func (c *Client) getAuthToken(force bool) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !force && c.authToken != "" && time.Since(c.tokenFetchedAt) < tokenTTL {
		return c.authToken, nil
	}

	reqURL := fmt.Sprintf("%s/api/finder/init?t=%d", c.baseURL, time.Now().UnixMilli())
	req, err := http.NewRequest("GET", reqURL, nil)
	if err != nil {
		return "", err
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token fetch failed: HTTP %d", resp.StatusCode)
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if body.Token == "" {
		return "", fmt.Errorf("token fetch returned empty token")
	}

	c.authToken = body.Token
	c.tokenFetchedAt = time.Now()
	return c.authToken, nil
}

type searchRequest struct {
	SearchType    string         `json:"searchType"`
	SearchTerms   []string       `json:"searchTerms"`
	SearchPage    int            `json:"searchPage"`
	Size          int            `json:"size"`
	SearchOptions map[string]any `json:"searchOptions"`
	UseCache      bool           `json:"useCache"`
}

type searchResponse struct {
	Data []struct {
		GameID    int64  `json:"game_id"`
		GameName  string `json:"game_name"`
		GameImage string `json:"game_image"`
	} `json:"data"`
}

// Search queries the finder endpoint. A 403 triggers one forced token
// refresh and a single retry; a second 403 is an error.
func (c *Client) Search(query string) ([]model.SearchResult, error) {
	return c.search(query, false)
}

func (c *Client) search(query string, isRetry bool) ([]model.SearchResult, error) {
	token, err := c.getAuthToken(isRetry)
	if err != nil {
		return nil, err
	}

	reqBody := searchRequest{
		SearchType:  "games",
		SearchTerms: strings.Fields(strings.TrimSpace(query)),
		SearchPage:  1,
		Size:        20,
		SearchOptions: map[string]any{
			"games": map[string]any{
				"userId":        0,
				"platform":      "",
				"sortCategory":  "popular",
				"rangeCategory": "main",
				"rangeTime":     map[string]any{"min": nil, "max": nil},
				"gameplay":      map[string]any{"perspective": "", "flow": "", "genre": "", "difficulty": ""},
				"rangeYear":     map[string]any{"min": "", "max": ""},
				"modifier":      "",
			},
			"users":      map[string]any{"sortCategory": "postcount"},
			"lists":      map[string]any{"sortCategory": "follows"},
			"filter":     "",
			"sort":       0,
			"randomizer": 0,
		},
		UseCache: true,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest("POST", c.baseURL+"/api/finder", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)
	req.Header.Set("x-auth-token", token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		if isRetry {
			return nil, fmt.Errorf("search failed: 403 even after token refresh")
		}
		log.Printf("[hltb] 403, refreshing token and retrying search")
		return c.search(query, true)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search failed: HTTP %d", resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	results := make([]model.SearchResult, 0, len(body.Data))
	for _, g := range body.Data {
		r := model.SearchResult{
			ID:   fmt.Sprintf("%d", g.GameID),
			Name: g.GameName,
		}
		if g.GameImage != "" {
			img := fmt.Sprintf("%s/games/%s", c.baseURL, g.GameImage)
			r.ImageURL = &img
		}
		results = append(results, r)
	}
	return results, nil
}

// nextData mirrors the part of the embedded page JSON we need.
type nextData struct {
	Props struct {
		PageProps struct {
			Game struct {
				Data struct {
					Game []struct {
						GameName    string   `json:"game_name"`
						GameImage   string   `json:"game_image"`
						CompMain    float64  `json:"comp_main"`
						CompPlus    float64  `json:"comp_plus"`
						Comp100     float64  `json:"comp_100"`
						CompAll     float64  `json:"comp_all"`
						ReviewScore *float64 `json:"review_score"`
					} `json:"game"`
					Relationships []struct {
						GameID   int64  `json:"game_id"`
						GameName string `json:"game_name"`
					} `json:"relationships"`
				} `json:"data"`
			} `json:"game"`
		} `json:"pageProps"`
	} `json:"props"`
}

// Game fetches one game page and parses the embedded __NEXT_DATA__ JSON.
func (c *Client) Game(id string) (*model.HLTBGame, error) {
	req, err := http.NewRequest("GET", fmt.Sprintf("%s/game/%s", c.baseURL, id), nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("game not found: HTTP %d", resp.StatusCode)
	}

	html, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	raw, err := extractNextData(string(html))
	if err != nil {
		return nil, err
	}

	var data nextData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("failed to parse __NEXT_DATA__: %w", err)
	}

	games := data.Props.PageProps.Game.Data.Game
	if len(games) == 0 {
		return nil, fmt.Errorf("game %s missing from page data", id)
	}
	g := games[0]

	result := &model.HLTBGame{
		ID:               id,
		Name:             g.GameName,
		GameplayMain:     toHours(g.CompMain),
		GameplayExtra:    toHours(g.CompPlus),
		GameplayComplete: toHours(g.Comp100),
		GameplayAll:      toHours(g.CompAll),
		Rating:           g.ReviewScore,
		DLCs:             []model.DLC{},
	}
	if g.GameImage != "" {
		img := fmt.Sprintf("%s/games/%s", c.baseURL, g.GameImage)
		result.ImageURL = &img
	}
	for _, rel := range data.Props.PageProps.Game.Data.Relationships {
		result.DLCs = append(result.DLCs, model.DLC{ID: fmt.Sprintf("%d", rel.GameID), Name: rel.GameName})
	}
	return result, nil
}

// extractNextData pulls the body of the <script id="__NEXT_DATA__"> tag.
func extractNextData(html string) (string, error) {
	marker := `id="__NEXT_DATA__"`
	idx := strings.Index(html, marker)
	if idx < 0 {
		return "", fmt.Errorf("__NEXT_DATA__ not found")
	}
	start := strings.Index(html[idx:], ">")
	if start < 0 {
		return "", fmt.Errorf("__NEXT_DATA__ script tag malformed")
	}
	start += idx + 1
	end := strings.Index(html[start:], "</script>")
	if end < 0 {
		return "", fmt.Errorf("__NEXT_DATA__ script tag unterminated")
	}
	return html[start : start+end], nil
}

// toHours converts seconds to hours with one decimal; zero means unknown.
func toHours(seconds float64) *float64 {
	if seconds == 0 {
		return nil
	}
	h := math.Round(seconds/3600*10) / 10
	return &h
}
