// Package tmdb is a minimal client for The Movie Database v3 API.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultBaseURL   = "https://api.themoviedb.org/3"
	imageOriginalURL = "https://image.tmdb.org/t/p/original"
	language         = "pt-BR"
)

var (
	ErrRateLimited = errors.New("tmdb rate limit reached")
	ErrNoResults   = errors.New("no tmdb results")
	ErrNotFound    = errors.New("tmdb content not found")
)

// MediaType movie or tv
type MediaType string

const (
	Movie MediaType = "movie"
	TV    MediaType = "tv"
)

// ParseMediaType defaults to movie
func ParseMediaType(s string) (MediaType, bool) {
	switch MediaType(s) {
	case "", Movie:
		return Movie, true
	case TV:
		return TV, true
	}
	return "", false
}

// Client TMDB HTTP client
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient creates a client; an empty baseURL uses the public API
func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

// Configured reports whether an API key is set
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type searchResponse struct {
	Results []struct {
		ID int `json:"id"`
	} `json:"results"`
}

// SearchFirstID returns the id of the first result in provider order
func (c *Client) SearchFirstID(ctx context.Context, query string, mt MediaType) (int, error) {
	var res searchResponse
	if err := c.get(ctx, "/search/"+string(mt), url.Values{"query": {query}}, &res); err != nil {
		return 0, err
	}
	if len(res.Results) == 0 {
		return 0, ErrNoResults
	}
	return res.Results[0].ID, nil
}

// Details full record with videos and credits appended
func (c *Client) Details(ctx context.Context, id int, mt MediaType) (*Details, error) {
	var d Details
	path := fmt.Sprintf("/%s/%d", mt, id)
	if err := c.get(ctx, path, url.Values{"append_to_response": {"videos,credits"}}, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, dest interface{}) error {
	params.Set("api_key", c.apiKey)
	params.Set("language", language)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("tmdb request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 300:
		return fmt.Errorf("tmdb returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("tmdb decode failed: %w", err)
	}
	return nil
}

// Details union of the movie and tv detail payloads
type Details struct {
	ID             int     `json:"id"`
	Title          string  `json:"title"`
	Name           string  `json:"name"`
	Overview       string  `json:"overview"`
	PosterPath     *string `json:"poster_path"`
	ReleaseDate    string  `json:"release_date"`
	FirstAirDate   string  `json:"first_air_date"`
	Runtime        *int    `json:"runtime"`
	EpisodeRunTime []int   `json:"episode_run_time"`
	Adult          *bool   `json:"adult"`
	Genres         []struct {
		Name string `json:"name"`
	} `json:"genres"`
	Videos struct {
		Results []struct {
			Key  string `json:"key"`
			Site string `json:"site"`
			Type string `json:"type"`
		} `json:"results"`
	} `json:"videos"`
	Credits struct {
		Cast []struct {
			Name string `json:"name"`
		} `json:"cast"`
	} `json:"credits"`
}

// ContentForThread details reshaped into midia template fields
type ContentForThread struct {
	TMDBID        string   `json:"tmdb_id"`
	NomeConteudo  string   `json:"nome_conteudo"`
	PosterURL     *string  `json:"poster_url"`
	Genero        []string `json:"genero"`
	TrailerURL    *string  `json:"trailer_url"`
	Elenco        []string `json:"elenco"`
	Sinopse       string   `json:"sinopse"`
	Ano           *int     `json:"ano"`
	Duracao       *string  `json:"duracao"`
	Classificacao *string  `json:"classificacao"`
	Tipo          string   `json:"tipo"`
}

const maxCast = 10

// FormatForThread maps provider fields onto the midia template
func FormatForThread(d *Details, mt MediaType) *ContentForThread {
	out := &ContentForThread{
		TMDBID:  strconv.Itoa(d.ID),
		Genero:  make([]string, 0, len(d.Genres)),
		Elenco:  []string{},
		Sinopse: d.Overview,
		Tipo:    string(mt),
	}

	if mt == Movie {
		out.NomeConteudo = d.Title
	} else {
		out.NomeConteudo = d.Name
	}
	if out.Sinopse == "" {
		out.Sinopse = "Sem sinopse disponível"
	}
	if d.PosterPath != nil && *d.PosterPath != "" {
		poster := imageOriginalURL + *d.PosterPath
		out.PosterURL = &poster
	}
	for _, g := range d.Genres {
		out.Genero = append(out.Genero, g.Name)
	}
	for _, v := range d.Videos.Results {
		if v.Type == "Trailer" && v.Site == "YouTube" {
			trailer := "https://www.youtube.com/watch?v=" + v.Key
			out.TrailerURL = &trailer
			break
		}
	}
	for i, actor := range d.Credits.Cast {
		if i == maxCast {
			break
		}
		out.Elenco = append(out.Elenco, actor.Name)
	}

	out.Duracao = duration(d, mt)

	date := d.ReleaseDate
	if mt == TV {
		date = d.FirstAirDate
	}
	if year, err := strconv.Atoi(strings.SplitN(date, "-", 2)[0]); err == nil {
		out.Ano = &year
	}

	if d.Adult != nil {
		rating := "Livre"
		if *d.Adult {
			rating = "18+"
		}
		out.Classificacao = &rating
	}

	return out
}

func duration(d *Details, mt MediaType) *string {
	var s string
	switch {
	case mt == Movie && d.Runtime != nil && *d.Runtime > 0:
		hours, minutes := *d.Runtime/60, *d.Runtime%60
		if hours > 0 {
			s = fmt.Sprintf("%dh %dmin", hours, minutes)
		} else {
			s = fmt.Sprintf("%dmin", minutes)
		}
	case mt == TV && len(d.EpisodeRunTime) > 0:
		s = fmt.Sprintf("~%dmin por episódio", d.EpisodeRunTime[0])
	default:
		return nil
	}
	return &s
}
