// Package steam reads game metadata from the Steam storefront API.
package steam

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const DefaultBaseURL = "https://store.steampowered.com/api"

var (
	ErrRateLimited = errors.New("steam rate limit reached")
	ErrNotFound    = errors.New("steam app not found")
)

// Client Steam store HTTP client
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a client; an empty baseURL uses the public store API
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// AppDetails storefront record of a single app
type AppDetails struct {
	SteamAppID       int    `json:"steam_appid"`
	Name             string `json:"name"`
	ShortDescription string `json:"short_description"`
	HeaderImage      string `json:"header_image"`
	Genres           []struct {
		Description string `json:"description"`
	} `json:"genres"`
	Platforms struct {
		Windows bool `json:"windows"`
		Mac     bool `json:"mac"`
		Linux   bool `json:"linux"`
	} `json:"platforms"`
	ReleaseDate struct {
		Date string `json:"date"`
	} `json:"release_date"`
	PCRequirements Requirements `json:"pc_requirements"`
	Developers     []string     `json:"developers"`
	Publishers     []string     `json:"publishers"`
}

// Requirements HTML requirement blocks. The store sends [] instead of an
// object when an app has none.
type Requirements struct {
	Minimum     string `json:"minimum"`
	Recommended string `json:"recommended"`
}

func (r *Requirements) UnmarshalJSON(data []byte) error {
	if !bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
		*r = Requirements{}
		return nil
	}
	type plain Requirements
	return json.Unmarshal(data, (*plain)(r))
}

// AppDetails fetches one app in Brazilian Portuguese
func (c *Client) AppDetails(ctx context.Context, appID int) (*AppDetails, error) {
	params := url.Values{
		"appids": {strconv.Itoa(appID)},
		"l":      {"brazilian"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/appdetails?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("steam request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("steam returned status %d", resp.StatusCode)
	}

	var body map[string]struct {
		Success bool        `json:"success"`
		Data    *AppDetails `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("steam decode failed: %w", err)
	}

	entry, ok := body[strconv.Itoa(appID)]
	if !ok || !entry.Success || entry.Data == nil {
		return nil, ErrNotFound
	}
	return entry.Data, nil
}

// GameForThread details reshaped into jogos template fields
type GameForThread struct {
	SteamAppID         string   `json:"steam_appid"`
	Nome               string   `json:"nome"`
	Estilo             []string `json:"estilo"`
	PosterURL          *string  `json:"poster_url"`
	Ano                *int     `json:"ano"`
	SistemaOperacional []string `json:"sistema_operacional"`
	Descricao          string   `json:"descricao"`
	SpecsMinimas       *string  `json:"specs_minimas"`
	SpecsRecomendadas  *string  `json:"specs_recomendadas"`
	Desenvolvedor      *string  `json:"desenvolvedor"`
	Publisher          *string  `json:"publisher"`
}

var (
	yearPattern = regexp.MustCompile(`\d{4}`)
	htmlTag     = regexp.MustCompile(`<[^>]*>`)
)

// FormatForThread maps storefront fields onto the jogos template
func FormatForThread(d *AppDetails) *GameForThread {
	out := &GameForThread{
		SteamAppID:         strconv.Itoa(d.SteamAppID),
		Nome:               d.Name,
		Estilo:             make([]string, 0, len(d.Genres)),
		SistemaOperacional: []string{},
		Descricao:          d.ShortDescription,
	}

	for _, g := range d.Genres {
		out.Estilo = append(out.Estilo, g.Description)
	}
	if d.Platforms.Windows {
		out.SistemaOperacional = append(out.SistemaOperacional, "Windows")
	}
	if d.Platforms.Mac {
		out.SistemaOperacional = append(out.SistemaOperacional, "Mac")
	}
	if d.Platforms.Linux {
		out.SistemaOperacional = append(out.SistemaOperacional, "Linux")
	}
	if d.HeaderImage != "" {
		out.PosterURL = strPtr(d.HeaderImage)
	}
	if y := yearPattern.FindString(d.ReleaseDate.Date); y != "" {
		year, _ := strconv.Atoi(y)
		out.Ano = &year
	}
	if out.Descricao == "" {
		out.Descricao = "Sem descrição disponível"
	}
	if d.PCRequirements.Minimum != "" {
		out.SpecsMinimas = strPtr(stripHTML(d.PCRequirements.Minimum))
	}
	if d.PCRequirements.Recommended != "" {
		out.SpecsRecomendadas = strPtr(stripHTML(d.PCRequirements.Recommended))
	}
	if len(d.Developers) > 0 {
		out.Desenvolvedor = strPtr(d.Developers[0])
	}
	if len(d.Publishers) > 0 {
		out.Publisher = strPtr(d.Publishers[0])
	}

	return out
}

func stripHTML(s string) string {
	return strings.TrimSpace(htmlTag.ReplaceAllString(s, ""))
}

func strPtr(s string) *string { return &s }
