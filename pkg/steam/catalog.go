package steam

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/gtracker/forum-backend/pkg/fuzzy"
)

// MatchThreshold minimum similarity (exclusive) for a name match
const MatchThreshold = 0.6

var ErrEmptyCatalog = errors.New("steam app catalog is empty")

// App catalog entry
type App struct {
	AppID int    `json:"appid"`
	Name  string `json:"name"`
}

// Catalog app list loaded once from disk and read-only afterwards
type Catalog struct {
	path string
	once sync.Once
	apps []App
	err  error
}

// NewCatalog defers reading path until the first lookup
func NewCatalog(path string) *Catalog {
	return &Catalog{path: path}
}

// NewCatalogFromApps catalog backed by a fixed list
func NewCatalogFromApps(apps []App) *Catalog {
	c := &Catalog{apps: apps}
	c.once.Do(func() {})
	return c
}

// Apps returns the catalog, loading it on first use
func (c *Catalog) Apps() ([]App, error) {
	c.once.Do(func() {
		c.apps, c.err = loadApps(c.path)
	})
	return c.apps, c.err
}

// BestMatch highest-similarity app above MatchThreshold
func (c *Catalog) BestMatch(query string) (App, float64, bool, error) {
	apps, err := c.Apps()
	if err != nil {
		return App{}, 0, false, err
	}
	if len(apps) == 0 {
		return App{}, 0, false, ErrEmptyCatalog
	}

	m, ok := fuzzy.Best(query, apps, func(a App) string { return a.Name }, MatchThreshold)
	return m.Item, m.Score, ok, nil
}

// loadApps accepts {"applist":{"apps":[...]}} or a bare array
func loadApps(path string) ([]App, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read steam catalog: %w", err)
	}
	return parseApps(data)
}

func parseApps(data []byte) ([]App, error) {
	var wrapped struct {
		AppList *struct {
			Apps []App `json:"apps"`
		} `json:"applist"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.AppList != nil {
		return wrapped.AppList.Apps, nil
	}

	var bare []App
	if err := json.Unmarshal(data, &bare); err != nil {
		return nil, errors.New("unrecognized steam catalog format")
	}
	return bare, nil
}
