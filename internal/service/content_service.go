package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gtracker/forum-backend/internal/common"
	"github.com/gtracker/forum-backend/internal/domain"
	"github.com/gtracker/forum-backend/internal/repository"
	pkglogger "github.com/gtracker/forum-backend/pkg/logger"
	"github.com/gtracker/forum-backend/pkg/metrics"
	"github.com/gtracker/forum-backend/pkg/steam"
	"github.com/gtracker/forum-backend/pkg/tmdb"
	"gorm.io/gorm"
)

// MovieProvider upstream movie/TV catalog
type MovieProvider interface {
	Configured() bool
	SearchFirstID(ctx context.Context, query string, mt tmdb.MediaType) (int, error)
	Details(ctx context.Context, id int, mt tmdb.MediaType) (*tmdb.Details, error)
}

// GameCatalog name index used to resolve a query to an app id
type GameCatalog interface {
	BestMatch(query string) (steam.App, float64, bool, error)
}

// GameProvider upstream game storefront
type GameProvider interface {
	AppDetails(ctx context.Context, appID int) (*steam.AppDetails, error)
}

// ContentService cache-or-fetch gateway in front of TMDB and Steam
type ContentService interface {
	SearchMovie(ctx context.Context, query, mediaType string) (json.RawMessage, error)
	MovieByID(ctx context.Context, id int, mediaType string) (json.RawMessage, error)
	SearchGame(ctx context.Context, query string) (json.RawMessage, error)
	GameByID(ctx context.Context, appID int) (json.RawMessage, error)

	CacheStats() ([]*domain.CacheSourceStats, error)
	MostAccessed(limit int) ([]*domain.ContentCache, error)
	CountCache(source string) (int64, error)
	CleanupCache() (int64, error)
	DeleteCache(source, externalID string) (int64, error)
}

type contentService struct {
	cache   repository.ContentCacheRepository
	movies  MovieProvider
	catalog GameCatalog
	games   GameProvider
	ttlDays int
	now     func() time.Time
}

// NewContentService creates a new ContentService. ttlDays <= 0 uses the default lifetime.
func NewContentService(cache repository.ContentCacheRepository, movies MovieProvider, catalog GameCatalog, games GameProvider, ttlDays int) ContentService {
	if ttlDays <= 0 {
		ttlDays = domain.DefaultCacheTTLDays
	}
	return &contentService{
		cache:   cache,
		movies:  movies,
		catalog: catalog,
		games:   games,
		ttlDays: ttlDays,
		now:     time.Now,
	}
}

// SearchMovie takes the provider's first result as is; no re-ranking
func (s *contentService) SearchMovie(ctx context.Context, query, mediaType string) (json.RawMessage, error) {
	mt, appErr := s.mediaType(mediaType)
	if appErr != nil {
		return nil, appErr
	}
	if !s.movies.Configured() {
		return nil, common.NewInternal("TMDB não configurado", nil)
	}

	id, err := s.movies.SearchFirstID(ctx, query, mt)
	if err != nil {
		return nil, s.tmdbError(err, 0)
	}
	return s.movie(ctx, id, mt, query)
}

func (s *contentService) MovieByID(ctx context.Context, id int, mediaType string) (json.RawMessage, error) {
	mt, appErr := s.mediaType(mediaType)
	if appErr != nil {
		return nil, appErr
	}
	if id <= 0 {
		return nil, common.NewBadRequest("ID TMDB inválido")
	}
	if !s.movies.Configured() {
		if data, ok := s.lookup(domain.SourceTMDB, strconv.Itoa(id)); ok {
			return data, nil
		}
		return nil, common.NewInternal("TMDB não configurado", nil)
	}
	return s.movie(ctx, id, mt, "")
}

func (s *contentService) movie(ctx context.Context, id int, mt tmdb.MediaType, query string) (json.RawMessage, error) {
	externalID := strconv.Itoa(id)
	if data, ok := s.lookup(domain.SourceTMDB, externalID); ok {
		return data, nil
	}

	details, err := s.movies.Details(ctx, id, mt)
	if err != nil {
		return nil, s.tmdbError(err, id)
	}
	if query == "" {
		query = "id:" + externalID
	}
	return s.store(domain.SourceTMDB, externalID, query, tmdb.FormatForThread(details, mt))
}

// SearchGame resolves the query against the local catalog, then fetches by app id
func (s *contentService) SearchGame(ctx context.Context, query string) (json.RawMessage, error) {
	app, _, ok, err := s.catalog.BestMatch(query)
	if err != nil {
		if errors.Is(err, steam.ErrEmptyCatalog) {
			return nil, common.NewInternal("Lista de jogos Steam vazia", err)
		}
		return nil, common.NewInternal("Não foi possível carregar lista de jogos Steam", err)
	}
	if !ok {
		return nil, common.NewNotFound(fmt.Sprintf("Nenhum jogo encontrado para \"%s\"", query))
	}
	return s.game(ctx, app.AppID, query)
}

func (s *contentService) GameByID(ctx context.Context, appID int) (json.RawMessage, error) {
	if appID <= 0 {
		return nil, common.NewBadRequest("App ID inválido")
	}
	return s.game(ctx, appID, "")
}

func (s *contentService) game(ctx context.Context, appID int, query string) (json.RawMessage, error) {
	externalID := strconv.Itoa(appID)
	if data, ok := s.lookup(domain.SourceSteam, externalID); ok {
		return data, nil
	}

	details, err := s.games.AppDetails(ctx, appID)
	if err != nil {
		switch {
		case errors.Is(err, steam.ErrRateLimited):
			metrics.ProviderErrors.WithLabelValues(string(domain.SourceSteam), "rate_limited").Inc()
			return nil, common.NewTooManyRequests("Rate limit da Steam atingido. Tente novamente em alguns segundos.")
		case errors.Is(err, steam.ErrNotFound):
			metrics.ProviderErrors.WithLabelValues(string(domain.SourceSteam), "not_found").Inc()
			return nil, common.NewNotFound(fmt.Sprintf("Jogo com App ID %d não encontrado na Steam", appID))
		}
		metrics.ProviderErrors.WithLabelValues(string(domain.SourceSteam), "error").Inc()
		return nil, common.NewInternal("Falha ao consultar a Steam", err)
	}
	if query == "" {
		query = "id:" + externalID
	}
	return s.store(domain.SourceSteam, externalID, query, steam.FormatForThread(details))
}

// lookup returns a live cache row; repository failures degrade to a miss
func (s *contentService) lookup(source domain.ContentSource, externalID string) (json.RawMessage, bool) {
	row, err := s.cache.Lookup(source, externalID, s.now())
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			pkglogger.GetLogger().Warn().Err(err).
				Str("source", string(source)).
				Str("external_id", externalID).
				Msg("content cache lookup failed")
		}
		metrics.ContentCacheLookups.WithLabelValues(string(source), "miss").Inc()
		return nil, false
	}
	metrics.ContentCacheLookups.WithLabelValues(string(source), "hit").Inc()
	return row.ContentData, true
}

func (s *contentService) store(source domain.ContentSource, externalID, query string, payload interface{}) (json.RawMessage, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, common.NewInternal("Falha ao serializar conteúdo", err)
	}
	if err := s.cache.Upsert(source, externalID, query, data, s.ttlDays, s.now()); err != nil {
		pkglogger.GetLogger().Warn().Err(err).
			Str("source", string(source)).
			Str("external_id", externalID).
			Msg("content cache write failed")
	}
	return data, nil
}

func (s *contentService) mediaType(raw string) (tmdb.MediaType, *common.AppError) {
	mt, ok := tmdb.ParseMediaType(raw)
	if !ok {
		return "", common.NewBadRequest("Tipo deve ser movie ou tv")
	}
	return mt, nil
}

func (s *contentService) tmdbError(err error, id int) *common.AppError {
	source := string(domain.SourceTMDB)
	switch {
	case errors.Is(err, tmdb.ErrRateLimited):
		metrics.ProviderErrors.WithLabelValues(source, "rate_limited").Inc()
		return common.NewTooManyRequests("Rate limit do TMDB atingido. Tente novamente em alguns segundos.")
	case errors.Is(err, tmdb.ErrNoResults):
		return common.NewNotFound("Nenhum resultado encontrado para esta busca")
	case errors.Is(err, tmdb.ErrNotFound):
		metrics.ProviderErrors.WithLabelValues(source, "not_found").Inc()
		return common.NewNotFound(fmt.Sprintf("Conteúdo TMDB %d não encontrado", id))
	}
	metrics.ProviderErrors.WithLabelValues(source, "error").Inc()
	return common.NewInternal("Falha ao consultar o TMDB", err)
}

func (s *contentService) CacheStats() ([]*domain.CacheSourceStats, error) {
	stats, err := s.cache.Stats()
	if err != nil {
		return nil, common.NewInternal("Falha ao carregar estatísticas do cache", err)
	}
	if stats == nil {
		stats = []*domain.CacheSourceStats{}
	}
	return stats, nil
}

func (s *contentService) MostAccessed(limit int) ([]*domain.ContentCache, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > domain.MaxPageLimit {
		limit = domain.MaxPageLimit
	}
	rows, err := s.cache.MostAccessed(limit, s.now())
	if err != nil {
		return nil, common.NewInternal("Falha ao listar cache", err)
	}
	if rows == nil {
		rows = []*domain.ContentCache{}
	}
	return rows, nil
}

func (s *contentService) CountCache(source string) (int64, error) {
	src, ok := domain.ParseContentSource(source)
	if !ok {
		return 0, common.NewBadRequest("Source deve ser tmdb ou steam")
	}
	count, err := s.cache.Count(src, s.now())
	if err != nil {
		return 0, common.NewInternal("Falha ao contar cache", err)
	}
	return count, nil
}

func (s *contentService) CleanupCache() (int64, error) {
	deleted, err := s.cache.CleanupExpired(s.now())
	if err != nil {
		return 0, common.NewInternal("Falha ao limpar cache", err)
	}
	return deleted, nil
}

func (s *contentService) DeleteCache(source, externalID string) (int64, error) {
	src, ok := domain.ParseContentSource(source)
	if !ok {
		return 0, common.NewBadRequest("Source deve ser tmdb ou steam")
	}
	deleted, err := s.cache.Delete(src, externalID)
	if err != nil {
		return 0, common.NewInternal("Falha ao deletar cache", err)
	}
	return deleted, nil
}
