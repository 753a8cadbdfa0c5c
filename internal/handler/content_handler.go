package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gtracker/forum-backend/internal/common"
	"github.com/gtracker/forum-backend/internal/service"
)

// ContentHandler external catalog lookups (TMDB, Steam) and their cache
type ContentHandler struct {
	service service.ContentService
}

// NewContentHandler creates a new ContentHandler
func NewContentHandler(service service.ContentService) *ContentHandler {
	return &ContentHandler{service: service}
}

func requiredQuery(c *gin.Context) (string, bool) {
	q := strings.TrimSpace(c.Query("query"))
	if q == "" {
		common.ErrorResponse(c, http.StatusBadRequest, "Parâmetro query é obrigatório", nil)
		return "", false
	}
	return q, true
}

// SearchMovie godoc
// @Summary      Buscar filme/série no TMDB
// @Description  Retorna o primeiro resultado já no formato do template midia
// @Tags         external
// @Produce      json
// @Param        query  query  string  true   "Título"
// @Param        type   query  string  false  "movie|tv"
// @Success      200  {object}  common.Response{data=tmdb.ContentForThread}
// @Failure      404  {object}  common.Response
// @Failure      429  {object}  common.Response
// @Router       /external/tmdb/search [get]
func (h *ContentHandler) SearchMovie(c *gin.Context) {
	q, ok := requiredQuery(c)
	if !ok {
		return
	}
	data, err := h.service.SearchMovie(c.Request.Context(), q, c.Query("type"))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.Success(c, data)
}

// MovieByID godoc
// @Summary      Filme/série por ID do TMDB
// @Tags         external
// @Produce      json
// @Param        tmdbId  path   int     true   "TMDB ID"
// @Param        type    query  string  false  "movie|tv"
// @Success      200  {object}  common.Response{data=tmdb.ContentForThread}
// @Router       /external/tmdb/{tmdbId} [get]
func (h *ContentHandler) MovieByID(c *gin.Context) {
	id, ok := intParam(c, "tmdbId", "ID do TMDB inválido")
	if !ok {
		return
	}
	data, err := h.service.MovieByID(c.Request.Context(), id, c.Query("type"))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.Success(c, data)
}

// SearchGame godoc
// @Summary      Buscar jogo na Steam
// @Description  Casa o nome com o catálogo de apps por similaridade
// @Tags         external
// @Produce      json
// @Param        query  query  string  true  "Nome do jogo"
// @Success      200  {object}  common.Response{data=steam.GameForThread}
// @Failure      404  {object}  common.Response
// @Router       /external/steam/search [get]
func (h *ContentHandler) SearchGame(c *gin.Context) {
	q, ok := requiredQuery(c)
	if !ok {
		return
	}
	data, err := h.service.SearchGame(c.Request.Context(), q)
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.Success(c, data)
}

// GameByID godoc
// @Summary      Jogo por App ID da Steam
// @Tags         external
// @Produce      json
// @Param        appId  path  int  true  "Steam App ID"
// @Success      200  {object}  common.Response{data=steam.GameForThread}
// @Router       /external/steam/{appId} [get]
func (h *ContentHandler) GameByID(c *gin.Context) {
	id, ok := intParam(c, "appId", "App ID inválido")
	if !ok {
		return
	}
	data, err := h.service.GameByID(c.Request.Context(), id)
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.Success(c, data)
}

// CacheStats godoc
// @Summary      Estatísticas do cache por fonte
// @Tags         external
// @Produce      json
// @Success      200  {object}  common.Response{data=[]domain.CacheSourceStats}
// @Router       /external/cache/stats [get]
func (h *ContentHandler) CacheStats(c *gin.Context) {
	stats, err := h.service.CacheStats()
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.Success(c, stats)
}

// MostAccessed godoc
// @Summary      Conteúdos mais acessados
// @Tags         external
// @Produce      json
// @Param        limit  query  int  false  "Limite"
// @Success      200  {object}  common.Response{data=[]domain.ContentCache}
// @Router       /external/cache/most-accessed [get]
func (h *ContentHandler) MostAccessed(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	items, err := h.service.MostAccessed(limit)
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.Success(c, items)
}

// CountCache godoc
// @Summary      Quantidade em cache de uma fonte
// @Tags         external
// @Produce      json
// @Param        source  path  string  true  "tmdb|steam"
// @Success      200  {object}  common.Response
// @Router       /external/cache/count/{source} [get]
func (h *ContentHandler) CountCache(c *gin.Context) {
	source := c.Param("source")
	count, err := h.service.CountCache(source)
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.Success(c, gin.H{"source": source, "count": count})
}

// CleanupCache godoc
// @Summary      Remover entradas expiradas
// @Tags         external
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  common.Response
// @Router       /external/cache/cleanup [post]
func (h *ContentHandler) CleanupCache(c *gin.Context) {
	deleted, err := h.service.CleanupCache()
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.SuccessWithMessage(c, gin.H{"deletedCount": deleted}, "Cache expirado removido")
}

// DeleteCache godoc
// @Summary      Remover uma entrada do cache
// @Tags         external
// @Produce      json
// @Security     BearerAuth
// @Param        source      path  string  true  "tmdb|steam"
// @Param        externalId  path  string  true  "ID externo"
// @Success      200  {object}  common.Response
// @Router       /external/cache/{source}/{externalId} [delete]
func (h *ContentHandler) DeleteCache(c *gin.Context) {
	deleted, err := h.service.DeleteCache(c.Param("source"), c.Param("externalId"))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.SuccessWithMessage(c, gin.H{"deletedCount": deleted}, "Entrada removida do cache")
}
