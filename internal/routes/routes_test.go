package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/gtracker/forum-backend/internal/domain"
	"github.com/gtracker/forum-backend/internal/handler"
	"github.com/gtracker/forum-backend/internal/middleware"
	"github.com/gtracker/forum-backend/internal/migration"
	"github.com/gtracker/forum-backend/internal/repository"
	"github.com/gtracker/forum-backend/internal/service"
	"github.com/gtracker/forum-backend/pkg/cache"
	"github.com/gtracker/forum-backend/pkg/jwt"
	"github.com/gtracker/forum-backend/pkg/mailer"
	"github.com/gtracker/forum-backend/pkg/steam"
	"github.com/gtracker/forum-backend/pkg/tmdb"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type nopMediaStore struct{}

func (nopMediaStore) Upload(_ context.Context, folder, owner, filename, _ string, body io.Reader, _ int64) (string, error) {
	_, err := io.Copy(io.Discard, body)
	return fmt.Sprintf("https://media.example.com/%s/%s/%s", folder, owner, filename), err
}

func (nopMediaStore) DeleteByURL(context.Context, string) error { return nil }

// APISuite drives the full router over an in-memory database
type APISuite struct {
	suite.Suite
	db     *gorm.DB
	mr     *miniredis.Miniredis
	redis  *redis.Client
	steam  *httptest.Server
	router *gin.Engine
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}

func (s *APISuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	s.Require().NoError(err)
	sqlDB, err := db.DB()
	s.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)
	s.Require().NoError(migration.Run(db))
	s.db = db

	mr := miniredis.RunT(s.T())
	s.mr = mr
	s.redis = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cacheService := cache.NewService(s.redis)

	s.steam = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("appids")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{%q:{"success":true,"data":{"steam_appid":%s,"name":"ELDEN RING","short_description":"RPG","pc_requirements":[]}}}`, id, id)
	}))

	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	threadRepo := repository.NewThreadRepository(db)

	jwtManager := jwt.NewManager("integration-secret", time.Hour)
	blacklist := service.NewTokenBlacklist(repository.NewTokenBlacklistRepository(db), cacheService)
	invites := service.NewInviteService(repository.NewInviteRepository(db))
	settings := service.NewSettingsService(repository.NewSettingsRepository(db))
	defaults := service.ProfileDefaults{AvatarURL: "/static/avatar.png", BannerURL: "/static/banner.png"}
	catalog := steam.NewCatalogFromApps([]steam.App{{AppID: 1245620, Name: "ELDEN RING"}})

	authService := service.NewAuthService(userRepo, profileRepo, invites, settings, blacklist, jwtManager, defaults)
	profileService := service.NewProfileService(userRepo, profileRepo, repository.NewVerificationCodeRepository(db), nopMediaStore{}, mailer.New(mailer.Config{}), defaults)
	moderationService := service.NewModerationService(repository.NewModerationRepository(db), profileRepo, userRepo)
	contentService := service.NewContentService(repository.NewContentCacheRepository(db), tmdb.NewClient("", ""), catalog, steam.NewClient(s.steam.URL), 0)

	h := &Handlers{
		Auth:       handler.NewAuthHandler(authService),
		Invite:     handler.NewInviteHandler(invites, settings),
		Admin:      handler.NewAdminHandler(settings),
		Profile:    handler.NewProfileHandler(profileService),
		Category:   handler.NewCategoryHandler(service.NewCategoryService(categoryRepo, cacheService)),
		Thread:     handler.NewThreadHandler(service.NewThreadService(threadRepo, categoryRepo, nil)),
		Post:       handler.NewPostHandler(service.NewPostService(repository.NewPostRepository(db), threadRepo)),
		Like:       handler.NewLikeHandler(service.NewLikeService(repository.NewLikeRepository(db))),
		Moderation: handler.NewModerationHandler(moderationService),
		Content:    handler.NewContentHandler(contentService),
	}

	s.router = gin.New()
	Setup(s.router, h, middleware.NewAuthenticator(jwtManager, blacklist, profileRepo), Options{
		Environment:   "test",
		UserRateLimit: middleware.RateLimitPerUser(s.redis, 1000),
		Probes:        map[string]func(context.Context) error{"redis": cacheService.Ping},
	})
}

func (s *APISuite) TearDownTest() {
	s.steam.Close()
	_ = s.redis.Close()
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   *struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

func (s *APISuite) call(method, path, token string, body interface{}) (int, envelope) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

// register signs up a user and returns its id and token; a non-empty role is
// written straight to the profile
func (s *APISuite) register(username string, role domain.Role) (string, string) {
	code, env := s.call(http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"username": username,
		"name":     "Nome " + username,
		"email":    username + "@example.com",
		"password": "segredo123",
	})
	s.Require().Equal(http.StatusCreated, code, env.Error)

	var res struct {
		User  struct{ ID string } `json:"user"`
		Token string              `json:"token"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &res))
	if role != "" {
		s.Require().NoError(s.db.Model(&domain.Profile{}).Where("user_id = ?", res.User.ID).Update("role", role).Error)
	}
	return res.User.ID, res.Token
}

func (s *APISuite) createCategory(token, slug string) string {
	code, env := s.call(http.MethodPost, "/api/v1/categories", token, gin.H{"name": "Categoria " + slug, "slug": slug})
	s.Require().Equal(http.StatusCreated, code, env.Error)
	var category struct{ ID string }
	s.Require().NoError(json.Unmarshal(env.Data, &category))
	return category.ID
}

func (s *APISuite) TestHealthAndNotFound() {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusOK, w.Code)

	var health map[string]string
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &health))
	s.Equal("ok", health["status"])
	s.Equal("test", health["environment"])
	s.NotEmpty(health["timestamp"])

	code, env := s.call(http.MethodGet, "/api/v1/nao-existe", "", nil)
	s.Equal(http.StatusNotFound, code)
	s.False(env.Success)
	s.Equal("NOT_FOUND", env.Error.Code)
}

func (s *APISuite) TestReadiness() {
	ready := func() (int, map[string]interface{}) {
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		var body map[string]interface{}
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
		return w.Code, body
	}

	code, body := ready()
	s.Equal(http.StatusOK, code)
	s.Equal(true, body["ready"])
	s.Equal(map[string]interface{}{"redis": "ok"}, body["checks"])

	s.mr.Close()
	code, body = ready()
	s.Equal(http.StatusServiceUnavailable, code)
	s.Equal(false, body["ready"])
}

func (s *APISuite) TestAuthFlow() {
	_, token := s.register("joana", "")

	code, env := s.call(http.MethodGet, "/api/v1/auth/me", token, nil)
	s.Equal(http.StatusOK, code)
	s.Contains(string(env.Data), `"username":"joana"`)

	code, _ = s.call(http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "joana", "password": "errada"})
	s.Equal(http.StatusUnauthorized, code)

	code, env = s.call(http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "joana"})
	s.Equal(http.StatusBadRequest, code)
	s.Equal("BAD_REQUEST", env.Error.Code)

	code, _ = s.call(http.MethodPost, "/api/v1/auth/logout", token, nil)
	s.Equal(http.StatusOK, code)

	code, env = s.call(http.MethodGet, "/api/v1/auth/me", token, nil)
	s.Equal(http.StatusUnauthorized, code)
	s.Equal("Token inválido", env.Error.Message)

	code, _ = s.call(http.MethodGet, "/api/v1/auth/me", "", nil)
	s.Equal(http.StatusUnauthorized, code)
}

func (s *APISuite) TestCategoryMutationsRequireAdmin() {
	_, userToken := s.register("comum", "")
	_, adminToken := s.register("chefe", domain.RoleAdmin)

	code, _ := s.call(http.MethodPost, "/api/v1/categories", "", gin.H{"name": "Filmes", "slug": "filmes"})
	s.Equal(http.StatusUnauthorized, code)

	code, env := s.call(http.MethodPost, "/api/v1/categories", userToken, gin.H{"name": "Filmes", "slug": "filmes"})
	s.Equal(http.StatusForbidden, code)
	s.Equal("FORBIDDEN", env.Error.Code)

	id := s.createCategory(adminToken, "filmes")
	code, env = s.call(http.MethodGet, "/api/v1/categories/"+id, "", nil)
	s.Equal(http.StatusOK, code)
	s.Contains(string(env.Data), `"slug":"filmes"`)

	code, env = s.call(http.MethodGet, "/api/v1/categories/tree", "", nil)
	s.Equal(http.StatusOK, code)
	s.Contains(string(env.Data), id)
}

func (s *APISuite) TestThreadTemplatePermissions() {
	_, adminToken := s.register("admin", domain.RoleAdmin)
	_, userToken := s.register("usuario1", "")
	categoryID := s.createCategory(adminToken, "geral")

	code, env := s.call(http.MethodPost, "/api/v1/threads", userToken, gin.H{
		"categoryId": categoryID,
		"template":   "midia",
		"title":      "Filme novo em 4K",
		"content":    gin.H{"nome_conteudo": "Filme"},
	})
	s.Equal(http.StatusForbidden, code)
	s.Contains(env.Error.Message, "midia")

	code, env = s.call(http.MethodPost, "/api/v1/threads", userToken, gin.H{
		"categoryId": categoryID,
		"template":   "postagem",
		"title":      "Minha primeira postagem",
		"content":    gin.H{"conteudo": "Olá a todos do fórum!", "tags": []string{"apresentação"}},
	})
	s.Require().Equal(http.StatusCreated, code, env.Error)

	var thread struct {
		ID   string `json:"id"`
		Slug string `json:"slug"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &thread))
	s.Equal("minha-primeira-postagem", thread.Slug)

	code, _ = s.call(http.MethodPatch, "/api/v1/threads/"+thread.ID+"/toggle-pin", userToken, nil)
	s.Equal(http.StatusForbidden, code)

	code, env = s.call(http.MethodPatch, "/api/v1/threads/"+thread.ID+"/toggle-pin", adminToken, nil)
	s.Equal(http.StatusOK, code)
	s.Equal("Thread fixada", env.Message)

	code, env = s.call(http.MethodGet, "/api/v1/threads?categoryId="+categoryID, "", nil)
	s.Equal(http.StatusOK, code)
	s.Contains(string(env.Data), thread.ID)

	code, _ = s.call(http.MethodGet, "/api/v1/threads?sortBy=aleatorio", "", nil)
	s.Equal(http.StatusBadRequest, code)
}

func (s *APISuite) TestPostsAndLikes() {
	_, adminToken := s.register("admin", domain.RoleAdmin)
	_, userToken := s.register("leitor", "")
	categoryID := s.createCategory(adminToken, "conversa")

	code, env := s.call(http.MethodPost, "/api/v1/threads", adminToken, gin.H{
		"categoryId": categoryID,
		"template":   "postagem",
		"title":      "Regras do fórum",
		"content":    gin.H{"conteudo": "Sejam gentis uns com os outros."},
	})
	s.Require().Equal(http.StatusCreated, code, env.Error)
	var thread struct{ ID string }
	s.Require().NoError(json.Unmarshal(env.Data, &thread))

	code, env = s.call(http.MethodPost, "/api/v1/posts", userToken, gin.H{"threadId": thread.ID, "content": "Entendido!"})
	s.Require().Equal(http.StatusCreated, code, env.Error)
	var post struct{ ID string }
	s.Require().NoError(json.Unmarshal(env.Data, &post))

	code, _ = s.call(http.MethodPost, "/api/v1/posts", userToken, gin.H{"threadId": thread.ID, "content": "Resposta", "parentPostId": post.ID})
	s.Equal(http.StatusCreated, code)

	code, env = s.call(http.MethodGet, "/api/v1/posts/"+post.ID+"/replies", "", nil)
	s.Equal(http.StatusOK, code)
	s.Contains(string(env.Data), "Resposta")

	path := "/api/v1/likes/threads/" + thread.ID
	for _, want := range []bool{true, false, true} {
		code, env = s.call(http.MethodPost, path, userToken, nil)
		s.Require().Equal(http.StatusOK, code)
		var res struct {
			HasLiked bool `json:"hasLiked"`
		}
		s.Require().NoError(json.Unmarshal(env.Data, &res))
		s.Equal(want, res.HasLiked)
	}

	code, env = s.call(http.MethodGet, path+"/status", userToken, nil)
	s.Equal(http.StatusOK, code)
	s.Contains(string(env.Data), `"likeCount":1`)

	code, _ = s.call(http.MethodPost, path, "", nil)
	s.Equal(http.StatusUnauthorized, code)

	code, _ = s.call(http.MethodGet, "/api/v1/posts", "", nil)
	s.Equal(http.StatusBadRequest, code)
}

func (s *APISuite) TestBannedUserIsLockedOut() {
	_, modToken := s.register("moderadora", domain.RoleModerador)
	targetID, targetToken := s.register("encrenqueiro", "")

	code, _ := s.call(http.MethodPost, "/api/v1/moderation/bans/"+targetID, targetToken, gin.H{"reason": "tentativa de banir a si mesmo"})
	s.Equal(http.StatusForbidden, code)

	code, env := s.call(http.MethodPost, "/api/v1/moderation/bans/"+targetID, modToken, gin.H{"reason": "spam em várias threads"})
	s.Require().Equal(http.StatusCreated, code, env.Error)

	code, env = s.call(http.MethodGet, "/api/v1/auth/me", targetToken, nil)
	s.Equal(http.StatusForbidden, code)
	s.Equal("Sua conta está banida", env.Error.Message)

	code, _ = s.call(http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "encrenqueiro", "password": "segredo123"})
	s.Equal(http.StatusForbidden, code)

	code, env = s.call(http.MethodGet, "/api/v1/moderation/bans", modToken, nil)
	s.Equal(http.StatusOK, code)
	s.Contains(string(env.Data), targetID)

	code, _ = s.call(http.MethodDelete, "/api/v1/moderation/bans/"+targetID, modToken, nil)
	s.Equal(http.StatusOK, code)

	code, _ = s.call(http.MethodGet, "/api/v1/auth/me", targetToken, nil)
	s.Equal(http.StatusOK, code)
}

func (s *APISuite) TestRegistrationToggle() {
	_, adminToken := s.register("admin", domain.RoleAdmin)

	code, env := s.call(http.MethodPut, "/api/v1/admin/settings/registration", adminToken, gin.H{"required": true})
	s.Require().Equal(http.StatusOK, code, env.Error)

	code, env = s.call(http.MethodGet, "/api/v1/invites/status", "", nil)
	s.Equal(http.StatusOK, code)
	s.Contains(string(env.Data), `"requireInviteCode":true`)

	code, _ = s.call(http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"username": "semconvite",
		"name":     "Sem Convite",
		"email":    "semconvite@example.com",
		"password": "segredo123",
	})
	s.Equal(http.StatusBadRequest, code)

	code, _ = s.call(http.MethodPut, "/api/v1/admin/settings/registration", adminToken, gin.H{})
	s.Equal(http.StatusBadRequest, code)
}

func (s *APISuite) TestExternalSteamLookup() {
	code, env := s.call(http.MethodGet, "/api/v1/external/steam/search?query=elden%20ring", "", nil)
	s.Require().Equal(http.StatusOK, code, env.Error)
	s.Contains(string(env.Data), "ELDEN RING")

	code, env = s.call(http.MethodGet, "/api/v1/external/cache/count/steam", "", nil)
	s.Equal(http.StatusOK, code)
	s.Contains(string(env.Data), `"count":1`)

	code, _ = s.call(http.MethodGet, "/api/v1/external/steam/search", "", nil)
	s.Equal(http.StatusBadRequest, code)

	code, _ = s.call(http.MethodGet, "/api/v1/external/steam/abc", "", nil)
	s.Equal(http.StatusBadRequest, code)

	code, _ = s.call(http.MethodPost, "/api/v1/external/cache/cleanup", "", nil)
	s.Equal(http.StatusUnauthorized, code)
}
