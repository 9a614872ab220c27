package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"mediafeed/api/internal/config"
	"mediafeed/api/internal/feed"
	"mediafeed/api/internal/generate"
)

type HandlerSet struct {
	log        zerolog.Logger
	cfg        *config.AppConfig
	store      feed.Store
	dispatcher *generate.Dispatcher
	db         *pgxpool.Pool // nil on the file backend
	cache      *redis.Client // nil when redis is disabled
}

func NewHandlerSet(log zerolog.Logger, cfg *config.AppConfig, store feed.Store, dispatcher *generate.Dispatcher, db *pgxpool.Pool, cache *redis.Client) HandlerSet {
	return HandlerSet{
		log:        log,
		cfg:        cfg,
		store:      store,
		dispatcher: dispatcher,
		db:         db,
		cache:      cache,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)
	router.GET("/media", h.GetMedia)
	router.POST("/generate", h.GenerateImage)
}
