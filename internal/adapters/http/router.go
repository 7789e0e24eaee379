package http

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/dkeye/dialnet/internal/adapters/signal"
	"github.com/dkeye/dialnet/internal/app"
	"github.com/dkeye/dialnet/internal/app/orch"
	"github.com/dkeye/dialnet/internal/config"
	"github.com/dkeye/dialnet/internal/core"
	"github.com/dkeye/dialnet/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const clientTokenKey = "ct"

func genClientToken() string {
	idStr := uuid.NewString()
	return idStr
}

// ClientTokenMiddleware keeps a stable per-browser token in the cookie session.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		token, _ := session.Get(clientTokenKey).(string)
		if token == "" {
			token = genClientToken()
			session.Set(clientTokenKey, token)
			if err := session.Save(); err != nil {
				log.Warn().Err(err).Str("module", "adapters.http").Msg("save client token")
			}
		}
		c.Set("client_token", token)
		c.Next()
	}
}

// RequestLogger logs one line per request through zerolog.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("module", "adapters.http").
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("ip", c.ClientIP()).
			Msg("request")
	}
}

type createRoomRequest struct {
	Name     string `json:"name" binding:"required,max=50"`
	Password string `json:"password" binding:"required,max=128"`
	Username string `json:"username" binding:"omitempty,max=20"`
}

type createRoomResponse struct {
	ID   domain.RoomID   `json:"id"`
	Name domain.RoomName `json:"name"`
	Kind domain.RoomKind `json:"kind"`
}

// mountStatic serves the web UI when staticPath is a directory.
func mountStatic(r *gin.Engine, staticPath string) {
	info, err := os.Stat(staticPath)
	if err != nil || !info.IsDir() {
		log.Warn().Str("module", "adapters.http").Str("static", staticPath).Msg("static directory missing, UI not served")
		return
	}
	r.Static("/static", staticPath)

	index := filepath.Join(staticPath, "index.html")
	if _, err := os.Stat(index); err != nil {
		log.Warn().Str("module", "adapters.http").Str("index", index).Msg("index.html missing")
		return
	}
	r.GET("/", func(c *gin.Context) {
		c.File(index)
	})
}

func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator, metrics *app.Metrics) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(RequestLogger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{Path: "/", MaxAge: 3600 * 24 * 7, HttpOnly: true, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions("DialNetSessions", store))
	r.Use(ClientTokenMiddleware())

	mountStatic(r, cfg.StaticPath)

	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	api := r.Group("/api")

	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"sessions": o.Registry.Count(),
			"rooms":    len(o.ListRooms()),
		})
	})

	api.GET("/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, o.ListRooms())
	})

	limit, interval := cfg.CreateRoomLimit, cfg.CreateRoomInterval
	if limit <= 0 {
		limit = 5
	}
	if interval <= 0 {
		interval = time.Minute
	}
	createLimiter := signal.NewRoomRateLimiter(limit, interval)

	api.POST("/rooms", func(c *gin.Context) {
		// Keyed by address: a client that drops its cookie gets a fresh token.
		client := c.ClientIP()
		if !createLimiter.Allow(core.SessionID(client)) {
			log.Warn().Str("module", "adapters.http").Str("client", client).Msg("room creation rate limited")
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many rooms created, try again later"})
			return
		}
		var req createRoomRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name and password are required"})
			return
		}
		id, err := o.CreatePrivateRoom(req.Name, req.Password, req.Username)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidArgument) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			log.Error().Err(err).Str("module", "adapters.http").Msg("create room")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create room"})
			return
		}
		res := o.Rooms.Resolve(id)
		if !res.Found() {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create room"})
			return
		}
		room := res.Room.Room()
		c.JSON(http.StatusCreated, createRoomResponse{ID: room.ID, Name: room.Name, Kind: room.Kind})
	})

	ctrl := signal.NewSignalWSController(o, signal.Options{
		ReadLimit:       cfg.ReadLimit,
		PingPeriod:      cfg.PingPeriod,
		SendBuffer:      cfg.SendBuffer,
		OriginMode:      cfg.OriginMode,
		MaxMessageLen:   cfg.MaxMessageLen,
		RateLimit:       cfg.RateLimit,
		RateInterval:    cfg.RateInterval,
		UnifyJoinErrors: cfg.UnifyJoinErrors,
	})
	api.GET("/ws", func(c *gin.Context) {
		log.Debug().Str("module", "adapters.http").Str("client", c.GetString("client_token")).Msg("ws signal endpoint hit")
		ctrl.HandleSignal(ctx, c)
	})

	return r
}
