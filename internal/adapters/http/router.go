package http

import (
	"context"
	"net/http"

	"github.com/dkeye/Parley/internal/adapters/signal"
	"github.com/dkeye/Parley/internal/app/orch"
	"github.com/dkeye/Parley/internal/config"
	"github.com/dkeye/Parley/internal/core"
	"github.com/dkeye/Parley/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const (
	sessionName        = "ParleySessions"
	profileUserKey     = "user_id"
	profileLanguageKey = "language"
	profileMaxAge      = 86400 * 30
)

func genClientToken() string {
	idStr := uuid.NewString()
	return idStr
}

func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

type profile struct {
	UserID   string `json:"user_id"`
	Language string `json:"language"`
}

func loadProfile(c *gin.Context) profile {
	s := sessions.Default(c)
	p := profile{}
	if v, ok := s.Get(profileUserKey).(string); ok {
		p.UserID = v
	}
	if v, ok := s.Get(profileLanguageKey).(string); ok {
		p.Language = v
	}
	return p
}

func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   profileMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   cfg.CookieSecure,
	})
	r.Use(sessions.Sessions(sessionName, store))
	r.Use(ClientTokenMiddleware())

	ctrl := signal.NewSignalWSController(o, signal.OptionsFrom(cfg))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Parley relay is running"})
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/ws/multi-language/:room_id", func(c *gin.Context) {
		p := loadProfile(c)
		log.Info().Str("module", "adapters.http").Str("room", c.Param("room_id")).Msg("ws endpoint hit")
		ctrl.HandleRoom(ctx, c, signal.Defaults{
			UserID:   p.UserID,
			Language: p.Language,
			Seed:     c.GetString("client_token"),
		})
	})

	// GET /rooms/:room_id/users lists members in join order
	r.GET("/rooms/:room_id/users", func(c *gin.Context) {
		roomID, err := domain.ParseRoomID(c.Param("room_id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		members := o.Registry.MembersOf(roomID)
		users := make([]core.MemberDTO, 0, len(members))
		for _, ms := range members {
			users = append(users, core.ToDTO(ms))
		}
		c.JSON(http.StatusOK, gin.H{"users": users})
	})

	api := r.Group("/api")

	api.GET("/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rooms": o.Registry.List()})
	})

	// DELETE /api/rooms/:room_id/users/:user_id kicks a member
	api.DELETE("/rooms/:room_id/users/:user_id", func(c *gin.Context) {
		if !o.Kick(domain.RoomID(c.Param("room_id")), domain.UserID(c.Param("user_id"))) {
			c.JSON(http.StatusNotFound, gin.H{"error": "member not found"})
			return
		}
		c.Status(http.StatusNoContent)
	})

	api.GET("/profile", func(c *gin.Context) {
		c.JSON(http.StatusOK, loadProfile(c))
	})

	// PUT /api/profile stores defaults for init frames that omit user_id or language
	api.PUT("/profile", func(c *gin.Context) {
		var req profile
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid profile"})
			return
		}
		s := sessions.Default(c)
		if req.UserID != "" {
			id, err := domain.ParseUserID(req.UserID, "")
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			s.Set(profileUserKey, string(id))
		}
		if req.Language != "" {
			s.Set(profileLanguageKey, string(domain.ParseLanguage(req.Language)))
		}
		if err := s.Save(); err != nil {
			log.Error().Err(err).Str("module", "adapters.http").Msg("save session")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save profile"})
			return
		}
		c.JSON(http.StatusOK, loadProfile(c))
	})

	log.Info().Str("module", "adapters.http").Msg("router setup")
	return r
}
