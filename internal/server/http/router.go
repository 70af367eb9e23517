// Package httpserver exposes the auth service over HTTP with gin.
package httpserver

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/and161185/authgate/internal/gate"
	"github.com/and161185/authgate/internal/service"
)

// Options configures NewRouter.
type Options struct {
	Gates       gate.Config
	Merged      bool     // one middleware for both gates instead of two
	CORSOrigins []string // empty allows none
	Log         *zap.Logger
}

// NewRouter wires middleware, gates and routes.
func NewRouter(auth service.AuthService, opt Options) *gin.Engine {
	log := opt.Log
	if log == nil {
		log = zap.NewNop()
	}
	if opt.Gates.Log == nil {
		opt.Gates.Log = log
	}

	r := gin.New()
	r.Use(Recover(log), RequestLogger(log))

	if len(opt.CORSOrigins) > 0 {
		cc := cors.DefaultConfig()
		cc.AllowOrigins = opt.CORSOrigins
		cc.AllowCredentials = true
		cc.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "Email", RequestIDHeader}
		cc.ExposeHeaders = []string{RequestIDHeader}
		r.Use(cors.New(cc))
	}

	if opt.Merged {
		r.Use(Gate(gate.Merged(opt.Gates), log))
	} else {
		r.Use(
			Gate(gate.Pipeline{gate.NewSessionGate(opt.Gates)}, log),
			Gate(gate.Pipeline{gate.NewAccessGate(opt.Gates)}, log),
		)
	}

	h := NewHandler(auth, log)

	r.GET("/", h.Index)
	api := r.Group("/api")
	{
		api.GET("", h.Index)
		api.GET("/", h.Index)

		authRoutes := api.Group("/v1/auth")
		authRoutes.GET("/", h.DomainLive("Auth"))
		authRoutes.POST("/register", h.Register)
		authRoutes.POST("/log-in", h.Login)

		userRoutes := api.Group("/v1/user")
		userRoutes.GET("/", h.DomainLive("User"))
		userRoutes.GET("/profile/:id", h.Profile)

		adminRoutes := api.Group("/v1/admin")
		adminRoutes.GET("/", h.DomainLive("Admin"))
		adminRoutes.PATCH("/users/:id/deactivate", h.Deactivate)
	}
	return r
}
