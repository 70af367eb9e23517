package httpserver

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/and161185/authgate/internal/convert"
	"github.com/and161185/authgate/internal/cookie"
	"github.com/and161185/authgate/internal/errs"
	"github.com/and161185/authgate/internal/service"
)

// Handler serves the auth, user and admin routes.
type Handler struct {
	auth service.AuthService
	log  *zap.Logger
}

// NewHandler constructs a Handler.
func NewHandler(auth service.AuthService, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{auth: auth, log: log}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Index is the public liveness route.
func (h *Handler) Index(c *gin.Context) {
	respond(c, "Hello, world! - Server is live!!!", nil)
}

// DomainLive returns the liveness route of one domain router.
func (h *Handler) DomainLive(domain string) gin.HandlerFunc {
	msg := fmt.Sprintf("Hello, world! - %s domain is live!!!", domain)
	return func(c *gin.Context) {
		respond(c, msg, nil)
	}
}

// Register creates an account, signs it in and deploys the session cookie.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.log, fmt.Errorf("request body must be a JSON object: %w", errs.ErrInvalidInput))
		return
	}

	res, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	h.log.Info("user registered", zap.Int64("user_id", res.User.ID), zap.String("email", res.User.Email))
	cookie.Deploy(c.Writer, res.Bundle.SessionCookie)
	respond(c, "User registered successfully", convert.ToAuthPayload(res.User, &res.Bundle))
}

// Login authenticates by email and password and deploys the session cookie.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.log, fmt.Errorf("request body must be a JSON object: %w", errs.ErrInvalidInput))
		return
	}

	res, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	cookie.Deploy(c.Writer, res.Bundle.SessionCookie)
	respond(c, "User logged in successfully", convert.ToAuthPayload(res.User, &res.Bundle))
}

// Profile returns an account by id with any tokens renewed on this request.
func (h *Handler) Profile(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	u, err := h.auth.Profile(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, "User profile retrieved successfully", convert.ToAuthPayload(u, BundleFrom(c)))
}

// Deactivate marks an account inactive. Only admins may call it.
func (h *Handler) Deactivate(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	actor, ok := IdentityFrom(c)
	if !ok {
		writeError(c, h.log, fmt.Errorf("no authenticated identity: %w", errs.ErrUnauthorized))
		return
	}

	u, err := h.auth.Deactivate(c.Request.Context(), actor, id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	h.log.Info("user deactivated", zap.Int64("user_id", u.ID), zap.Int64("by", actor.ID))
	respond(c, "User deactivated successfully", convert.ToAuthPayload(u, BundleFrom(c)))
}

func pathID(c *gin.Context) (int64, error) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid user id '%s': %w", raw, errs.ErrInvalidInput)
	}
	return id, nil
}
