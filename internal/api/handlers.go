package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"qsim/internal/backtest"
	"qsim/internal/config"
	"qsim/internal/database"
	"qsim/internal/errors"
	"qsim/internal/logger"
)

// Handlers contains the API handlers and their dependencies. The result
// store may be nil when the server runs without a database.
type Handlers struct {
	engine *backtest.Engine
	store  *database.ResultStore
	auth   config.AuthConfig
	log    logger.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(engine *backtest.Engine, store *database.ResultStore, auth config.AuthConfig, log logger.Logger) *Handlers {
	return &Handlers{engine: engine, store: store, auth: auth, log: log}
}

// Login authenticates the configured user and issues a JWT.
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	if req.Username != h.auth.Username ||
		bcrypt.CompareHashAndPassword([]byte(h.auth.PasswordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, Response{Success: false, Error: "invalid credentials"})
		return
	}

	token, expiresAt, err := issueToken(h.auth.JWTSecret, req.Username, h.auth.TokenTTL)
	if err != nil {
		h.log.Error("failed to sign token", "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: LoginResponse{
			AccessToken: token,
			ExpiresAt:   expiresAt,
			Username:    req.Username,
		},
	})
}

// RunBacktest runs a backtest synchronously and returns the result. When
// the request asks for persistence and a store is available, the result is
// saved and its ID returned alongside.
func (h *Handlers) RunBacktest(c *gin.Context) {
	var req BacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	result, err := h.engine.Run(c.Request.Context(), &req.Config)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if req.Persist {
		if h.store == nil {
			c.JSON(http.StatusServiceUnavailable, Response{
				Success: false,
				Error:   "result persistence is not available",
			})
			return
		}
		id, err := h.store.Save(c.Request.Context(), result)
		if err != nil {
			h.log.Error("failed to save backtest result", "error", err)
			c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to save result"})
			return
		}
		result.ID = id
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// ListBacktests returns summaries of persisted results, newest first.
func (h *Handlers) ListBacktests(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, Response{Success: false, Error: "result persistence is not available"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	summaries, err := h.store.List(c.Request.Context(), limit)
	if err != nil {
		h.log.Error("failed to list backtest results", "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to list results"})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: summaries})
}

// GetBacktest returns one persisted result by ID.
func (h *Handlers) GetBacktest(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, Response{Success: false, Error: "result persistence is not available"})
		return
	}

	result, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if err == database.ErrResultNotFound {
			c.JSON(http.StatusNotFound, Response{Success: false, Error: "result not found"})
			return
		}
		h.log.Error("failed to load backtest result", "error", err, "id", c.Param("id"))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to load result"})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// respondError maps application errors to HTTP responses.
func (h *Handlers) respondError(c *gin.Context, err error) {
	if appErr := errors.GetAppError(err); appErr != nil {
		c.JSON(appErr.HTTPStatus(), Response{Success: false, Error: appErr.Message})
		return
	}
	h.log.Error("backtest failed", "error", err)
	c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "internal error"})
}
