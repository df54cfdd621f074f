// Package http exposes the escrow engine over REST.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/singleflight"

	"github.com/builders-garden/squabble-engine/internal/modules/escrow/domain"
	"github.com/builders-garden/squabble-engine/internal/modules/escrow/usecase"
	"github.com/builders-garden/squabble-engine/internal/modules/notify"
	"github.com/builders-garden/squabble-engine/pkg/logger"
)

// Handler handles HTTP requests for the escrow engine
type Handler struct {
	uc    *usecase.EscrowUseCase
	hub   *notify.WSHub
	group singleflight.Group
}

// NewHandler creates a new HTTP handler. hub may be nil when the websocket
// stream is not exposed.
func NewHandler(uc *usecase.EscrowUseCase, hub *notify.WSHub) *Handler {
	return &Handler{uc: uc, hub: hub}
}

// RegisterRoutes registers all escrow routes on the given router group
func (h *Handler) RegisterRoutes(api *gin.RouterGroup, auth gin.HandlerFunc) {
	games := api.Group("/games")
	games.Use(auth)
	games.POST("", h.CreateGame)
	games.POST("/:id/join", h.Join)
	games.POST("/:id/withdraw", h.Withdraw)
	games.POST("/:id/start", h.Start)
	games.POST("/:id/resolve", h.Resolve)
	games.POST("/:id/cancel", h.Cancel)
	games.GET("", h.ListGames)
	games.GET("/:id", h.GetGame)
	games.GET("/:id/exists", h.GameExists)

	api.GET("/game-ids", h.GameIDs)
	api.GET("/rules", h.GetRules)

	admin := api.Group("/admin")
	admin.Use(auth)
	admin.POST("/pause", h.Pause)
	admin.POST("/unpause", h.Unpause)

	if h.hub != nil {
		api.GET("/ws", h.hub.HandleWS)
	}
}

// DTOs
type createGameRequest struct {
	GameID int64 `json:"game_id"`
	Stake  int64 `json:"stake" binding:"required"`
}

type resolveRequest struct {
	Winner   int64 `json:"winner"`
	Position *int  `json:"position"`
	Draw     bool  `json:"draw"`
}

// CreateGame handles game creation
func (h *Handler) CreateGame(c *gin.Context) {
	var req createGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	game, err := h.uc.CreateGame(c.Request.Context(), callerFrom(c), req.GameID, req.Stake)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, game)
}

// Join handles a player staking into a game
func (h *Handler) Join(c *gin.Context) {
	h.lifecycle(c, h.uc.Join)
}

// Withdraw handles a player leaving a pending game
func (h *Handler) Withdraw(c *gin.Context) {
	h.lifecycle(c, h.uc.Withdraw)
}

// Start handles the pending -> playing transition
func (h *Handler) Start(c *gin.Context) {
	h.lifecycle(c, h.uc.Start)
}

// Cancel handles cancellation of a pending game
func (h *Handler) Cancel(c *gin.Context) {
	h.lifecycle(c, h.uc.Cancel)
}

// Resolve settles a playing game with a winner, a position, or a draw
func (h *Handler) Resolve(c *gin.Context) {
	gameID, ok := gameIDParam(c)
	if !ok {
		return
	}

	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	caller := callerFrom(c)

	var err error
	switch {
	case req.Draw:
		err = h.uc.ResolveDraw(ctx, caller, gameID)
	case req.Position != nil:
		err = h.uc.ResolvePosition(ctx, caller, gameID, *req.Position)
	case req.Winner > 0:
		err = h.uc.ResolveWinner(ctx, caller, gameID, req.Winner)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "one of winner, position or draw is required"})
		return
	}
	if err != nil {
		abortWithError(c, err)
		return
	}

	game, err := h.uc.GetGame(ctx, gameID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, game)
}

// GetGame returns one game
func (h *Handler) GetGame(c *gin.Context) {
	gameID, ok := gameIDParam(c)
	if !ok {
		return
	}
	game, err := h.uc.GetGame(c.Request.Context(), gameID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, game)
}

// GameExists reports whether the id has been created
func (h *Handler) GameExists(c *gin.Context) {
	gameID, ok := gameIDParam(c)
	if !ok {
		return
	}
	exists, err := h.uc.GameExists(c.Request.Context(), gameID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"game_id": gameID, "exists": exists})
}

// ListGames returns games by position in creation order. Concurrent identical
// queries are collapsed through singleflight.
func (h *Handler) ListGames(c *gin.Context) {
	ctx := c.Request.Context()

	total, err := h.uc.TotalGames(ctx)
	if err != nil {
		abortWithError(c, err)
		return
	}

	start, err := strconv.Atoi(c.DefaultQuery("start", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start"})
		return
	}
	end := total
	if raw := c.Query("end"); raw != "" {
		if end, err = strconv.Atoi(raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end"})
			return
		}
	}

	key := fmt.Sprintf("games:%d:%d", start, end)
	v, err, _ := h.group.Do(key, func() (interface{}, error) {
		return h.uc.GetGames(ctx, start, end)
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"total": total, "games": v})
}

// GameIDs returns every created id in creation order
func (h *Handler) GameIDs(c *gin.Context) {
	ids, err := h.uc.GameIDs(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": len(ids), "ids": ids})
}

// GetRules returns the read-only system parameters
func (h *Handler) GetRules(c *gin.Context) {
	rules := h.uc.Rules()
	c.JSON(http.StatusOK, gin.H{
		"max_stake":   rules.MaxStake,
		"max_players": rules.MaxPlayers,
		"min_players": rules.MinPlayers,
		"paused":      h.uc.Paused(),
	})
}

// Pause gates new activity
func (h *Handler) Pause(c *gin.Context) {
	if err := h.uc.Pause(c.Request.Context(), callerFrom(c)); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"paused": true})
}

// Unpause lifts the gate
func (h *Handler) Unpause(c *gin.Context) {
	if err := h.uc.Unpause(c.Request.Context(), callerFrom(c)); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"paused": false})
}

// lifecycle runs one (caller, gameID) operation and returns the updated game
func (h *Handler) lifecycle(c *gin.Context, op func(ctx context.Context, caller, gameID int64) error) {
	gameID, ok := gameIDParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := op(ctx, callerFrom(c), gameID); err != nil {
		abortWithError(c, err)
		return
	}

	game, err := h.uc.GetGame(ctx, gameID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, game)
}

func gameIDParam(c *gin.Context) (int64, bool) {
	gameID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || gameID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid game id"})
		return 0, false
	}
	return gameID, true
}

// abortWithError maps sentinel errors to HTTP status codes
func abortWithError(c *gin.Context, err error) {
	logger.Warn(c.Request.Context()).Err(err).Msg("request failed")

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidStake),
		errors.Is(err, domain.ErrInvalidIdentity),
		errors.Is(err, domain.ErrInvalidGameID),
		errors.Is(err, domain.ErrInvalidRange):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrGameNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrGameExists),
		errors.Is(err, domain.ErrGameNotPending),
		errors.Is(err, domain.ErrGameNotPlaying),
		errors.Is(err, domain.ErrAlreadyJoined),
		errors.Is(err, domain.ErrNotEnoughPlayers),
		errors.Is(err, domain.ErrInvalidWinner),
		errors.Is(err, domain.ErrGameFull),
		errors.Is(err, domain.ErrReentrancy):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrTransferFailed):
		status = http.StatusBadGateway
	case errors.Is(err, domain.ErrPaused):
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
