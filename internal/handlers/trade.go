package handlers

import (
	"net/http"

	enginesim "stocksim/internal/engines/simulation"
	"stocksim/internal/engines/trading"
	"stocksim/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type TradeHandler struct {
	executor trading.TradeExecutorInterface
	engine   *enginesim.SimulationEngine
}

func NewTradeHandler(executor trading.TradeExecutorInterface, engine *enginesim.SimulationEngine) *TradeHandler {
	return &TradeHandler{
		executor: executor,
		engine:   engine,
	}
}

type TradeRequest struct {
	// SessionID is optional; when zero the caller's active session is used.
	SessionID uint             `json:"session_id"`
	Symbol    string           `json:"symbol" binding:"required"`
	Side      models.TradeSide `json:"side" binding:"required"`
	Quantity  decimal.Decimal  `json:"quantity" binding:"required"`
	// Price is the quote pinned when the instrument detail was viewed, so the
	// user trades at the price they were shown.
	Price decimal.Decimal `json:"price" binding:"required"`
}

// POST /api/v1/trades
func (th *TradeHandler) PlaceTrade(c *gin.Context) {
	var req TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sessionID := req.SessionID
	if sessionID == 0 {
		session, err := th.engine.GetActiveSession(ownerID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		sessionID = session.ID
	}

	entry, err := th.executor.Execute(c.Request.Context(), sessionID, req.Symbol, req.Side, req.Quantity, req.Price)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"entry": entry})
}

// RegisterTradeRoutes registers all trade routes.
func RegisterTradeRoutes(router *gin.RouterGroup, handler *TradeHandler) {
	router.POST("/trades", handler.PlaceTrade)
}
