package handlers

import (
	"net/http"

	"stocksim/internal/engines/simulation"

	"github.com/gin-gonic/gin"
)

type SimulationHandler struct {
	engine *simulation.SimulationEngine
}

func NewSimulationHandler(engine *simulation.SimulationEngine) *SimulationHandler {
	return &SimulationHandler{
		engine: engine,
	}
}

type FinishSimulationRequest struct {
	Force bool `json:"force"`
}

// POST /api/v1/simulation/start
func (sh *SimulationHandler) StartSimulation(c *gin.Context) {
	session, created, err := sh.engine.StartSimulation(ownerID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	message := "Existing simulation resumed"
	if created {
		message = "New simulation started"
	}
	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"created": created,
		"session": session,
	})
}

// GET /api/v1/simulation/active
func (sh *SimulationHandler) GetActiveSession(c *gin.Context) {
	session, err := sh.engine.GetActiveSession(ownerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

// POST /api/v1/simulation/advance
func (sh *SimulationHandler) AdvanceRound(c *gin.Context) {
	session, err := sh.engine.GetActiveSession(ownerID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	advanced, err := sh.engine.AdvanceRound(c.Request.Context(), session.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": advanced})
}

// POST /api/v1/simulation/finish
func (sh *SimulationHandler) FinishSimulation(c *gin.Context) {
	var req FinishSimulationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	session, err := sh.engine.GetActiveSession(ownerID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	finished, err := sh.engine.FinishSimulation(c.Request.Context(), session.ID, req.Force)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": finished})
}

// GET /api/v1/simulation/history
func (sh *SimulationHandler) GetHistory(c *gin.Context) {
	sessions, err := sh.engine.GetHistory(ownerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// GET /api/v1/simulation/portfolio
func (sh *SimulationHandler) GetPortfolio(c *gin.Context) {
	session, valuation, err := sh.engine.ValuateActive(c.Request.Context(), ownerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session":   session,
		"valuation": valuation,
	})
}

// RegisterSimulationRoutes registers all simulation routes.
func RegisterSimulationRoutes(router *gin.RouterGroup, handler *SimulationHandler) {
	simulationGroup := router.Group("/simulation")
	{
		simulationGroup.POST("/start", handler.StartSimulation)
		simulationGroup.GET("/active", handler.GetActiveSession)
		simulationGroup.POST("/advance", handler.AdvanceRound)
		simulationGroup.POST("/finish", handler.FinishSimulation)
		simulationGroup.GET("/history", handler.GetHistory)
		simulationGroup.GET("/portfolio", handler.GetPortfolio)
	}
}
