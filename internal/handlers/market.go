package handlers

import (
	"net/http"

	"stocksim/internal/dao/simulation"
	enginesim "stocksim/internal/engines/simulation"
	"stocksim/internal/services/market"

	"github.com/gin-gonic/gin"
)

type MarketHandler struct {
	instrumentDAO simulation.InstrumentDAOInterface
	engine        *enginesim.SimulationEngine
	prices        market.PriceOracle
}

func NewMarketHandler(instrumentDAO simulation.InstrumentDAOInterface, engine *enginesim.SimulationEngine, prices market.PriceOracle) *MarketHandler {
	return &MarketHandler{
		instrumentDAO: instrumentDAO,
		engine:        engine,
		prices:        prices,
	}
}

// GET /api/v1/instruments?category=
func (mh *MarketHandler) ListInstruments(c *gin.Context) {
	instruments, err := mh.instrumentDAO.List(c.Query("category"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"instruments": instruments})
}

// GET /api/v1/instruments/categories
func (mh *MarketHandler) ListCategories(c *gin.Context) {
	categories, err := mh.instrumentDAO.Categories()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// GET /api/v1/instruments/:symbol
//
// The trade-initiation view: the instrument plus its January open for the
// active session's simulated year. Unlike bulk valuation, a missing quote is
// an error here; the user cannot be allowed to trade at an unknown price. The
// returned price is what the client pins on the subsequent trade request.
func (mh *MarketHandler) GetInstrumentDetail(c *gin.Context) {
	instrument, err := mh.instrumentDAO.GetBySymbol(c.Param("symbol"))
	if err != nil {
		respondError(c, err)
		return
	}

	session, err := mh.engine.GetActiveSession(ownerID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	price, err := mh.prices.MonthlyOpen(c.Request.Context(), instrument.Symbol, session.SimulatedYear, 1)
	if err != nil {
		respondError(c, err)
		return
	}

	maxQuantity := session.Cash.Div(price).IntPart()
	if maxQuantity < 0 {
		maxQuantity = 0
	}

	c.JSON(http.StatusOK, gin.H{
		"instrument":     instrument,
		"current_price":  price,
		"simulated_year": session.SimulatedYear,
		"round_number":   session.RoundNumber,
		"cash":           session.Cash,
		"max_quantity":   maxQuantity,
	})
}

// RegisterMarketRoutes registers all instrument routes.
func RegisterMarketRoutes(router *gin.RouterGroup, handler *MarketHandler) {
	instruments := router.Group("/instruments")
	{
		instruments.GET("", handler.ListInstruments)
		instruments.GET("/categories", handler.ListCategories)
		instruments.GET("/:symbol", handler.GetInstrumentDetail)
	}
}
