package marketplace

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"blue-carbon/registry-backend/internal/credits"
	"blue-carbon/registry-backend/internal/pricing"
)

// MarketDataSource provides the live market snapshot
type MarketDataSource interface {
	MarketData(ctx context.Context) (*pricing.MarketData, error)
}

type Handler struct {
	manager *Manager
	market  MarketDataSource
}

func NewHandler(manager *Manager, market MarketDataSource) *Handler {
	return &Handler{manager: manager, market: market}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	mp := rg.Group("/marketplace")
	{
		mp.POST("/listings", h.List)
		mp.GET("/listings", h.ActiveListings)
		mp.GET("/listings/:id", h.Get)
		mp.POST("/listings/:id/cancel", h.Cancel)
		mp.POST("/listings/:id/purchase", h.Sell)
		mp.GET("/statistics", h.Statistics)
		mp.GET("/market-data", h.MarketData)
	}
}

func (h *Handler) List(c *gin.Context) {
	var req struct {
		ProjectID   uuid.UUID `json:"project_id" binding:"required"`
		Amount      float64   `json:"amount" binding:"required"`
		AskingPrice *float64  `json:"asking_price"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	listing, err := h.manager.List(c.Request.Context(), req.ProjectID, req.Amount, req.AskingPrice)
	if err != nil {
		var insufficientErr *credits.InsufficientError
		switch {
		case errors.As(err, &insufficientErr):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, credits.ErrLedgerNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, listing)
}

func (h *Handler) ActiveListings(c *gin.Context) {
	listings, err := h.manager.ActiveListings(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"listings": listings, "count": len(listings)})
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	listing, err := h.manager.GetListing(c.Request.Context(), id)
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "listing not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, listing)
}

func (h *Handler) Cancel(c *gin.Context) {
	h.decide(c, h.manager.Cancel)
}

func (h *Handler) Sell(c *gin.Context) {
	h.decide(c, h.manager.Sell)
}

func (h *Handler) decide(c *gin.Context, op func(context.Context, uuid.UUID) (*Listing, error)) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	listing, err := op(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, ErrNotActive):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, listing)
}

func (h *Handler) Statistics(c *gin.Context) {
	stats, err := h.manager.Statistics(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) MarketData(c *gin.Context) {
	data, err := h.market.MarketData(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, data)
}
