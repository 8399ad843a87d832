package registry

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"blue-carbon/registry-backend/internal/credits"
	"blue-carbon/registry-backend/internal/projects"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	chain := rg.Group("/blockchain")
	{
		chain.POST("/deploy/:projectId", h.Deploy)
		chain.POST("/mint-geonft/:projectId", h.MintGeoNFT)
	}
	tok := rg.Group("/tokenization")
	{
		tok.POST("/create/:projectId", h.Tokenize)
		tok.GET("/:projectId", h.GetLedger)
	}
	rg.GET("/dashboard/:projectId", h.Dashboard)
}

func parseProjectID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("projectId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return uuid.Nil, false
	}
	return id, true
}

func respondError(c *gin.Context, err error) {
	var transitionErr *projects.InvalidTransitionError
	switch {
	case errors.Is(err, projects.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &transitionErr),
		errors.Is(err, credits.ErrAlreadyIssued),
		errors.Is(err, ErrNoEstimate),
		errors.Is(err, ErrNoChainAddress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (h *Handler) Deploy(c *gin.Context) {
	id, ok := parseProjectID(c)
	if !ok {
		return
	}

	result, err := h.service.DeployContract(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) MintGeoNFT(c *gin.Context) {
	id, ok := parseProjectID(c)
	if !ok {
		return
	}

	result, err := h.service.MintGeoNFT(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) Tokenize(c *gin.Context) {
	id, ok := parseProjectID(c)
	if !ok {
		return
	}

	var req struct {
		UnitPrice *float64 `json:"unit_price"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	ledger, result, err := h.service.Tokenize(c.Request.Context(), id, req.UnitPrice)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ledger": ledger, "transaction": result})
}

func (h *Handler) GetLedger(c *gin.Context) {
	id, ok := parseProjectID(c)
	if !ok {
		return
	}

	ledger, err := h.service.GetLedger(c.Request.Context(), id)
	if errors.Is(err, credits.ErrLedgerNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, ledger)
}

func (h *Handler) Dashboard(c *gin.Context) {
	id, ok := parseProjectID(c)
	if !ok {
		return
	}

	dashboard, err := h.service.GetDashboard(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}
