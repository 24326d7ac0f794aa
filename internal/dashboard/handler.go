package dashboard

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service *Service
	logger  *zap.Logger
}

func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")
	{
		api.GET("/summary", h.GetSummary)
		api.GET("/users", h.GetUsers)
		api.GET("/top-users", h.GetTopUsers)
		api.GET("/distribution", h.GetDistribution)
	}
	r.GET("/healthz", h.HealthCheck)
}

func (h *Handler) GetSummary(c *gin.Context) {
	summary, err := h.service.Summary()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) GetUsers(c *gin.Context) {
	users, err := h.service.Users()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) GetTopUsers(c *gin.Context) {
	top, err := h.service.TopUsers()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, top)
}

func (h *Handler) GetDistribution(c *gin.Context) {
	dist, err := h.service.Distribution()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dist)
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) fail(c *gin.Context, err error) {
	h.logger.Error("Dashboard query failed", zap.Error(err))
	c.JSON(http.StatusServiceUnavailable, gin.H{
		"error": "No data available. Run pipeline first.",
	})
}
