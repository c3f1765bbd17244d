package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/recurpix/recurpix/internal/domain/subscriber"
	"github.com/recurpix/recurpix/internal/logger"
	"github.com/recurpix/recurpix/internal/types"
)

// subscriberResponse is the read-only ops view of a billing profile
type subscriberResponse struct {
	ID          string  `json:"id"`
	ChatID      int64   `json:"chat_id"`
	DisplayName string  `json:"display_name"`
	BillingDay  int     `json:"billing_day"`
	Amount      string  `json:"amount"`
	TaxID       *string `json:"tax_id,omitempty"`
	Active      bool    `json:"active"`
	NextBilling string  `json:"next_billing"`
}

// Handler serves the read-only operations API
type Handler struct {
	repo   subscriber.Repository
	logger *logger.Logger
}

// NewRouter builds the gin engine with the ops endpoints
func NewRouter(repo subscriber.Repository, log *logger.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	h := &Handler{repo: repo, logger: log}

	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", h.Health)

	v1 := router.Group("/v1")
	{
		v1.GET("/subscribers", h.ListSubscribers)
	}

	return router
}

// Health reports liveness and the subscriber count
func (h *Handler) Health(c *gin.Context) {
	subs, err := h.repo.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "degraded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"subscribers": len(subs),
	})
}

// ListSubscribers returns every stored billing profile
func (h *Handler) ListSubscribers(c *gin.Context) {
	subs, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.logger.Errorw("failed to list subscribers", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list subscribers"})
		return
	}

	now := time.Now().UTC()
	out := make([]subscriberResponse, 0, len(subs))
	for _, sub := range subs {
		out = append(out, subscriberResponse{
			ID:          sub.ID,
			ChatID:      sub.ChatID,
			DisplayName: sub.DisplayName,
			BillingDay:  sub.BillingDay,
			Amount:      sub.Amount.StringFixed(2),
			TaxID:       sub.TaxID,
			Active:      sub.Active,
			NextBilling: types.NextBillingDate(now, sub.BillingDay).Format("2006-01-02"),
		})
	}
	c.JSON(http.StatusOK, gin.H{"subscribers": out})
}
