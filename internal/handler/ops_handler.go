package handler

import (
	"errors"
	"net/http"

	"paygate/internal/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// OpsHandler is the read-only back-office API: inspect an order's state,
// its audit trail and its recurring series. Mutations stay with the
// reconcilers.
type OpsHandler struct {
	orders    *repository.OrderRepository
	recurring *repository.RecurringRepository
	settings  *repository.SettingRepository
}

func NewOpsHandler(orders *repository.OrderRepository, recurring *repository.RecurringRepository, settings *repository.SettingRepository) *OpsHandler {
	return &OpsHandler{orders: orders, recurring: recurring, settings: settings}
}

func (h *OpsHandler) GetOrder(c *gin.Context) {
	order, err := h.orders.GetByGUID(c.Param("guid"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch order"})
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OpsHandler) GetOrderNotes(c *gin.Context) {
	order, err := h.orders.GetByGUID(c.Param("guid"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch order"})
		return
	}
	notes, err := h.orders.NotesByOrder(order.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch notes"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_id": order.ID, "notes": notes})
}

func (h *OpsHandler) GetOrderRecurring(c *gin.Context) {
	order, err := h.orders.GetByGUID(c.Param("guid"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch order"})
		return
	}
	series, err := h.recurring.FindByInitialOrder(order.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch recurring series"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_id": order.ID, "series": series})
}

func (h *OpsHandler) GetSettings(c *gin.Context) {
	list, err := h.settings.GetAll()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch settings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": list})
}
