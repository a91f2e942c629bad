package http

import (
	"net/http"

	"queuecast/internal/core/domain"
	"queuecast/internal/core/ports"
	"queuecast/internal/infrastructure/middleware"
	"queuecast/internal/infrastructure/monitoring"
	"queuecast/pkg/errors"
	"queuecast/pkg/validation"

	"github.com/gin-gonic/gin"
)

type QueueHandler struct {
	queueService ports.QueueService
	metrics      *monitoring.PrometheusCollector
}

var _ ports.QueueHTTPHandler = (*QueueHandler)(nil)

func NewQueueHandler(queueService ports.QueueService, metrics *monitoring.PrometheusCollector) *QueueHandler {
	return &QueueHandler{
		queueService: queueService,
		metrics:      metrics,
	}
}

// SetupRoutes mounts the queue API. auth guards every route that acts on
// behalf of a caller; reads are public.
func (h *QueueHandler) SetupRoutes(router *gin.Engine, auth gin.HandlerFunc) {
	api := router.Group("/api/v1")
	{
		api.GET("/queue/:id", h.GetQueue)
		api.GET("/queue/:id/items", h.ListItems)

		owned := api.Group("", auth)
		owned.POST("/queue", h.CreateQueue)
		owned.GET("/queue", h.ListQueues)
		owned.DELETE("/queue/:id", h.DeleteQueue)
		owned.POST("/queue/:id", h.AddItem)
		owned.POST("/queue/:id/add-to-end", h.AddItemToEnd)
		owned.POST("/queue/:id/next", h.PopHead)
		owned.PUT("/items/:id", h.UpdateItem)
		owned.DELETE("/items/:id", h.RemoveItem)
	}
}

type createQueueRequest struct {
	Name string `json:"name"`
}

type itemRequest struct {
	Text     string `json:"text"`
	Position *int   `json:"position"`
}

type addToEndRequest struct {
	Item string `json:"item"`
}

func (h *QueueHandler) CreateQueue(c *gin.Context) {
	var req createQueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError("invalid request format"))
		return
	}

	queue, err := h.queueService.CreateQueue(c.Request.Context(), req.Name, caller(c))
	h.record("create_queue", err)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, queue)
}

func (h *QueueHandler) ListQueues(c *gin.Context) {
	queues, err := h.queueService.ListQueues(c.Request.Context(), caller(c))
	if err != nil {
		c.Error(err)
		return
	}
	if queues == nil {
		queues = []*domain.Queue{}
	}
	c.JSON(http.StatusOK, queues)
}

func (h *QueueHandler) GetQueue(c *gin.Context) {
	id, ok := queueIDParam(c)
	if !ok {
		return
	}

	queue, err := h.queueService.GetQueue(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, queue)
}

func (h *QueueHandler) ListItems(c *gin.Context) {
	id, ok := queueIDParam(c)
	if !ok {
		return
	}

	items, err := h.queueService.ListItems(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	if items == nil {
		items = []*domain.QueueItem{}
	}
	c.JSON(http.StatusOK, items)
}

func (h *QueueHandler) DeleteQueue(c *gin.Context) {
	id, ok := queueIDParam(c)
	if !ok {
		return
	}

	_, err := h.queueService.DeleteQueue(c.Request.Context(), id, caller(c))
	h.record("delete_queue", err)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Queue deleted"})
}

func (h *QueueHandler) AddItem(c *gin.Context) {
	id, ok := queueIDParam(c)
	if !ok {
		return
	}
	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError("invalid request format"))
		return
	}

	_, err := h.queueService.AddItem(c.Request.Context(), id, caller(c), domain.ItemInput{Text: req.Text, Position: req.Position})
	h.record("add_item", err)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Queue item added"})
}

func (h *QueueHandler) AddItemToEnd(c *gin.Context) {
	id, ok := queueIDParam(c)
	if !ok {
		return
	}
	var req addToEndRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError("invalid request format"))
		return
	}

	item, err := h.queueService.AddItemToEnd(c.Request.Context(), id, caller(c), req.Item)
	h.record("add_item_to_end", err)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Item added to end of queue",
		"item":    item,
	})
}

func (h *QueueHandler) PopHead(c *gin.Context) {
	id, ok := queueIDParam(c)
	if !ok {
		return
	}

	item, err := h.queueService.PopHead(c.Request.Context(), id, caller(c))
	h.record("pop_head", err)
	if err != nil {
		c.Error(err)
		return
	}

	message := "Next item processed"
	if item == nil {
		message = "Queue is empty"
	}
	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"item":    item,
	})
}

func (h *QueueHandler) UpdateItem(c *gin.Context) {
	id, ok := itemIDParam(c)
	if !ok {
		return
	}
	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError("invalid request format"))
		return
	}

	_, err := h.queueService.UpdateItem(c.Request.Context(), id, caller(c), domain.ItemInput{Text: req.Text, Position: req.Position})
	h.record("update_item", err)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Queue item updated"})
}

func (h *QueueHandler) RemoveItem(c *gin.Context) {
	id, ok := itemIDParam(c)
	if !ok {
		return
	}

	err := h.queueService.RemoveItem(c.Request.Context(), id, caller(c))
	h.record("remove_item", err)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Queue item removed"})
}

func (h *QueueHandler) record(operation string, err error) {
	if h.metrics != nil {
		h.metrics.RecordQueueMutation(operation, err)
	}
}

// caller is only meaningful behind AuthMiddleware.
func caller(c *gin.Context) domain.UserID {
	id, _ := middleware.CurrentUserID(c)
	return id
}

func queueIDParam(c *gin.Context) (domain.QueueID, bool) {
	id, err := validation.ParseID(c.Param("id"))
	if err != nil {
		c.Error(errors.NewValidationError("Invalid queue id"))
		return 0, false
	}
	return domain.QueueID(id), true
}

func itemIDParam(c *gin.Context) (domain.ItemID, bool) {
	id, err := validation.ParseID(c.Param("id"))
	if err != nil {
		c.Error(errors.NewValidationError("Invalid item id"))
		return 0, false
	}
	return domain.ItemID(id), true
}
