package ports

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type QueueHTTPHandler interface {
	CreateQueue(c *gin.Context)
	ListQueues(c *gin.Context)
	GetQueue(c *gin.Context)
	DeleteQueue(c *gin.Context)
	ListItems(c *gin.Context)
	AddItem(c *gin.Context)
	AddItemToEnd(c *gin.Context)
	PopHead(c *gin.Context)
	UpdateItem(c *gin.Context)
	RemoveItem(c *gin.Context)
}

type UserHTTPHandler interface {
	Register(c *gin.Context)
	Login(c *gin.Context)
	VerifyToken(c *gin.Context)
	Logout(c *gin.Context)
}

type WebSocketHandler interface {
	HandleWebSocket(w http.ResponseWriter, r *http.Request)
}
