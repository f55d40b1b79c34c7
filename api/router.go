package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"privacy-node/api/handlers"
	"privacy-node/internal/relay"
)

// SetupClientRouter builds the client-facing JSON API.
func SetupClientRouter(svc *relay.Service) *gin.Engine {
	router := gin.Default()

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	group := handlers.NewGroupHandler(svc)
	router.POST("/createPrivacyGroup", group.Create)
	router.POST("/addToPrivacyGroup", group.AddMember)
	router.POST("/deletePrivacyGroup", group.Delete)
	router.POST("/findPrivacyGroup", group.Find)
	router.POST("/retrievePrivacyGroup", group.Retrieve)

	payload := handlers.NewPayloadHandler(svc)
	router.POST("/send", payload.Send)
	router.POST("/receive", payload.Receive)

	return router
}

// SetupPeerRouter builds the node-to-node propagation API.
func SetupPeerRouter(svc *relay.Service) *gin.Engine {
	router := gin.Default()

	router.GET("/upcheck", func(c *gin.Context) {
		c.String(http.StatusOK, "I'm up!")
	})

	peer := handlers.NewPeerHandler(svc)
	router.POST("/push", peer.Push)
	router.POST("/pushPrivacyGroup", peer.PushPrivacyGroup)
	router.POST("/setPrivacyGroup", peer.SetPrivacyGroup)
	router.POST("/deletePrivacyGroup", peer.DeletePrivacyGroup)

	return router
}
