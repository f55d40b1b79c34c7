package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"privacy-node/internal/relay"
)

// PayloadHandler serves the encrypted payload relay endpoints.
type PayloadHandler struct {
	svc *relay.Service
}

func NewPayloadHandler(svc *relay.Service) *PayloadHandler {
	return &PayloadHandler{svc: svc}
}

func (h *PayloadHandler) Send(c *gin.Context) {
	var req relay.SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	resp, err := h.svc.Send(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PayloadHandler) Receive(c *gin.Context) {
	var req relay.ReceiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	resp, err := h.svc.Receive(&req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
