package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"privacy-node/internal/model"
	"privacy-node/internal/relay"
)

// PeerHandler serves the node-to-node propagation endpoints.
type PeerHandler struct {
	svc *relay.Service
}

func NewPeerHandler(svc *relay.Service) *PeerHandler {
	return &PeerHandler{svc: svc}
}

func (h *PeerHandler) Push(c *gin.Context) {
	var req model.PushPayloadRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Payload == nil || req.Key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid push body"})
		return
	}
	key, err := h.svc.AcceptPayload(req.Key, req.Payload)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.PushPayloadResponse{Key: key})
}

func (h *PeerHandler) PushPrivacyGroup(c *gin.Context) {
	var req model.PushPrivacyGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Payload == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid privacy group push body"})
		return
	}
	id, err := h.svc.AcceptPrivacyGroup(req.Payload)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.PushPrivacyGroupResponse{PrivacyGroupID: id})
}

func (h *PeerHandler) SetPrivacyGroup(c *gin.Context) {
	var req model.SetPrivacyGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Payload == nil || len(req.PrivacyGroupID) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid set privacy group body"})
		return
	}
	if err := h.svc.AcceptSetPrivacyGroup(req.PrivacyGroupID, req.Payload); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (h *PeerHandler) DeletePrivacyGroup(c *gin.Context) {
	var req model.DeletePrivacyGroupPushRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Payload == nil || len(req.PrivacyGroupID) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid delete privacy group body"})
		return
	}
	if err := h.svc.AcceptDeletePrivacyGroup(req.PrivacyGroupID, req.Payload); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}
