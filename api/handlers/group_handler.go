package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"privacy-node/internal/relay"
)

// GroupHandler serves the privacy group lifecycle endpoints, routing each
// request through the workflow dispatcher.
type GroupHandler struct {
	svc *relay.Service
}

func NewGroupHandler(svc *relay.Service) *GroupHandler {
	return &GroupHandler{svc: svc}
}

func (h *GroupHandler) Create(c *gin.Context) {
	var req relay.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.dispatch(c, relay.WorkflowCreate, &req)
}

func (h *GroupHandler) AddMember(c *gin.Context) {
	var req relay.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.dispatch(c, relay.WorkflowAddMember, &req)
}

func (h *GroupHandler) Delete(c *gin.Context) {
	var req relay.DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.dispatch(c, relay.WorkflowDelete, &req)
}

func (h *GroupHandler) Find(c *gin.Context) {
	var req relay.FindRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.dispatch(c, relay.WorkflowFind, &req)
}

func (h *GroupHandler) Retrieve(c *gin.Context) {
	var req relay.RetrieveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.dispatch(c, relay.WorkflowRetrieve, &req)
}

func (h *GroupHandler) dispatch(c *gin.Context, w relay.Workflow, req interface{}) {
	result, err := h.svc.Dispatch(c.Request.Context(), w, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
