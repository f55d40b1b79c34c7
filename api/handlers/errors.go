package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"privacy-node/internal/relay"
)

// respondError maps a workflow failure code onto an HTTP status. Access
// failures (wrong key) are kept distinct from not-found so callers can tell
// "you have no access" from "it doesn't exist".
func respondError(c *gin.Context, err error) {
	code := relay.CodeOf(err)
	c.JSON(statusOf(code), gin.H{"error": err.Error(), "code": code})
}

func statusOf(code relay.Code) int {
	switch code {
	case relay.CodeCreateGroupIncludeSelf, relay.CodeAddMemberIncludeSelf,
		relay.CodeKeyDecode, relay.CodeBadRequest:
		return http.StatusBadRequest
	case relay.CodePrivacyGroupMissing, relay.CodePayloadMissing:
		return http.StatusNotFound
	case relay.CodePrivacyGroupDeleted:
		return http.StatusConflict
	case relay.CodeWrongPrivateKey, relay.CodeNoMatchingPrivateKey:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
