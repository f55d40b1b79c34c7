package relay

import (
	"errors"
	"fmt"
)

// Code classifies a workflow failure for the client.
type Code string

const (
	CodeCreateGroupIncludeSelf Code = "CREATE_GROUP_INCLUDE_SELF"
	CodeAddMemberIncludeSelf   Code = "ADD_MEMBER_INCLUDE_SELF"
	CodePrivacyGroupMissing    Code = "PRIVACY_GROUP_MISSING"
	CodePrivacyGroupDeleted    Code = "PRIVACY_GROUP_DELETED"
	CodePayloadMissing         Code = "PAYLOAD_MISSING"
	CodePropagatingToAllPeers  Code = "NODE_PROPAGATING_TO_ALL_PEERS"
	CodePushingToPeer          Code = "NODE_PUSHING_TO_PEER"
	CodeWrongPrivateKey        Code = "ENCLAVE_DECRYPT_WRONG_PRIVATE_KEY"
	CodeNoMatchingPrivateKey   Code = "ENCLAVE_NO_MATCHING_PRIVATE_KEY"
	CodeKeyDecode              Code = "KEY_DECODE"
	CodeStorage                Code = "STORAGE"
	CodeBadRequest             Code = "BAD_REQUEST"
)

// Error is a workflow failure with a client-facing code.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func wrapError(code Code, err error, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// CodeOf extracts the failure code from an error chain, CodeStorage when the
// chain carries no relay error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeStorage
}
