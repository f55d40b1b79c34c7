package model

// Node-to-node bodies for the propagation endpoints. Byte fields travel as
// std base64 strings, encoding/json's default for []byte.

// PushPayloadRequest pushes an encrypted payload to a recipient's node. The
// storage key is carried explicitly so every node files the payload under the
// sender's key even though stripped copies differ byte-wise.
type PushPayloadRequest struct {
	Key     string            `json:"key"`
	Payload *EncryptedPayload `json:"payload"`
}

// PushPayloadResponse acknowledges a payload push with the key the receiving
// node stored it under.
type PushPayloadResponse struct {
	Key string `json:"key"`
}

// PushPrivacyGroupRequest pushes a freshly created privacy group. The
// receiving node recomputes the self-certifying ID from the payload and acks
// with the value it computed.
type PushPrivacyGroupRequest struct {
	Payload *PrivacyGroupPayload `json:"payload"`
}

// PushPrivacyGroupResponse carries the group ID the receiving node computed.
type PushPrivacyGroupResponse struct {
	PrivacyGroupID []byte `json:"privacyGroupId"`
}

// SetPrivacyGroupRequest replaces a group's record under an explicit,
// unchanged ID. Used by add-member, where the widened address set would no
// longer reproduce the creation-time ID.
type SetPrivacyGroupRequest struct {
	PrivacyGroupID []byte               `json:"privacyGroupId"`
	Payload        *PrivacyGroupPayload `json:"payload"`
}

// DeletePrivacyGroupPushRequest propagates a tombstoned group record.
type DeletePrivacyGroupPushRequest struct {
	PrivacyGroupID []byte               `json:"privacyGroupId"`
	Payload        *PrivacyGroupPayload `json:"payload"`
}
