package models

// KVEntry is one stored record. Keys are base64 digests (payloads, privacy
// groups) or prefixed index keys, so varchar is plenty.
type KVEntry struct {
	Key   string `gorm:"primaryKey;type:varchar(192)" json:"key"`
	Value []byte `json:"value"`
}
