package models

// PersistedConfig is the configs table row: a JSON snapshot plus a
// monotonically increasing version, so "persist then reload" is a
// round-trip-identical operation and a version bump is externally visible.
// Payload is JSON-encoded config.Snapshot, not the full config.Config -
// only the strategy bounds and the AES-256-GCM-encrypted venue secret are
// persisted, never DB/JWT credentials.
type PersistedConfig struct {
	ID      int64  `json:"id" db:"id"`
	Version int    `json:"version" db:"version"`
	Payload []byte `json:"payload" db:"payload"`
}
