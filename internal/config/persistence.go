package config

import (
	"encoding/json"
	"fmt"
	"reflect"

	"reversion/internal/models"
	"reversion/pkg/crypto"
)

// persistence.go implements spec.md §3's "monotonically increasing
// version": Version increments only when Load produces a semantically
// different configuration than the configs table's latest persisted row,
// never on every restart with an unchanged environment.

// Snapshot is the semantic payload persisted in the configs table: the
// strategy bounds plus the venue API secret, AES-256-GCM-encrypted so the
// row never holds the plaintext credential at rest. DB/JWT credentials are
// deliberately excluded - they're process wiring, not "Configuration" in
// spec.md §3's sense.
type Snapshot struct {
	Strategy      StrategyConfig
	VenueSecretCT string
}

func (c *Config) snapshot() (Snapshot, error) {
	snap := Snapshot{Strategy: c.Strategy}
	if c.Venue.APISecret == "" {
		return snap, nil
	}
	ct, err := crypto.Encrypt(c.Venue.APISecret, []byte(c.Security.EncryptionKey))
	if err != nil {
		return Snapshot{}, fmt.Errorf("encrypt venue secret: %w", err)
	}
	snap.VenueSecretCT = ct
	return snap, nil
}

// ConfigStore is the narrow persistence seam ResolveVersion needs,
// satisfied by *repository.ConfigRepository (and by *sink.Sink's Configs
// accessor) without this package importing database/sql.
type ConfigStore interface {
	Latest() (*models.PersistedConfig, error)
	Insert(*models.PersistedConfig) error
}

// ResolveVersion compares c's snapshot against store's latest persisted
// row and assigns c.Version. A semantic match - same strategy bounds and
// the same decrypted venue secret - leaves the persisted version
// unchanged; any difference, including the very first boot when store has
// no rows at all, persists a new row one version higher than whatever was
// there before.
//
// The comparison decrypts the stored secret rather than comparing payload
// bytes: AES-256-GCM's random nonce means encrypting the same plaintext
// twice never produces identical ciphertext, so a byte comparison would
// report a change on every single restart.
func (c *Config) ResolveVersion(store ConfigStore) error {
	snap, err := c.snapshot()
	if err != nil {
		return err
	}

	latest, err := store.Latest()
	if err != nil {
		return fmt.Errorf("load latest persisted config: %w", err)
	}

	if latest != nil {
		var prev Snapshot
		if err := json.Unmarshal(latest.Payload, &prev); err != nil {
			return fmt.Errorf("decode persisted config: %w", err)
		}
		if snapshotsEqual(prev, snap, c.Security.EncryptionKey) {
			c.Version = latest.Version
			return nil
		}
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode config snapshot: %w", err)
	}

	version := 1
	if latest != nil {
		version = latest.Version + 1
	}
	if err := store.Insert(&models.PersistedConfig{Version: version, Payload: payload}); err != nil {
		return fmt.Errorf("persist config snapshot: %w", err)
	}
	c.Version = version
	return nil
}

func snapshotsEqual(a, b Snapshot, encryptionKey string) bool {
	if !reflect.DeepEqual(a.Strategy, b.Strategy) {
		return false
	}
	secretA, errA := decryptSecret(a.VenueSecretCT, encryptionKey)
	secretB, errB := decryptSecret(b.VenueSecretCT, encryptionKey)
	if errA != nil || errB != nil {
		return false
	}
	return secretA == secretB
}

func decryptSecret(ciphertext, key string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}
	return crypto.Decrypt(ciphertext, []byte(key))
}
