package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrUnsupportedVersion = errors.New("unsupported record version")

// Envelope is the persisted shape of every record.
type Envelope struct {
	Version int             `json:"version"`
	SavedAt time.Time       `json:"savedAt"`
	Data    json.RawMessage `json:"data"`
}

// Migration upgrades a payload from version n to n+1.
type Migration func(data json.RawMessage) (json.RawMessage, error)

// Codec wraps payloads in a versioned Envelope and upgrades older records on
// the way back in.
type Codec struct {
	version    int
	migrations map[int]Migration
}

// NewCodec returns a codec writing records at version. migrations[n] must
// upgrade a version n payload to n+1 for every n below version.
func NewCodec(version int, migrations map[int]Migration) *Codec {
	return &Codec{version: version, migrations: migrations}
}

func (c *Codec) Version() int {
	return c.version
}

func (c *Codec) Encode(v any, now time.Time) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	b, err := json.Marshal(Envelope{Version: c.version, SavedAt: now.UTC(), Data: data})
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}

	return b, nil
}

func (c *Codec) Decode(raw []byte, v any) error {
	version, data, err := unwrap(raw)
	if err != nil {
		return err
	}

	if version > c.version {
		return fmt.Errorf("%w: %d (max %d)", ErrUnsupportedVersion, version, c.version)
	}

	for ; version < c.version; version++ {
		migrate, ok := c.migrations[version]
		if !ok {
			return fmt.Errorf("%w: no migration from version %d", ErrUnsupportedVersion, version)
		}

		if data, err = migrate(data); err != nil {
			return fmt.Errorf("migrate from version %d: %w", version, err)
		}
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	return nil
}

// unwrap accepts three shapes: the current envelope, the {"state", "version"}
// wrapper written by the browser editor, and a bare payload (version 0).
func unwrap(raw []byte) (int, json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, nil, fmt.Errorf("decode record: empty payload")
	}

	var fields map[string]json.RawMessage
	if raw[0] != '{' || json.Unmarshal(raw, &fields) != nil {
		return 0, raw, nil
	}

	rawVersion, hasVersion := fields["version"]
	if !hasVersion {
		return 0, raw, nil
	}

	var version int
	if err := json.Unmarshal(rawVersion, &version); err != nil {
		return 0, nil, fmt.Errorf("decode record version: %w", err)
	}

	if data, ok := fields["data"]; ok {
		return version, data, nil
	}

	if state, ok := fields["state"]; ok {
		return 0, state, nil
	}

	return 0, raw, nil
}

// UnwrapKey returns a migration that lifts the payload out of a single-key
// object, e.g. {"invoice": {...}} -> {...}. Payloads without the key pass
// through unchanged.
func UnwrapKey(key string) Migration {
	return func(data json.RawMessage) (json.RawMessage, error) {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(data, &obj); err != nil {
			// Not an object: already the inner payload.
			return data, nil
		}

		if inner, ok := obj[key]; ok {
			return inner, nil
		}

		return data, nil
	}
}
