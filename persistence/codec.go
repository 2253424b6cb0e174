// persistence/codec.go
package persistence

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wfunc/scorekeeper/models"
)

var requiredKeys = []string{"sessions", "settings", "statistics"}

// Encode renders the bundle as indented JSON with sorted keys. Timestamps are
// written in UTC at whole-second precision (ISO-8601).
func Encode(b models.Bundle) ([]byte, error) {
	b.Statistics.LastUpdated = b.Statistics.LastUpdated.UTC().Truncate(time.Second)
	if b.Sessions == nil {
		b.Sessions = []models.SessionSnapshot{}
	}
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode bundle: %w", err)
	}
	return data, nil
}

// Decode parses a bundle. A document missing any top-level section is
// rejected as a schema mismatch.
func Decode(data []byte) (models.Bundle, error) {
	var sections map[string]json.RawMessage
	if err := json.Unmarshal(data, &sections); err != nil {
		return models.Bundle{}, fmt.Errorf("decode bundle: %w", err)
	}
	for _, key := range requiredKeys {
		raw, ok := sections[key]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return models.Bundle{}, fmt.Errorf("decode bundle: missing %q", key)
		}
	}

	var b models.Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return models.Bundle{}, fmt.Errorf("decode bundle: %w", err)
	}
	return b, nil
}
