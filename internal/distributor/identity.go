package distributor

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"crawling_observer/internal/domain"
)

const failMarker = "__fail__"

// Identity derives the content identity of a batch from its tag and
// normalized rows, or from the failure message and capture time. The JSON
// encoder sorts map keys, so field order never affects the result.
func Identity(b domain.Batch, rows []domain.Row) (string, error) {
	var key []any
	if b.Failed() {
		key = []any{failMarker, b.FailLog.ErrMessage, b.CapturedAt.UTC().Format(time.RFC3339Nano)}
	} else {
		key = []any{b.Tag, rows}
	}

	data, err := json.Marshal(key)
	if err != nil {
		return "", fmt.Errorf("encode identity key: %w", err)
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
