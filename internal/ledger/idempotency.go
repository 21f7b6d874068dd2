package ledger

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/zeebo/blake3"
)

// fingerprint hashes an operation name and its parameters. Two requests with
// the same idempotency key must produce the same fingerprint to be treated as
// a replay.
func fingerprint(op string, params ...any) (string, error) {
	h := blake3.New()
	h.Write([]byte("ticket-ledger/idempotency\x00"))
	h.Write([]byte(op))
	h.Write([]byte{0})

	enc := json.NewEncoder(h)
	for _, p := range params {
		if err := enc.Encode(p); err != nil {
			return "", fmt.Errorf("failed to encode %s parameter: %w", op, err)
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
