package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// CanonicalJSON renders v as JSON with sorted keys and no insignificant
// whitespace, by round-tripping it through a generic map/slice value (Go's
// encoding/json already sorts map keys on marshal, so this is sufficient to
// make hashing stable regardless of the original struct's field order).
func CanonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	return json.Marshal(generic)
}

// HashJSON returns the hex-encoded SHA-256 digest of v's canonical JSON
// encoding. Used for args_hash, preview_hash, and file checksums.
func HashJSON(v any) (string, error) {
	canon, err := CanonicalJSON(v)
	if err != nil {
		return "", err
	}
	return hashBytes(canon), nil
}

// HashBytes returns the hex-encoded SHA-256 digest of raw content, used for
// file checksums before/after a write.
func HashBytes(content []byte) string { return hashBytes(content) }

func hashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
