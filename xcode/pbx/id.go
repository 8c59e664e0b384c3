package pbx

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// idNamespace scopes name-based identifiers to this generator.
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/realAYAYA/xcodegen/pbx"))

// IDFor derives the 24 hex digit object identifier for a logical identity
// such as ("target", "LyraGame", "run"). Equal identities give equal IDs
// across runs, which keeps regenerated documents diff-friendly.
func IDFor(identity ...string) string {
	u := uuid.NewSHA1(idNamespace, []byte(strings.Join(identity, "\x00")))
	return strings.ToUpper(hex.EncodeToString(u[:12]))
}

// Registry hands out identifiers and rejects collisions within one graph.
type Registry struct {
	byID map[string]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]string)}
}

// Claim returns the ID for identity, failing if the identity was already
// claimed or its ID collides with another identity.
func (r *Registry) Claim(identity ...string) (string, error) {
	key := strings.Join(identity, "/")
	id := IDFor(identity...)
	if prev, ok := r.byID[id]; ok {
		if prev == key {
			return "", fmt.Errorf("%w: %s claimed twice", ErrDuplicateID, key)
		}
		return "", fmt.Errorf("%w: %s and %s both map to %s", ErrDuplicateID, prev, key, id)
	}
	r.byID[id] = key
	return id, nil
}

// Len reports the number of claimed identifiers.
func (r *Registry) Len() int {
	return len(r.byID)
}
