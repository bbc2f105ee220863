package formstate

import (
	"errors"
	"fmt"
)

// maxProbedKeys bounds representation-key probing per node. Exceeding it
// signals runaway key generation upstream, not a normal condition.
const maxProbedKeys = 100_000

// ErrKeySpaceExhausted reports that key probing exceeded its bound.
var ErrKeySpaceExhausted = errors.New("formstate: representation key space exhausted")

// nextAvailableKey probes "{prefix}.{i}" for i in [0, limit) and returns the
// first key for which taken reports false.
func nextAvailableKey(prefix string, taken func(string) bool, limit int) (string, error) {
	for i := 0; i < limit; i++ {
		candidate := fmt.Sprintf("%s.%d", prefix, i)
		if !taken(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: no free key between %s.0 and %s.%d", ErrKeySpaceExhausted, prefix, prefix, limit)
}
