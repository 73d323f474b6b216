package oracle

import (
	"errors"
	"math/rand/v2"
)

// pickAPIKey resolves one key from a configured list (string or
// list-of-strings in TOML, already normalized to []string by
// config.APIKeyValue), chosen uniformly at random per call so that
// load is round-robin-ish across a pool without any shared state.
func pickAPIKey(keys []string) (string, error) {
	if len(keys) == 0 {
		return "", errors.New("oracle: no API key configured")
	}
	if len(keys) == 1 {
		return keys[0], nil
	}
	return keys[rand.IntN(len(keys))], nil
}
