package env

import (
	"os"
	"strings"
)

// Prefix namespaces the storefront's own variables.
const Prefix = "PROTEINA_"

// Get returns PROTEINA_<key> when set, then the bare key (platform variables such as PORT),
// then fallback. Blank values count as unset.
func Get(key, fallback string) string {
	for _, name := range []string{Prefix + key, key} {
		if val := strings.TrimSpace(os.Getenv(name)); val != "" {
			return val
		}
	}
	return fallback
}
