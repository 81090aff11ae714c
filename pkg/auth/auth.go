// Package auth resolves the API credential used on every call to the
// prediction service.
package auth

import (
	"fmt"
	"os"
)

// EnvAPIKey is the well-known environment variable holding the API key.
const EnvAPIKey = "CSA_API_KEY"

// ResolveAPIKey returns the explicit key when provided, otherwise falls back
// to the CSA_API_KEY environment variable.
func ResolveAPIKey(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if key := os.Getenv(EnvAPIKey); key != "" {
		return key, nil
	}
	return "", fmt.Errorf("api key not provided and %s is not set", EnvAPIKey)
}
