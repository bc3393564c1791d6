// Package cache provides the two disk-backed stores that make reruns
// cheap and idempotent: a request cache keyed by request signature and a
// per-session match cache of already-emitted record keys.
package cache

import (
	"sort"
	"strings"
)

// Signature builds the cache key for a catalog request: the base URL
// followed by sorted "param-value" pairs joined with "&". Private
// parameters (the API key) are excluded so the key never leaks secrets
// and stays stable when credentials rotate.
func Signature(baseURL string, params map[string]string, private ...string) string {
	secret := make(map[string]bool, len(private))
	for _, p := range private {
		secret[p] = true
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		if !secret[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	fields := make([]string, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, k+"-"+params[k])
	}
	return baseURL + strings.Join(fields, "&")
}
