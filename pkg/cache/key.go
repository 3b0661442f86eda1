package cache

import (
	"strings"
)

// KeyPrefix namespaces every key written by this package.
const KeyPrefix = "orders"

// Kind selects the data stored under a key.
type Kind string

const (
	// KindDomains is the cached domain directory.
	KindDomains Kind = "domains"

	// KindResult is the last DomainResult of one domain.
	KindResult Kind = "result"
)

// Key identifies a cached value.
type Key struct {
	Kind Kind

	// Domain is the base URL for KindResult keys, empty otherwise.
	Domain string
}

// DomainsKey returns the key of the domain directory.
func DomainsKey() Key {
	return Key{Kind: KindDomains}
}

// ResultKey returns the key of a domain's last result.
func ResultKey(domain string) Key {
	return Key{Kind: KindResult, Domain: domain}
}

// String generates a deterministic key string.
// Format: orders:<kind>[:<domain>]
//
// Example:
//
//	orders:result:https://a.example
func (k Key) String() string {
	parts := []string{KeyPrefix, string(k.Kind)}

	if domain := NormalizeDomain(k.Domain); domain != "" {
		parts = append(parts, domain)
	}

	return strings.Join(parts, ":")
}

// NormalizeDomain trims whitespace and trailing slashes and lowercases the
// scheme and host, so "https://A.example/" and "https://a.example" share a key.
func NormalizeDomain(domain string) string {
	domain = strings.TrimRight(strings.TrimSpace(domain), "/")

	scheme, rest, ok := strings.Cut(domain, "://")
	if !ok {
		return strings.ToLower(domain)
	}
	host, path, _ := strings.Cut(rest, "/")
	out := strings.ToLower(scheme) + "://" + strings.ToLower(host)
	if path != "" {
		out += "/" + path
	}
	return out
}
