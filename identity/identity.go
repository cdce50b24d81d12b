// Copyright (c) 2025 The Livepoll Authors.
// Source-available; see LICENSE.

package identity

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/netip"
	"strings"

	"github.com/livepoll/livepoll/models"
)

var (
	ErrMissingIdentity = errors.New("missing identity for session policy")
	ErrUnknownPolicy   = errors.New("unknown security policy")
)

// Request carries the per-request attributes the identity policies draw
// from. Handlers fill it once per admission attempt; the resolver never
// reads the HTTP request directly.
type Request struct {
	RemoteIP       string
	SessionToken   string
	AcceptLanguage string
}

// Resolver derives voter fingerprints. It is stateless and safe for
// concurrent use.
//
// All fingerprints are keyed HMAC-SHA256 hashes over the policy tuple, so
// raw IPs, session tokens, and locales are never stored or logged in
// recoverable form. The hash is truncated to 16 bytes (32 hex chars),
// plenty for per-poll dedup.
type Resolver struct {
	// Salt keys the HMAC. Must be non-empty in production.
	Salt string

	// IPv6PrefixBits masks IPv6 origins before hashing so that hosts in
	// the same delegated prefix collapse to one fingerprint. Zero means
	// the default of 64.
	IPv6PrefixBits int
}

// Resolve derives the voter fingerprint for one admission attempt on one
// poll.
//
// Policy behavior:
//
//   - none: a fresh random fingerprint every call, so dedup never trips.
//   - session: hash(poll, session token); empty token fails with
//     ErrMissingIdentity.
//   - ip_address: hash(poll, normalized origin address).
//   - device_fingerprint: hash(poll, normalized origin address, primary
//     Accept-Language value). Deliberately excludes client-held state and
//     the User-Agent, so the fingerprint survives storage clearing and is
//     identical across browsers on one device. Distinct devices behind one
//     address with the same locale collide; that false-positive rate is an
//     accepted property of the policy, not a defect.
func (r *Resolver) Resolve(policy, pollID string, req Request) (string, error) {
	switch policy {
	case models.PolicyNone:
		return randomFingerprint()
	case models.PolicySession:
		token := strings.TrimSpace(req.SessionToken)
		if token == "" {
			return "", ErrMissingIdentity
		}
		return r.hash(pollID, "session", token), nil
	case models.PolicyIP:
		return r.hash(pollID, "ip", r.normalizeIP(req.RemoteIP)), nil
	case models.PolicyDevice:
		return r.hash(pollID, "device", r.normalizeIP(req.RemoteIP), primaryLanguage(req.AcceptLanguage)), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, policy)
}

// hash computes the keyed one-way fingerprint over the given tuple.
func (r *Resolver) hash(parts ...string) string {
	h := hmac.New(sha256.New, []byte(r.Salt))
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write([]byte(p))
	}
	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:16])
}

// normalizeIP canonicalizes an origin address so equivalent forms hash
// identically: zone identifiers are dropped, IPv4-mapped IPv6 addresses
// collapse to plain IPv4, and IPv6 addresses are masked to the configured
// prefix (default /64, the common residential delegation size).
// Unparseable input is hashed as-is rather than rejected.
func (r *Resolver) normalizeIP(raw string) string {
	addr, err := netip.ParseAddr(strings.TrimSpace(raw))
	if err != nil {
		return raw
	}
	addr = addr.WithZone("").Unmap()
	if addr.Is4() {
		return addr.String()
	}

	bits := r.IPv6PrefixBits
	if bits <= 0 || bits > 128 {
		bits = 64
	}
	prefix, err := addr.Prefix(bits)
	if err != nil {
		return addr.String()
	}
	return prefix.String()
}

// primaryLanguage reduces an Accept-Language header to its first tag,
// without quality weights ("en-US,en;q=0.9" -> "en-US").
func primaryLanguage(header string) string {
	lang := header
	if i := strings.IndexByte(lang, ','); i >= 0 {
		lang = lang[:i]
	}
	if i := strings.IndexByte(lang, ';'); i >= 0 {
		lang = lang[:i]
	}
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return "en"
	}
	return lang
}

// randomFingerprint returns 16 random bytes hex encoded. Used by the
// "none" policy, where every admission must look like a new voter.
func randomFingerprint() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate fingerprint: %w", err)
	}
	return hex.EncodeToString(b), nil
}
