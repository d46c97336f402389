// Package auth verifies detached Ed25519 signatures on incoming edge
// requests. Callers identify themselves with a did:key whose method-specific
// part is their hex public key, so verification needs no key registry: the
// identifier is the credential.
package auth

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// HeaderAgentID carries the caller's did:key identifier.
	HeaderAgentID = "X-Agent-ID"
	// HeaderTimestamp is the unix timestamp (seconds) the caller signed.
	HeaderTimestamp = "X-Timestamp"
	// HeaderSignature carries the hex-encoded Ed25519 signature.
	HeaderSignature = "X-Signature"

	// MaxBodyBytes caps the request body accepted for signature verification.
	MaxBodyBytes int64 = 1 << 20 // 1 MiB

	didKeyPrefix = "did:key:"

	defaultTimestampSkew = 60 * time.Second
)

var (
	// ErrMissingHeader indicates one of the three auth headers is absent.
	ErrMissingHeader = errors.New("missing authentication header")
	// ErrMalformedID indicates the agent identifier is not a hex did:key.
	ErrMalformedID = errors.New("malformed agent identifier")
	// ErrStaleTimestamp indicates the signed timestamp is outside the window.
	ErrStaleTimestamp = errors.New("timestamp outside allowed window")
	// ErrBadSignature indicates the signature does not verify.
	ErrBadSignature = errors.New("signature verification failed")
)

// Caller is an authenticated agent.
type Caller struct {
	DID       string
	PublicKey ed25519.PublicKey
}

// Verifier checks signed requests against their embedded public key.
type Verifier struct {
	skew  time.Duration
	nowFn func() time.Time
}

// NewVerifier builds a Verifier with the given timestamp skew. A zero or
// negative skew falls back to the 60 second default.
func NewVerifier(skew time.Duration, nowFn func() time.Time) *Verifier {
	if skew <= 0 {
		skew = defaultTimestampSkew
	}
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Verifier{skew: skew, nowFn: nowFn}
}

// Verify authenticates the request against its headers and body. The body
// must already be read in full by the caller. On success it also returns the
// parsed body, so handlers act on exactly the structure that was hashed
// instead of re-parsing the raw bytes.
func (v *Verifier) Verify(r *http.Request, body []byte) (*Caller, map[string]any, error) {
	agentID := strings.TrimSpace(r.Header.Get(HeaderAgentID))
	if agentID == "" {
		return nil, nil, fmt.Errorf("%w: %s", ErrMissingHeader, HeaderAgentID)
	}
	timestampHeader := strings.TrimSpace(r.Header.Get(HeaderTimestamp))
	if timestampHeader == "" {
		return nil, nil, fmt.Errorf("%w: %s", ErrMissingHeader, HeaderTimestamp)
	}
	signatureHeader := strings.TrimSpace(r.Header.Get(HeaderSignature))
	if signatureHeader == "" {
		return nil, nil, fmt.Errorf("%w: %s", ErrMissingHeader, HeaderSignature)
	}

	pub, err := PublicKeyFromDID(agentID)
	if err != nil {
		return nil, nil, err
	}

	ts, err := strconv.ParseInt(timestampHeader, 10, 64)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: timestamp %q is not an integer", ErrStaleTimestamp, timestampHeader)
	}
	now := v.nowFn().UTC()
	drift := now.Sub(time.Unix(ts, 0))
	if drift < 0 {
		drift = -drift
	}
	if drift > v.skew {
		return nil, nil, fmt.Errorf("%w: drift %s exceeds %s", ErrStaleTimestamp, drift, v.skew)
	}

	sig, err := hex.DecodeString(signatureHeader)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return nil, nil, fmt.Errorf("%w: signature is not %d hex bytes", ErrBadSignature, ed25519.SignatureSize)
	}

	var parsed map[string]any
	var digest [sha256.Size]byte
	if len(body) == 0 {
		digest = sha256.Sum256(nil)
	} else {
		value, canonical, err := ParseCanonical(body)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrBadSignature, err)
		}
		digest = sha256.Sum256(canonical)
		parsed, _ = value.(map[string]any)
	}
	message := assembleMessage(r.Method, r.URL.Path, timestampHeader, digest)
	if !ed25519.Verify(pub, message, sig) {
		return nil, nil, ErrBadSignature
	}
	return &Caller{DID: agentID, PublicKey: pub}, parsed, nil
}

// PublicKeyFromDID extracts the Ed25519 public key from a did:key identifier
// whose method-specific part is 64 lowercase hex characters.
func PublicKeyFromDID(did string) (ed25519.PublicKey, error) {
	if !strings.HasPrefix(did, didKeyPrefix) {
		return nil, fmt.Errorf("%w: missing %q prefix", ErrMalformedID, didKeyPrefix)
	}
	hexKey := did[len(didKeyPrefix):]
	if len(hexKey) != 2*ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: key part must be %d hex characters", ErrMalformedID, 2*ed25519.PublicKeySize)
	}
	if hexKey != strings.ToLower(hexKey) {
		return nil, fmt.Errorf("%w: key part must be lowercase hex", ErrMalformedID)
	}
	pub, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("%w: key part is not hex", ErrMalformedID)
	}
	return ed25519.PublicKey(pub), nil
}

// SigningMessage builds the byte string both sides sign: the uppercase
// method, the URL path, the timestamp string, and the lowercase hex SHA-256
// of the canonical body, concatenated in that order. An empty body hashes as
// the empty string so bodyless requests remain signable.
func SigningMessage(method, path, timestamp string, body []byte) ([]byte, error) {
	var digest [sha256.Size]byte
	if len(body) == 0 {
		digest = sha256.Sum256(nil)
	} else {
		canonical, err := CanonicalJSON(body)
		if err != nil {
			return nil, err
		}
		digest = sha256.Sum256(canonical)
	}
	return assembleMessage(method, path, timestamp, digest), nil
}

func assembleMessage(method, path, timestamp string, digest [sha256.Size]byte) []byte {
	var b strings.Builder
	b.WriteString(strings.ToUpper(method))
	b.WriteString(path)
	b.WriteString(timestamp)
	b.WriteString(hex.EncodeToString(digest[:]))
	return []byte(b.String())
}

// Sign produces the hex signature for a request, for clients and tests.
func Sign(priv ed25519.PrivateKey, method, path, timestamp string, body []byte) (string, error) {
	message, err := SigningMessage(method, path, timestamp, body)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(ed25519.Sign(priv, message)), nil
}

// DIDForKey derives the did:key identifier for an Ed25519 public key.
func DIDForKey(pub ed25519.PublicKey) string {
	return didKeyPrefix + hex.EncodeToString(pub)
}
