// Package crypto implements server-side one-way hashing for passwords and cookie markers.
package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes a secret into an opaque, self-describing string and verifies against it.
type Hasher interface {
	// Hash returns a salted one-way hash of plain.
	Hash(plain string) (string, error)
	// Verify reports whether plain matches the encoded hash.
	Verify(plain, encoded string) bool
}

// Supported algorithm names for New.
const (
	AlgoArgon2id = "argon2id"
	AlgoBcrypt   = "bcrypt"
)

// New returns the hasher registered under algo.
func New(algo string, bcryptCost int) (Hasher, error) {
	switch algo {
	case "", AlgoArgon2id:
		return NewArgon2(DefaultArgon2Params()), nil
	case AlgoBcrypt:
		return NewBcrypt(bcryptCost), nil
	default:
		return nil, fmt.Errorf("unknown hash algorithm %q", algo)
	}
}

// RandBytes returns n cryptographically secure random bytes.
func RandBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

// Argon2Params tunes Argon2id.
type Argon2Params struct {
	Time    uint32 // iterations
	Memory  uint32 // KiB
	Threads uint8
	KeyLen  uint32
	SaltLen int
}

// DefaultArgon2Params returns parameters tuned for server-side hashing.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Time:    3,
		Memory:  64 * 1024, // 64 MB
		Threads: 1,
		KeyLen:  32,
		SaltLen: 16,
	}
}

// Upper bounds for parameters read back from an encoded hash. Encoded values may come from
// a client cookie, so they must not be able to demand unbounded work.
const (
	maxArgonTime    = 10
	maxArgonMemory  = 256 * 1024
	maxArgonThreads = 16
	maxArgonKeyLen  = 64
)

var b64 = base64.RawStdEncoding

// Argon2 is an Argon2id Hasher producing PHC-style strings:
// $argon2id$v=19$m=65536,t=3,p=1$<salt>$<hash>
type Argon2 struct {
	p Argon2Params
}

// NewArgon2 constructs an Argon2id hasher.
func NewArgon2(p Argon2Params) *Argon2 {
	return &Argon2{p: p}
}

// Hash derives an Argon2id key from plain with a fresh random salt.
func (a *Argon2) Hash(plain string) (string, error) {
	salt, err := RandBytes(a.p.SaltLen)
	if err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(plain), salt, a.p.Time, a.p.Memory, a.p.Threads, a.p.KeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, a.p.Memory, a.p.Time, a.p.Threads,
		b64.EncodeToString(salt), b64.EncodeToString(key)), nil
}

// Verify recomputes the key with the encoded parameters and compares in constant time.
func (a *Argon2) Verify(plain, encoded string) bool {
	p, salt, want, err := decodeArgon2(encoded)
	if err != nil {
		return false
	}
	got := argon2.IDKey([]byte(plain), salt, p.Time, p.Memory, p.Threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1
}

var errBadEncoding = errors.New("malformed argon2id hash")

func decodeArgon2(encoded string) (Argon2Params, []byte, []byte, error) {
	var p Argon2Params
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != AlgoArgon2id {
		return p, nil, nil, errBadEncoding
	}

	if parts[2] != fmt.Sprintf("v=%d", argon2.Version) {
		return p, nil, nil, errBadEncoding
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Threads); err != nil {
		return p, nil, nil, errBadEncoding
	}
	// Sscanf stops at the last verb; anything after it must not slip through
	if fmt.Sprintf("m=%d,t=%d,p=%d", p.Memory, p.Time, p.Threads) != parts[3] {
		return p, nil, nil, errBadEncoding
	}
	if p.Time == 0 || p.Time > maxArgonTime ||
		p.Memory == 0 || p.Memory > maxArgonMemory ||
		p.Threads == 0 || p.Threads > maxArgonThreads {
		return p, nil, nil, errBadEncoding
	}

	salt, err := b64.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return p, nil, nil, errBadEncoding
	}
	key, err := b64.DecodeString(parts[5])
	if err != nil || len(key) == 0 || len(key) > maxArgonKeyLen {
		return p, nil, nil, errBadEncoding
	}
	p.KeyLen = uint32(len(key))
	p.SaltLen = len(salt)
	return p, salt, key, nil
}

// Bcrypt is a Hasher backed by bcrypt.
type Bcrypt struct {
	cost int
}

// NewBcrypt constructs a bcrypt hasher; out-of-range costs fall back to bcrypt.DefaultCost.
func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost}
}

// Hash returns the bcrypt hash of plain.
func (b *Bcrypt) Hash(plain string) (string, error) {
	out, err := bcrypt.GenerateFromPassword([]byte(plain), b.cost)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Verify compares plain against a bcrypt hash whose cost does not exceed the configured one.
func (b *Bcrypt) Verify(plain, encoded string) bool {
	cost, err := bcrypt.Cost([]byte(encoded))
	if err != nil || cost > b.cost {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(plain)) == nil
}
