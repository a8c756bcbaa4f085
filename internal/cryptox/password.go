// Package cryptox implements the credential hasher: Argon2id password hashing
// with self-describing PHC-encoded output.
//
// A credential looks like
//
//	$argon2id$v=19$m=65536,t=3,p=4$<base64 salt>$<base64 key>
//
// where salt and key use unpadded standard base64. Everything needed to
// verify a password later is inside the string.
package cryptox

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/eeye/internal/common"
	"golang.org/x/crypto/argon2"
)

const argon2idID = "argon2id"

var (
	// ErrMalformedCredential is returned by Decode for strings that are not
	// Argon2id PHC credentials.
	ErrMalformedCredential = errors.New("malformed credential")

	// ErrIncompatibleVersion is returned by Decode when the Argon2 version
	// differs from the one implemented by golang.org/x/crypto/argon2.
	ErrIncompatibleVersion = errors.New("incompatible argon2 version")
)

// Params are the Argon2id cost parameters.
type Params struct {
	Memory     uint32 // KiB
	Iterations uint32
	Threads    uint8
	SaltLength uint32
	KeyLength  uint32
}

// DefaultParams match the defaults of the reference argon2 implementation
// the stored credentials were originally produced with.
var DefaultParams = Params{
	Memory:     64 * 1024,
	Iterations: 3,
	Threads:    4,
	SaltLength: 16,
	KeyLength:  32,
}

// seams for tests
var (
	idKey    = argon2.IDKey
	readSalt = common.GenerateRandByteArray
)

// Hasher hashes and verifies passwords. The zero value is not usable; use
// NewHasher.
type Hasher struct {
	params Params
}

// NewHasher returns a Hasher using p. Zero fields fall back to DefaultParams.
func NewHasher(p Params) *Hasher {
	if p.Memory == 0 {
		p.Memory = DefaultParams.Memory
	}
	if p.Iterations == 0 {
		p.Iterations = DefaultParams.Iterations
	}
	if p.Threads == 0 {
		p.Threads = DefaultParams.Threads
	}
	if p.SaltLength == 0 {
		p.SaltLength = DefaultParams.SaltLength
	}
	if p.KeyLength == 0 {
		p.KeyLength = DefaultParams.KeyLength
	}
	return &Hasher{params: p}
}

// Params returns the parameters new credentials are produced with.
func (h *Hasher) Params() Params {
	return h.params
}

// Hash derives an Argon2id key from password with a fresh random salt and
// returns the encoded credential.
func (h *Hasher) Hash(password string) (string, error) {
	salt := readSalt(int(h.params.SaltLength))
	key := idKey([]byte(password), salt, h.params.Iterations, h.params.Memory, h.params.Threads, h.params.KeyLength)
	defer common.WipeByteArray(key)

	return encode(h.params, salt, key), nil
}

// Verify reports whether password matches credential. Malformed credentials
// and any internal failure yield false.
func (h *Hasher) Verify(credential, password string) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	p, salt, key, err := Decode(credential)
	if err != nil {
		return false
	}

	candidate := idKey([]byte(password), salt, p.Iterations, p.Memory, p.Threads, p.KeyLength)
	defer common.WipeByteArray(candidate)

	return subtle.ConstantTimeCompare(key, candidate) == 1
}

// NeedsRehash reports whether credential was produced with parameters weaker
// than the hasher's current ones. Unparseable credentials always need a rehash.
func (h *Hasher) NeedsRehash(credential string) bool {
	p, _, _, err := Decode(credential)
	if err != nil {
		return true
	}
	return p.Memory < h.params.Memory ||
		p.Iterations < h.params.Iterations ||
		p.Threads < h.params.Threads ||
		p.SaltLength < h.params.SaltLength ||
		p.KeyLength < h.params.KeyLength
}

func encode(p Params, salt, key []byte) string {
	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2idID,
		argon2.Version,
		p.Memory, p.Iterations, p.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
}

// Decode parses a PHC-encoded Argon2id credential.
func Decode(credential string) (Params, []byte, []byte, error) {
	var p Params

	parts := strings.Split(credential, "$")
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	if len(parts) != 6 || parts[0] != "" || parts[1] != argon2idID {
		return p, nil, nil, ErrMalformedCredential
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return p, nil, nil, ErrMalformedCredential
	}
	if version != argon2.Version {
		return p, nil, nil, ErrIncompatibleVersion
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Iterations, &p.Threads); err != nil {
		return p, nil, nil, ErrMalformedCredential
	}
	if p.Memory == 0 || p.Iterations == 0 || p.Threads == 0 {
		return p, nil, nil, ErrMalformedCredential
	}

	salt, err := base64.RawStdEncoding.Strict().DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return p, nil, nil, ErrMalformedCredential
	}
	key, err := base64.RawStdEncoding.Strict().DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return p, nil, nil, ErrMalformedCredential
	}

	p.SaltLength = uint32(len(salt))
	p.KeyLength = uint32(len(key))

	return p, salt, key, nil
}
