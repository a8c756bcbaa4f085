package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cheap parameters keep the suite fast; the algorithm is the same
var testParams = Params{Memory: 1024, Iterations: 1, Threads: 1, SaltLength: 16, KeyLength: 32}

func TestHasher_HashAndVerify(t *testing.T) {
	t.Parallel()
	h := NewHasher(testParams)

	passwords := []string{"correct horse battery staple", "12345678", "пароль-с-юникодом", ""}
	for _, pw := range passwords {
		cred, err := h.Hash(pw)
		require.NoError(t, err)
		assert.True(t, h.Verify(cred, pw), "password %q must verify", pw)
		assert.False(t, h.Verify(cred, pw+"x"), "password %q+x must not verify", pw)
	}
}

func TestHasher_HashFormat(t *testing.T) {
	t.Parallel()
	h := NewHasher(testParams)

	cred, err := h.Hash("secret-password")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(cred, "$argon2id$v=19$m=1024,t=1,p=1$"), cred)

	p, salt, key, err := Decode(cred)
	require.NoError(t, err)
	assert.Equal(t, testParams, p)
	assert.Len(t, salt, 16)
	assert.Len(t, key, 32)
}

func TestHasher_SaltIsRandom(t *testing.T) {
	t.Parallel()
	h := NewHasher(testParams)

	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.True(t, h.Verify(a, "same"))
	assert.True(t, h.Verify(b, "same"))
}

func TestHasher_VerifyUsesEncodedParams(t *testing.T) {
	t.Parallel()
	weak := NewHasher(testParams)
	cred, err := weak.Hash("pw-12345678")
	require.NoError(t, err)

	strong := NewHasher(Params{Memory: 2048, Iterations: 2, Threads: 2})
	assert.True(t, strong.Verify(cred, "pw-12345678"))
}

func TestHasher_VerifyMalformed(t *testing.T) {
	t.Parallel()
	h := NewHasher(testParams)

	tests := []struct {
		name string
		cred string
	}{
		{"empty", ""},
		{"plain text", "not-a-hash"},
		{"bcrypt", "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"},
		{"argon2i", "$argon2i$v=19$m=1024,t=1,p=1$c2FsdHNhbHQ$a2V5a2V5"},
		{"bad version", "$argon2id$v=16$m=1024,t=1,p=1$c2FsdHNhbHQ$a2V5a2V5"},
		{"bad params", "$argon2id$v=19$m=x,t=1,p=1$c2FsdHNhbHQ$a2V5a2V5"},
		{"zero threads", "$argon2id$v=19$m=1024,t=1,p=0$c2FsdHNhbHQ$a2V5a2V5"},
		{"bad salt", "$argon2id$v=19$m=1024,t=1,p=1$!!!$a2V5a2V5"},
		{"missing key", "$argon2id$v=19$m=1024,t=1,p=1$c2FsdHNhbHQ$"},
		{"too many parts", "$argon2id$v=19$m=1024,t=1,p=1$c2FsdHNhbHQ$a2V5a2V5$extra"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, h.Verify(tt.cred, "anything"))
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	t.Parallel()

	_, _, _, err := Decode("$argon2id$v=18$m=1024,t=1,p=1$c2FsdHNhbHQ$a2V5a2V5")
	assert.ErrorIs(t, err, ErrIncompatibleVersion)

	_, _, _, err = Decode("garbage")
	assert.ErrorIs(t, err, ErrMalformedCredential)
}

func TestHasher_VerifyRecoversFromPanic(t *testing.T) {
	orig := idKey
	t.Cleanup(func() { idKey = orig })

	h := NewHasher(testParams)
	cred, err := h.Hash("pw-12345678")
	require.NoError(t, err)

	idKey = func(password, salt []byte, time, memory uint32, threads uint8, keyLen uint32) []byte {
		panic("boom")
	}
	assert.False(t, h.Verify(cred, "pw-12345678"))
}

func TestHasher_NeedsRehash(t *testing.T) {
	t.Parallel()
	weak := NewHasher(testParams)
	cred, err := weak.Hash("pw-12345678")
	require.NoError(t, err)

	assert.False(t, weak.NeedsRehash(cred))
	assert.True(t, NewHasher(Params{Memory: 4096, Iterations: 1, Threads: 1}).NeedsRehash(cred))
	assert.True(t, NewHasher(Params{Memory: 1024, Iterations: 2, Threads: 1}).NeedsRehash(cred))
	assert.True(t, weak.NeedsRehash("garbage"))
}

func TestNewHasher_Defaults(t *testing.T) {
	t.Parallel()
	assert.Equal(t, DefaultParams, NewHasher(Params{}).Params())
}
