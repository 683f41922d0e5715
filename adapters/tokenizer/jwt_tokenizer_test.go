package tokenizer

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playdegen/auth/core"
)

const testWallet = "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestJWTTokenizer_Roundtrip(t *testing.T) {
	j := NewJWTTokenizer("secret")

	token, err := j.Issue(testWallet, time.Hour)
	require.NoError(t, err)

	payload, err := j.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, testWallet, payload.User)
	assert.NotEmpty(t, payload.ID)
	assert.WithinDuration(t, payload.IssuedAt.Add(time.Hour), payload.ExpiresAt, time.Second)
}

func TestJWTTokenizer_IssueRejectsEmptyIdentity(t *testing.T) {
	j := NewJWTTokenizer("secret")

	_, err := j.Issue("", time.Hour)
	require.ErrorIs(t, err, core.ErrInvalidIdentity)
}

func TestJWTTokenizer_ZeroTTLIsExpired(t *testing.T) {
	j := NewJWTTokenizer("secret")

	token, err := j.Issue(testWallet, 0)
	require.NoError(t, err)

	_, err = j.Verify(token)
	require.ErrorIs(t, err, core.ErrTokenExpired)
}

func TestJWTTokenizer_ExpiresWhenClockAdvances(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	issuer := NewJWTTokenizer("secret", WithClock(fixedClock(now)))

	token, err := issuer.Issue(testWallet, core.DefaultSessionTTL)
	require.NoError(t, err)

	stillValid := NewJWTTokenizer("secret", WithClock(fixedClock(now.Add(23*time.Hour))))
	_, err = stillValid.Verify(token)
	require.NoError(t, err)

	later := NewJWTTokenizer("secret", WithClock(fixedClock(now.Add(core.DefaultSessionTTL+time.Second))))
	_, err = later.Verify(token)
	require.ErrorIs(t, err, core.ErrTokenExpired)
}

func TestJWTTokenizer_WrongSecret(t *testing.T) {
	token, err := NewJWTTokenizer("secret").Issue(testWallet, time.Hour)
	require.NoError(t, err)

	_, err = NewJWTTokenizer("other-secret").Verify(token)
	require.ErrorIs(t, err, core.ErrInvalidSignature)
}

func TestJWTTokenizer_TamperedBytesFail(t *testing.T) {
	j := NewJWTTokenizer("secret")
	token, err := j.Issue(testWallet, time.Hour)
	require.NoError(t, err)

	for i := 0; i < len(token); i++ {
		replacement := byte('A')
		if token[i] == replacement {
			replacement = 'B'
		}
		tampered := token[:i] + string(replacement) + token[i+1:]

		_, err := j.Verify(tampered)
		require.Errorf(t, err, "mutation at byte %d was accepted", i)
	}
}

func TestJWTTokenizer_RejectsOtherSigningMethods(t *testing.T) {
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		User: testWallet,
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewJWTTokenizer("secret").Verify(unsigned)
	require.Error(t, err)
}

func TestJWTTokenizer_RequiresExpiry(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{User: testWallet}).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewJWTTokenizer("secret").Verify(token)
	require.ErrorIs(t, err, core.ErrMalformedToken)
}

func TestJWTTokenizer_MalformedInput(t *testing.T) {
	j := NewJWTTokenizer("secret")

	for _, input := range []string{"", "not-a-token", "a.b", "a.b.c"} {
		_, err := j.Verify(input)
		assert.ErrorIs(t, err, core.ErrMalformedToken, input)

		_, err = j.Decode(input)
		assert.ErrorIs(t, err, core.ErrMalformedToken, input)
	}
}

func TestDecodeUnverified(t *testing.T) {
	token, err := NewJWTTokenizer("secret").Issue(testWallet, time.Hour)
	require.NoError(t, err)

	payload, err := DecodeUnverified(token)
	require.NoError(t, err)
	assert.Equal(t, testWallet, payload.User)

	// no secret needed, and an expired token still decodes
	expired, err := NewJWTTokenizer("secret").Issue(testWallet, -time.Hour)
	require.NoError(t, err)
	payload, err = DecodeUnverified(expired)
	require.NoError(t, err)
	assert.Equal(t, testWallet, payload.User)
}

func TestDecodeUnverified_MissingUserClaim(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x"}).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = DecodeUnverified(token)
	require.ErrorIs(t, err, core.ErrMalformedToken)
}
