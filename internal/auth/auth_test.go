package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSecret() []byte {
	return []byte(strings.Repeat("k", MinSecretLen))
}

func newTestAuthenticator(t *testing.T) (*Authenticator, *MemoryOperatorRepo) {
	t.Helper()
	repo := NewMemoryOperatorRepo()
	hash, err := HashPassword("leaves")
	require.NoError(t, err)
	_, err = repo.Create("Forester", hash)
	require.NoError(t, err)

	tokens, err := NewTokenIssuer(testSecret(), time.Hour)
	require.NoError(t, err)
	return NewAuthenticator(repo, tokens), repo
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("secret")
	require.NoError(t, err)
	assert.NotEqual(t, "secret", hash)
	assert.True(t, CheckPassword(hash, "secret"))
	assert.False(t, CheckPassword(hash, "Secret"))
	assert.False(t, CheckPassword("not-a-hash", "secret"))
}

func TestMemoryOperatorRepo(t *testing.T) {
	repo := NewMemoryOperatorRepo()

	op, err := repo.Create("Ranger", "h")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), op.ID)

	_, err = repo.Create("ranger", "h2")
	assert.ErrorIs(t, err, ErrOperatorExists)

	got, err := repo.GetByName(" RANGER ")
	require.NoError(t, err)
	assert.Equal(t, "Ranger", got.Name)
	assert.True(t, got.LastLogin.IsZero())

	require.NoError(t, repo.TouchLogin(op.ID))
	got, _ = repo.GetByName("ranger")
	assert.False(t, got.LastLogin.IsZero())

	_, err = repo.GetByName("nobody")
	assert.ErrorIs(t, err, ErrOperatorNotFound)
	assert.ErrorIs(t, repo.TouchLogin(42), ErrOperatorNotFound)
}

func TestTokenRoundTrip(t *testing.T) {
	tokens, err := NewTokenIssuer(testSecret(), time.Hour)
	require.NoError(t, err)

	token, expiresAt, err := tokens.Issue(&Operator{ID: 7, Name: "forester"})
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(token, "."))
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	claims, err := tokens.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), claims.OperatorID)
	assert.Equal(t, "forester", claims.Name)
	assert.Equal(t, "leafdecay", claims.Issuer)
}

func TestTokenRejected(t *testing.T) {
	tokens, err := NewTokenIssuer(testSecret(), time.Hour)
	require.NoError(t, err)
	token, _, err := tokens.Issue(&Operator{ID: 1, Name: "a"})
	require.NoError(t, err)

	other, err := NewTokenIssuer([]byte(strings.Repeat("x", MinSecretLen)), time.Hour)
	require.NoError(t, err)
	_, err = other.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "чужой секрет")

	for _, bad := range []string{"", "not.a.jwt", "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.invalid.signature"} {
		_, err = tokens.Validate(bad)
		assert.ErrorIs(t, err, ErrInvalidToken, bad)
	}

	// Токен истёк
	tokens.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = tokens.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokenIssuerRejectsShortSecret(t *testing.T) {
	_, err := NewTokenIssuer([]byte("short"), time.Hour)
	assert.Error(t, err)
}

func TestSecretEncoding(t *testing.T) {
	secret := GenerateSecret()
	decoded, err := DecodeSecret(secret)
	require.NoError(t, err)
	assert.Len(t, decoded, MinSecretLen)
	assert.NotEqual(t, GenerateSecret(), secret)

	_, err = DecodeSecret("!!!")
	assert.Error(t, err)
	_, err = DecodeSecret("c2hvcnQ=")
	assert.Error(t, err)
}

func TestLogin(t *testing.T) {
	a, _ := newTestAuthenticator(t)

	token, _, err := a.Login("forester", "leaves")
	require.NoError(t, err)
	claims, err := a.Tokens().Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "Forester", claims.Name)

	_, _, err = a.Login("forester", "wrong")
	assert.ErrorIs(t, err, ErrBadCredentials)
	_, _, err = a.Login("stranger", "leaves")
	assert.ErrorIs(t, err, ErrBadCredentials)
}
