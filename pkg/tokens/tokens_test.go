package tokens

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCodec() *Codec {
	return &Codec{Secret: []byte("test-jwt-secret"), TTL: 15 * time.Minute}
}

func TestCodec_IssueAndVerify(t *testing.T) {
	t.Parallel()

	codec := newTestCodec()
	token, exp, err := codec.Issue("alice", 42)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(codec.TTL), exp, 2*time.Second)

	claims, err := codec.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)

	userID, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint(42), userID)
}

func TestCodec_RepeatedIssue_YieldsDistinctTokens(t *testing.T) {
	t.Parallel()

	codec := newTestCodec()
	first, _, err := codec.Issue("alice", 42)
	require.NoError(t, err)
	second, _, err := codec.Issue("alice", 42)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestCodec_Verify_Expired(t *testing.T) {
	t.Parallel()

	codec := &Codec{Secret: []byte("test-jwt-secret"), TTL: -time.Minute}
	token, _, err := codec.Issue("alice", 42)
	require.NoError(t, err)

	_, err = codec.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestCodec_Verify_WrongSecret(t *testing.T) {
	t.Parallel()

	token, _, err := newTestCodec().Issue("alice", 42)
	require.NoError(t, err)

	other := &Codec{Secret: []byte("another-secret"), TTL: 15 * time.Minute}
	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrTokenSignature)
}

func TestCodec_Verify_Malformed(t *testing.T) {
	t.Parallel()

	codec := newTestCodec()
	for _, raw := range []string{"", "garbage", "a.b"} {
		_, err := codec.Verify(raw)
		assert.ErrorIs(t, err, ErrTokenMalformed, "input %q", raw)
	}
}
