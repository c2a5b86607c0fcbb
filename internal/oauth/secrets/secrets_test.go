package secrets

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "pdsoauth/pkg/domain-errors"
)

func TestGenerateCode(t *testing.T) {
	first, err := GenerateCode()
	require.NoError(t, err)
	second, err := GenerateCode()
	require.NoError(t, err)

	assert.Len(t, first, 40)
	assert.NotEqual(t, first, second)
}

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)

	assert.NoError(t, Verify("s3cret", hash))

	err = Verify("wrong", hash)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidClient))

	_, err = Hash("")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidRequest))
}

func TestVerifyRejectsSecretsBeyondBcryptLimit(t *testing.T) {
	secret := strings.Repeat("a", 72)
	hash, err := Hash(secret)
	require.NoError(t, err)

	assert.NoError(t, Verify(secret, hash))

	err = Verify(secret+"EXTRA", hash)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidClient))

	_, err = Hash(secret + "a")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidRequest))
}
