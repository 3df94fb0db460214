package httpapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractBearerToken_AcceptsWellFormedHeader(t *testing.T) {
	token, err := extractBearerToken("Bearer abc123")
	assert.NoError(t, err)
	assert.Equal(t, "abc123", token)
}

func TestExtractBearerToken_RejectsMissingPrefix(t *testing.T) {
	_, err := extractBearerToken("abc123")
	assert.Error(t, err)
}

func TestExtractBearerToken_RejectsEmptyToken(t *testing.T) {
	_, err := extractBearerToken("Bearer ")
	assert.Error(t, err)
}
