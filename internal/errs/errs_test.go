package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsKind(t *testing.T) {
	t.Run("matches wrapped error", func(t *testing.T) {
		err := fmt.Errorf("set credentials: %w", CredentialMismatch())
		assert.True(t, IsKind(err, KindCredentialMismatch))
		assert.False(t, IsKind(err, KindValidation))
	})

	t.Run("plain errors have no kind", func(t *testing.T) {
		assert.False(t, IsKind(errors.New("boom"), KindValidation))
		assert.Equal(t, "", CodeOf(errors.New("boom")))
	})
}

func TestErrorsIs(t *testing.T) {
	err := MissingField("mode")

	assert.ErrorIs(t, err, &Error{Kind: KindValidation})
	assert.ErrorIs(t, err, &Error{Kind: KindValidation, Code: CodeMissingField})
	assert.NotErrorIs(t, err, &Error{Kind: KindValidation, Code: CodeInvalidAddress})
	assert.Equal(t, "'mode' must be passed in", err.Error())
}

func TestTransport(t *testing.T) {
	cause := errors.New("connection refused")
	err := Transport("get-transactions", cause)

	require.True(t, IsKind(err, KindTransport))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "get-transactions: connection refused", err.Error())

	status := TransportStatus("rates", 502)
	assert.Equal(t, CodeBadStatus, CodeOf(status))
}
