package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorKindMatching(t *testing.T) {
	err := fmt.Errorf("purchase: %w", Newf(KindInsufficientFunds, "balance %d below %d", 10, 20))

	require.True(t, errors.Is(err, ErrInsufficientFunds))
	require.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, KindInsufficientFunds, KindOf(err))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(KindProvider, cause, "lookup failed")

	require.ErrorIs(t, err, cause)
	require.ErrorIs(t, err, ErrProvider)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Nil(t, As(nil))
}

func TestMetadataFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, MetadataFor(KindValidation).HTTPStatus)
	assert.Equal(t, http.StatusNotFound, MetadataFor(KindNotFound).HTTPStatus)
	assert.Equal(t, http.StatusUnprocessableEntity, MetadataFor(KindInsufficientFunds).HTTPStatus)
	assert.Equal(t, http.StatusInternalServerError, MetadataFor(Kind("unknown")).HTTPStatus)
}
