package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitError(t *testing.T) {
	err := NewExitError(3)
	assert.Equal(t, "exit status 3", err.Error())

	code, ok := IsExitError(err)
	assert.True(t, ok)
	assert.Equal(t, 3, code)
}

func TestIsExitError_OtherErrors(t *testing.T) {
	code, ok := IsExitError(nil)
	assert.False(t, ok)
	assert.Zero(t, code)

	code, ok = IsExitError(errors.New("plain"))
	assert.False(t, ok)
	assert.Zero(t, code)
}
