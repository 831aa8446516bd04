package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(ErrCollision, "live path would be overwritten")
	require.NotNil(t, err)
	assert.Equal(t, ErrCollision, err.Code)
	assert.Equal(t, "[COLLISION] live path would be overwritten", err.Error())
}

func TestNewf(t *testing.T) {
	err := Newf(ErrDuplicateTarget, "target declared %d times: %s", 2, ".zshrc")
	assert.Equal(t, "[DUPLICATE_TARGET] target declared 2 times: .zshrc", err.Error())
}

func TestWrap(t *testing.T) {
	t.Run("wraps underlying error", func(t *testing.T) {
		inner := fmt.Errorf("permission denied")
		err := Wrap(inner, ErrFileAccess, "reading live file")
		require.NotNil(t, err)
		assert.Equal(t, inner, err.Unwrap())
		assert.Contains(t, err.Error(), "permission denied")
		assert.Contains(t, err.Error(), "[FILE_ACCESS]")
	})

	t.Run("nil error returns nil", func(t *testing.T) {
		assert.Nil(t, Wrap(nil, ErrInternal, "should vanish"))
		assert.Nil(t, Wrapf(nil, ErrInternal, "should %s", "vanish"))
	})
}

func TestIsErrorCode(t *testing.T) {
	err := Newf(ErrOrderCycle, "cycle between %s and %s", "a/b", "a/b/")
	assert.True(t, IsErrorCode(err, ErrOrderCycle))
	assert.False(t, IsErrorCode(err, ErrCollision))
	assert.False(t, IsErrorCode(fmt.Errorf("plain"), ErrOrderCycle))

	wrapped := fmt.Errorf("outer: %w", err)
	assert.True(t, IsErrorCode(wrapped, ErrOrderCycle))
}

func TestGetErrorCode(t *testing.T) {
	assert.Equal(t, ErrBackupExists, GetErrorCode(New(ErrBackupExists, "x")))
	assert.Equal(t, ErrUnknown, GetErrorCode(fmt.Errorf("plain")))
}

func TestWithDetail(t *testing.T) {
	err := New(ErrCollision, "collisions detected").
		WithDetail("targets", []string{".zshrc", ".gitconfig"})

	details := GetErrorDetails(err)
	require.NotNil(t, details)
	assert.Equal(t, []string{".zshrc", ".gitconfig"}, details["targets"])
}
