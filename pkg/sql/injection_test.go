package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckParameters(t *testing.T) {
	t.Run("clean parameters", func(t *testing.T) {
		assert.Nil(t, CheckParameters([]any{"alice", 42, true, 3.14}))
	})

	t.Run("nil and empty", func(t *testing.T) {
		assert.Nil(t, CheckParameters(nil))
		assert.Nil(t, CheckParameters([]any{}))
	})

	t.Run("injection payload", func(t *testing.T) {
		result := CheckParameters([]any{"ok", "1' OR '1'='1"})
		require.NotNil(t, result)
		assert.Equal(t, 1, result.ParamIndex)
		assert.NotEmpty(t, result.Fingerprint)
	})

	t.Run("non-string values are skipped", func(t *testing.T) {
		assert.Nil(t, CheckParameters([]any{12345, false}))
	})
}
