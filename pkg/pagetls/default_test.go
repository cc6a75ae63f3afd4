//go:build unix

package pagetls

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultEngine(t *testing.T) {
	require.Same(t, Default(), Default())

	require.NoError(t, Create(32))
	require.ErrorIs(t, Create(32), ErrAlreadyExists)
	require.NoError(t, Write(0, []byte("default")))

	me := Self()
	var cloneErr, readErr error
	out := make([]byte, 7)
	done := make(chan struct{})
	Go(func() {
		defer close(done)
		if cloneErr = Clone(me); cloneErr != nil {
			return
		}
		readErr = Read(0, out)
		_ = Destroy()
	})
	<-done
	require.NoError(t, cloneErr)
	require.NoError(t, readErr)
	assert.Equal(t, []byte("default"), out)

	require.NoError(t, Destroy())
	require.ErrorIs(t, Destroy(), ErrNoSuchRegion)
}

func TestLogger_Default(t *testing.T) {
	require.NotNil(t, Logger())
}
