//go:build unix

package vmem

import (
	"errors"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestPageSize(t *testing.T) {
	ps := PageSize()
	require.Greater(t, ps, 0)
	require.Zero(t, ps&(ps-1), "page size must be a power of two")
}

func TestMap_StartsInaccessible(t *testing.T) {
	mem, err := Map(PageSize())
	require.NoError(t, err)
	defer func() { require.NoError(t, Unmap(mem)) }()

	err = Probe(mem)
	require.Error(t, err)

	var fe *FaultError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, uintptr(unsafe.Pointer(&mem[0])), PageAlign(fe.Addr, PageSize()))
}

func TestProtect_Toggle(t *testing.T) {
	mem, err := Map(PageSize())
	require.NoError(t, err)
	defer func() { require.NoError(t, Unmap(mem)) }()

	require.NoError(t, Protect(mem, ProtReadWrite))
	mem[0] = 'X'
	mem[len(mem)-1] = 'Y'
	require.NoError(t, Probe(mem))

	require.NoError(t, Protect(mem, ProtNone))
	require.Error(t, Probe(mem))

	require.NoError(t, Protect(mem, ProtReadWrite))
	assert.Equal(t, byte('X'), mem[0])
	assert.Equal(t, byte('Y'), mem[len(mem)-1])
	require.NoError(t, Protect(mem, ProtNone))
}

func TestProtect_UnalignedFails(t *testing.T) {
	heap := make([]byte, 2*PageSize())
	err := Protect(heap[1:PageSize()+1], ProtNone)
	require.Error(t, err)
}

func TestMap_InvalidLength(t *testing.T) {
	_, err := Map(0)
	require.Error(t, err)
}

func TestUnmap_Empty(t *testing.T) {
	require.NoError(t, Unmap(nil))
}

func TestUnmap_RejectsForeignMemory(t *testing.T) {
	mem, err := Map(PageSize())
	require.NoError(t, err)
	require.NoError(t, Unmap(mem))

	err = Unmap(mem)
	require.Error(t, err, "second unmap of the same mapping")
	assert.ErrorIs(t, err, unix.EINVAL)

	heap := make([]byte, PageSize())
	assert.ErrorIs(t, Unmap(heap), unix.EINVAL)
}

func TestProbe_HeapMemory(t *testing.T) {
	require.NoError(t, Probe([]byte("hello world")))
	require.NoError(t, Probe(nil))
}

func TestPageAlign(t *testing.T) {
	assert.Equal(t, uintptr(0x2000), PageAlign(0x2fff, 0x1000))
	assert.Equal(t, uintptr(0x3000), PageAlign(0x3000, 0x1000))
}
