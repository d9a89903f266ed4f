package gpio

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeIOReadInput(t *testing.T) {
	f := NewFakeIO()

	pressed, err := f.ReadInput(5)
	require.NoError(t, err)
	assert.False(t, pressed, "unset pins read released")

	f.Set(5, true)
	pressed, err = f.ReadInput(5)
	require.NoError(t, err)
	assert.True(t, pressed)

	f.Set(5, false)
	pressed, _ = f.ReadInput(5)
	assert.False(t, pressed)
	assert.Equal(t, 3, f.Reads)
}

func TestFakeIOReadError(t *testing.T) {
	f := NewFakeIO()
	f.Set(5, true)
	f.ReadError = errors.New("simulated error")

	_, err := f.ReadInput(5)
	require.Error(t, err)
	assert.Equal(t, "simulated error", err.Error())
}

func TestFakeIOWriteOutput(t *testing.T) {
	f := NewFakeIO()

	require.NoError(t, f.WriteOutput(22, true))
	require.NoError(t, f.WriteOutput(17, true))
	require.NoError(t, f.WriteOutput(22, false))

	assert.Equal(t, []Write{{22, true}, {17, true}, {22, false}}, f.Writes)
	assert.Equal(t, []int{17}, f.Lit())
}

func TestFakeIOWriteError(t *testing.T) {
	f := NewFakeIO()
	f.WriteError = errors.New("simulated error")

	assert.Error(t, f.WriteOutput(17, true))
	assert.Empty(t, f.Writes)
	assert.Empty(t, f.Lit())
}

func TestFakeIOClose(t *testing.T) {
	f := NewFakeIO()
	assert.False(t, f.Closed, "should not be closed initially")

	require.NoError(t, f.Close())
	assert.True(t, f.Closed)
}

func TestFakeIOReset(t *testing.T) {
	f := NewFakeIO()
	f.Set(6, true)
	f.WriteOutput(17, true)
	f.ReadInput(6)
	f.Close()

	f.Reset()

	assert.Empty(t, f.Writes)
	assert.Empty(t, f.Lit())
	assert.Zero(t, f.Reads)
	assert.False(t, f.Closed)

	pressed, _ := f.ReadInput(6)
	assert.True(t, pressed, "input levels survive Reset")
}

func TestFakeIOImplementsIO(t *testing.T) {
	var _ IO = NewFakeIO()
}
