package b2slice

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnabledDefault(t *testing.T) {
	require.True(t, Enabled())
}

func TestEnableDisable(t *testing.T) {
	defer Enable()

	Disable()
	require.False(t, Enabled())
	Enable()
	require.True(t, Enabled())
}

func TestWithDisabledRestores(t *testing.T) {
	defer Enable()

	require.True(t, Enabled())
	err := WithDisabled(func() error {
		require.False(t, Enabled())
		return nil
	})
	require.NoError(t, err)
	require.True(t, Enabled())
}

func TestWithEnabledRestores(t *testing.T) {
	defer Enable()

	Disable()
	err := WithEnabled(func() error {
		require.True(t, Enabled())
		return nil
	})
	require.NoError(t, err)
	require.False(t, Enabled())
}

func TestWithDisabledRestoresOnError(t *testing.T) {
	defer Enable()

	sentinel := errors.New("boom")
	err := WithDisabled(func() error { return sentinel })
	require.ErrorIs(t, err, sentinel)
	require.True(t, Enabled())
}

func TestWithDisabledRestoresOnPanic(t *testing.T) {
	defer Enable()

	require.Panics(t, func() {
		_ = WithDisabled(func() error { panic("boom") })
	})
	require.True(t, Enabled())
}

func TestWithDisabledNested(t *testing.T) {
	defer Enable()

	err := WithDisabled(func() error {
		require.False(t, Enabled())
		inner := WithEnabled(func() error {
			require.True(t, Enabled())
			return nil
		})
		require.False(t, Enabled())
		return inner
	})
	require.NoError(t, err)
	require.True(t, Enabled())
}

func TestEnvForceFilter(t *testing.T) {
	tests := []struct {
		value   string
		enabled bool
	}{
		{"1", false},
		{"2", false},
		{"-1", false},
		{"0", true},
		{"", true},
		{"yes", true}, // non-integer counts as zero
	}

	for _, tt := range tests {
		t.Run("value "+tt.value, func(t *testing.T) {
			t.Setenv(EnvForceFilter, tt.value)
			require.Equal(t, tt.enabled, Enabled())
		})
	}
}

func TestEnvForceFilterBeatsEnable(t *testing.T) {
	t.Setenv(EnvForceFilter, "1")
	Enable()
	require.False(t, Enabled())

	err := WithEnabled(func() error {
		require.False(t, Enabled())
		return nil
	})
	require.NoError(t, err)
}

// countingCodec records how many block-level decodes happen, which is the
// only way the served path is distinguishable from outside.
type countingCodec struct {
	SuperchunkCodec
	blockDecodes int
}

func (c *countingCodec) DecodeBlock(raw []byte, block uint64, expectedSize int) ([]byte, error) {
	c.blockDecodes++
	return c.SuperchunkCodec.DecodeBlock(raw, block, expectedSize)
}

func TestToggleRoutesRequests(t *testing.T) {
	defer Enable()

	desc := testDescriptor1D()
	store, _ := newTestStore(t, desc, WithCompression(CompressionZstd))
	codec := &countingCodec{}
	reader := NewReader(store, WithCodec(codec))

	region := Region{Start: []uint64{35}, Count: []uint64{10}}
	dst := make([]byte, region.NumElements()*desc.ElemSize)

	Disable()
	require.NoError(t, reader.ReadRegion(context.Background(), region, dst))
	require.Zero(t, codec.blockDecodes)

	Enable()
	require.NoError(t, reader.ReadRegion(context.Background(), region, dst))
	require.Positive(t, codec.blockDecodes)
}

func TestDisabledReaderStillCorrect(t *testing.T) {
	defer Enable()

	desc := testDescriptor1D()
	store, data := newTestStore(t, desc, WithCompression(CompressionZstd))
	reader := NewReader(store)

	region := Region{Start: []uint64{35}, Count: []uint64{10}}
	expected := extractRegion(data, desc.Shape, region, desc.ElemSize)

	err := WithDisabled(func() error {
		got := make([]byte, len(expected))
		if err := reader.ReadRegion(context.Background(), region, got); err != nil {
			return err
		}
		require.Equal(t, expected, got)
		return nil
	})
	require.NoError(t, err)
}
