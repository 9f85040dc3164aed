package utils

import (
	"errors"
	"math"
	"testing"
)

func TestGetBufferSizes(t *testing.T) {
	tests := []struct {
		name string
		size int
	}{
		{name: "small", size: 16},
		{name: "pool default", size: 4096},
		{name: "beyond pool default", size: 100 * 1024},
		{name: "zero", size: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := GetBuffer(tt.size)
			if len(buf) != tt.size {
				t.Errorf("GetBuffer(%d) returned len %d", tt.size, len(buf))
			}
			ReleaseBuffer(buf)
		})
	}
}

func TestGetBufferReuse(t *testing.T) {
	buf := GetBuffer(64)
	for i := range buf {
		buf[i] = 0xAB
	}
	ReleaseBuffer(buf)

	// A fresh buffer must come back with the requested length regardless of
	// what was left in the pool.
	buf2 := GetBuffer(128)
	if len(buf2) != 128 {
		t.Errorf("reused buffer has len %d, want 128", len(buf2))
	}
	ReleaseBuffer(buf2)
}

func TestWrapError(t *testing.T) {
	cause := errors.New("underlying failure")
	err := WrapError("chunk fetch failed", cause)

	if err == nil {
		t.Fatal("WrapError returned nil for non-nil cause")
	}
	if !errors.Is(err, cause) {
		t.Error("wrapped error should match cause via errors.Is")
	}
	want := "chunk fetch failed: underlying failure"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	if WrapError("anything", nil) != nil {
		t.Error("WrapError(nil) should return nil")
	}
}

func TestSafeMultiply(t *testing.T) {
	tests := []struct {
		name    string
		a, b    uint64
		want    uint64
		wantErr bool
	}{
		{name: "small values", a: 40, b: 4, want: 160},
		{name: "zero operand", a: 0, b: math.MaxUint64, want: 0},
		{name: "max boundary ok", a: math.MaxUint64, b: 1, want: math.MaxUint64},
		{name: "overflow", a: math.MaxUint64, b: 2, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SafeMultiply(tt.a, tt.b)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SafeMultiply(%d, %d) err = %v, wantErr %v", tt.a, tt.b, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("SafeMultiply = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSafeBufferSize(t *testing.T) {
	tests := []struct {
		name     string
		dims     []uint64
		elemSize uint64
		want     uint64
		wantErr  bool
	}{
		{name: "1D chunk", dims: []uint64{40}, elemSize: 4, want: 160},
		{name: "3D block", dims: []uint64{4, 3, 2}, elemSize: 8, want: 192},
		{name: "empty dims", dims: nil, elemSize: 4, wantErr: true},
		{name: "zero element size", dims: []uint64{10}, elemSize: 0, wantErr: true},
		{name: "dims product overflow", dims: []uint64{math.MaxUint64, 2}, elemSize: 1, wantErr: true},
		{name: "element size overflow", dims: []uint64{math.MaxUint64}, elemSize: 2, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SafeBufferSize(tt.dims, tt.elemSize)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SafeBufferSize(%v, %d) err = %v, wantErr %v", tt.dims, tt.elemSize, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("SafeBufferSize = %d, want %d", got, tt.want)
			}
		})
	}
}
