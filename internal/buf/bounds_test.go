package buf

import (
	"math"
	"testing"
)

func TestAddOverflowSafe(t *testing.T) {
	if sum, ok := AddOverflowSafe(10, 5); !ok || sum != 15 {
		t.Fatalf("AddOverflowSafe(10,5)=%d,%v want 15,true", sum, ok)
	}
	if _, ok := AddOverflowSafe(math.MaxInt, 1); ok {
		t.Fatalf("expected overflow when adding to MaxInt")
	}
	if _, ok := AddOverflowSafe(math.MinInt, -1); ok {
		t.Fatalf("expected underflow when subtracting from MinInt")
	}
}

func TestCheckSpan(t *testing.T) {
	if end, err := CheckSpan(8192, 64, 64); err != nil || end != 128 {
		t.Fatalf("CheckSpan(8192,64,64)=%d,%v want 128,nil", end, err)
	}
	if _, err := CheckSpan(8192, 8160, 64); err == nil {
		t.Fatalf("CheckSpan should fail past region end")
	}
	if _, err := CheckSpan(8192, -1, 32); err == nil {
		t.Fatalf("CheckSpan should reject negative offset")
	}
	if _, err := CheckSpan(8192, 0, -32); err == nil {
		t.Fatalf("CheckSpan should reject negative length")
	}
	if _, err := CheckSpan(math.MaxInt, math.MaxInt, 1); err == nil {
		t.Fatalf("CheckSpan should detect overflow")
	}
}

func TestSliceAndHas(t *testing.T) {
	data := []byte{0, 1, 2, 3, 4}
	if got, ok := Slice(data, 1, 3); !ok || len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Fatalf("Slice returned unexpected result: %v, %v", got, ok)
	}
	if _, ok := Slice(data, 4, 2); ok {
		t.Fatalf("Slice should fail when extending beyond len")
	}
	if Has(data, 2, 4) {
		t.Fatalf("Has should be false for out-of-bounds range")
	}
	if !Has(data, 2, 1) {
		t.Fatalf("Has should be true for valid range")
	}
	if _, ok := Slice(data, -1, 1); ok {
		t.Fatalf("Slice should reject negative offset")
	}
	if _, ok := Slice(data, 1, -1); ok {
		t.Fatalf("Slice should reject negative length")
	}
}

func TestWindow(t *testing.T) {
	data := make([]byte, 16)
	w, ok := Window(data, 4, 3, 8)
	if !ok || len(w) != 3 || cap(w) != 8 {
		t.Fatalf("Window(4,3,8) len=%d cap=%d ok=%v", len(w), cap(w), ok)
	}
	w = append(w, 0xFF)
	if data[7] != 0xFF {
		t.Fatalf("append within capacity should write through to the region")
	}
	if _, ok := Window(data, 12, 3, 8); ok {
		t.Fatalf("Window should fail when capacity exceeds region")
	}
	if _, ok := Window(data, 0, 9, 8); ok {
		t.Fatalf("Window should fail when length exceeds capacity")
	}
}
