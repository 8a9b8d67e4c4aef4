package magsci

import "testing"

func TestSignExtend(t *testing.T) {
	cases := []struct {
		bits  uint32
		width uint8
		want  int32
	}{
		{0b0111, 4, 7},
		{0b1000, 4, -8},
		{0b1111, 4, -1},
		{0, 8, 0},
		{0xFF, 8, -1},
	}

	for _, c := range cases {
		got := signExtend(c.bits, c.width)
		if got != c.want {
			t.Errorf("signExtend(%b, %d) = %d, want %d", c.bits, c.width, got, c.want)
		}
	}
}

// encodeResidualVector packs one compressed vector's worth of fibonacci/zigzag
// coded residuals, mirroring what a real encoder (outside this package's
// scope) would produce on the wire.
func encodeResidualVector(t *testing.T, x, y, z int32) []byte {
	t.Helper()
	var bits []bool
	for _, axis := range []int32{x, y, z} {
		bits = append(bits, fibonacciEncode(uint64(zigzagEncode(axis)))...)
	}
	return packBits(bits)
}

func TestDecodeCompressedVectorAccumulatesResidual(t *testing.T) {
	state := &sensorState{previous: Vector{X: 100, Y: -50, Z: 0}}

	buf := encodeResidualVector(t, 5, -3, 10)
	cursor := NewBitCursor(buf)

	v, err := decodeCompressedVector(cursor, state)
	if err != nil {
		t.Fatal(err)
	}

	want := Vector{X: 105, Y: -53, Z: 10}
	if v != want {
		t.Errorf("decoded vector = %+v, want %+v", v, want)
	}
	if state.previous != want {
		t.Errorf("state.previous = %+v, want %+v", state.previous, want)
	}
}

func TestUnpackUncompressedVectorsFixedWidth(t *testing.T) {
	// two vectors, width 8, each followed by a 2-bit range field:
	// (1,-1,2,rng=1), (3,-4,5,rng=2)
	type sample struct {
		x, y, z int32
		rng     uint32
	}
	samples := []sample{{1, -1, 2, 1}, {3, -4, 5, 2}}

	bits := []bool{}
	for _, s := range samples {
		for _, axis := range []int32{s.x, s.y, s.z} {
			u := uint32(axis) & 0xFF
			for i := 7; i >= 0; i-- {
				bits = append(bits, (u>>uint(i))&1 == 1)
			}
		}
		for i := 1; i >= 0; i-- {
			bits = append(bits, (s.rng>>uint(i))&1 == 1)
		}
	}
	buf := packBits(bits)
	cursor := NewBitCursor(buf)

	got, err := unpackUncompressedVectors(cursor, 2, 8)
	if err != nil {
		t.Fatal(err)
	}

	want := []Vector{{X: 1, Y: -1, Z: 2, Range: 1}, {X: 3, Y: -4, Z: 5, Range: 2}}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("vector %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestAddResidualWraparound(t *testing.T) {
	max := int32(1<<31 - 1)
	got := addResidual(max, 1)
	if got != -(1 << 31) {
		t.Errorf("addResidual overflow = %d, want int32 minimum", got)
	}
}

func TestDecodeCompressedStreamHeader(t *testing.T) {
	// width=18 (0b010010), has-range-section set, reserved bit clear.
	raw := uint8(18<<2) | 0x02
	cursor := NewBitCursor([]byte{raw})

	hdr, err := decodeCompressedStreamHeader(cursor)
	if err != nil {
		t.Fatal(err)
	}
	if hdr.ReferenceWidthBits != 18 {
		t.Errorf("ReferenceWidthBits = %d, want 18", hdr.ReferenceWidthBits)
	}
	if !hdr.HasRangeSection {
		t.Error("HasRangeSection = false, want true")
	}
}

func TestDecodeCompressedStreamHeaderRejectsZeroWidth(t *testing.T) {
	cursor := NewBitCursor([]byte{0x00})
	if _, err := decodeCompressedStreamHeader(cursor); err == nil {
		t.Fatal("expected an error for a zero reference width")
	}
}

func TestApplyRangeTrailerPropagatesWithoutSection(t *testing.T) {
	primary := []Vector{{X: 1, Range: 2}, {X: 2}, {X: 3}}
	secondary := []Vector{{X: 4, Range: 1}, {X: 5}}

	if err := applyRangeTrailer(NewBitCursor(nil), false, primary, secondary); err != nil {
		t.Fatal(err)
	}

	for i, v := range primary {
		if v.Range != 2 {
			t.Errorf("primary[%d].Range = %d, want 2", i, v.Range)
		}
	}
	for i, v := range secondary {
		if v.Range != 1 {
			t.Errorf("secondary[%d].Range = %d, want 1", i, v.Range)
		}
	}
}

func TestApplyRangeTrailerReadsTrailerSection(t *testing.T) {
	// primary has 3 vectors (2 trailer entries), secondary has 2 (1 entry):
	// trailer bits, byte-aligned: 01 10 11 padded to a byte.
	buf := []byte{0b01_10_11_00}
	cursor := NewBitCursor(buf)

	primary := []Vector{{Range: 9}, {}, {}}
	secondary := []Vector{{Range: 9}, {}}

	if err := applyRangeTrailer(cursor, true, primary, secondary); err != nil {
		t.Fatal(err)
	}

	if primary[1].Range != 0b01 || primary[2].Range != 0b10 {
		t.Errorf("primary trailer ranges = %d, %d, want 1, 2", primary[1].Range, primary[2].Range)
	}
	if secondary[1].Range != 0b11 {
		t.Errorf("secondary trailer range = %d, want 3", secondary[1].Range)
	}
}
