package magsci

import "testing"

func TestFibonacciRoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 2, 3, 4, 5, 10, 100, 1000, 1 << 20, 1<<32 - 1}

	for _, v := range cases {
		encoded := fibonacciEncode(v)
		if len(encoded) < 2 || !encoded[len(encoded)-1] || !encoded[len(encoded)-2] {
			t.Fatalf("encode(%d) = %v, want terminator \"11\"", v, encoded)
		}

		decoded := fibonacciDecode(encoded[:len(encoded)-1])
		if decoded != v {
			t.Errorf("round trip for %d: got %d", v, decoded)
		}
	}
}

func TestFibonacciEncodeViaBitCursor(t *testing.T) {
	cases := []uint64{0, 1, 7, 42, 999, 1 << 16}

	for _, v := range cases {
		bits := fibonacciEncode(v)
		buf := packBits(bits)

		cursor := NewBitCursor(buf)
		scanned, err := cursor.ScanFibonacciTerminator()
		if err != nil {
			t.Fatalf("scan(%d): %v", v, err)
		}

		decoded := fibonacciDecode(scanned)
		if decoded != v {
			t.Errorf("scan round trip for %d: got %d", v, decoded)
		}
	}
}

// packBits packs a slice of bools, most significant bit first, into bytes,
// padding the final byte with zero bits.
func packBits(bits []bool) []byte {
	n := (len(bits) + 7) / 8
	out := make([]byte, n)
	for i, b := range bits {
		if b {
			out[i/8] |= 1 << (7 - uint(i%8))
		}
	}
	return out
}
