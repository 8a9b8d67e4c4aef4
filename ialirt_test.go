package magsci

import "testing"

func buildIalirtBody(offset int, coarse uint32, x, y, z int32) []byte {
	var bits []bool
	pushBits := func(v uint32, width int) {
		for i := width - 1; i >= 0; i-- {
			bits = append(bits, (v>>uint(i))&1 == 1)
		}
	}
	pushBits(coarse, 32)
	for _, axis := range []int32{x, y, z} {
		pushBits(uint32(axis)&0xFFFF, ialirtVectorWidth)
	}
	sample := packBits(bits)
	return append(make([]byte, offset), sample...)
}

func TestDecodeIalirtPacketMagOnly(t *testing.T) {
	payload := buildIalirtBody(ialirtMagOnlyOffset, 500, 7, -7, 9)

	sample, err := DecodeIalirtPacket(ApidIalirtMag, payload)
	if err != nil {
		t.Fatal(err)
	}
	if sample.ShCoarse != 500 {
		t.Errorf("coarse = %d, want 500", sample.ShCoarse)
	}
	want := Vector{X: 7, Y: -7, Z: 9}
	if sample.Vector != want {
		t.Errorf("vector = %+v, want %+v", sample.Vector, want)
	}
}

func TestDecodeIalirtPacketSpacecraftEmbedded(t *testing.T) {
	payload := buildIalirtBody(ialirtSpacecraftEmbeddedOffset, 900, 1, -2, 3)

	sample, err := DecodeIalirtPacket(ApidIalirtSpacecraft, payload)
	if err != nil {
		t.Fatal(err)
	}
	if sample.ShCoarse != 900 {
		t.Errorf("coarse = %d, want 900", sample.ShCoarse)
	}
	want := Vector{X: 1, Y: -2, Z: 3}
	if sample.Vector != want {
		t.Errorf("vector = %+v, want %+v", sample.Vector, want)
	}
}

func TestDecodeIalirtPacketUnsupportedApid(t *testing.T) {
	if _, err := DecodeIalirtPacket(0x1234, make([]byte, 200)); err == nil {
		t.Fatal("expected an error for an unsupported apid")
	}
}
