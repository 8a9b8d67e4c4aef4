package magsci

import "testing"

func TestDecodePrimaryHeader(t *testing.T) {
	// apid 0x41C (science norm), version 0, type 0, sec hdr flag 1,
	// seq flags 3 (unsegmented), seq count 100, data length 9 (10 bytes of data).
	buf := []byte{
		0x0C, 0x1C, // 000 0 1 10000011100 -> version=0 type=0 sechdr=1 apid=0x41C
		0xC0, 0x64, // seqflags=11, seqcount=100
		0x00, 0x09,
	}

	hdr, err := DecodePrimaryHeader(buf)
	if err != nil {
		t.Fatal(err)
	}

	if hdr.Apid != ApidScienceNorm {
		t.Errorf("apid = %#x, want %#x", hdr.Apid, ApidScienceNorm)
	}
	if hdr.SeqCount != 100 {
		t.Errorf("seq count = %d, want 100", hdr.SeqCount)
	}
	if hdr.SeqFlags != 3 {
		t.Errorf("seq flags = %d, want 3", hdr.SeqFlags)
	}
	if hdr.PacketLength() != 16 {
		t.Errorf("packet length = %d, want 16", hdr.PacketLength())
	}
}

func TestIsMagApid(t *testing.T) {
	cases := []struct {
		apid uint16
		want bool
	}{
		{ApidMagStart, true},
		{ApidMagEnd, true},
		{ApidScienceNorm, true},
		{ApidMagStart - 1, false},
		{ApidMagEnd + 1, false},
	}

	for _, c := range cases {
		if got := IsMagApid(c.apid); got != c.want {
			t.Errorf("IsMagApid(%#x) = %t, want %t", c.apid, got, c.want)
		}
	}
}

func TestReadPacketShortHeaderErrors(t *testing.T) {
	if _, err := DecodePrimaryHeader([]byte{0x00, 0x01}); err == nil {
		t.Fatal("expected an error decoding a truncated header")
	}
}
