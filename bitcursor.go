package magsci

import (
	"bytes"

	"github.com/icza/bitio"
)

// BitCursor reads big-endian, variable-width unsigned fields from a packet
// payload and also supports scanning a parallel bit-string view for a
// sentinel pattern, which the fibonacci codec needs to find codeword
// terminators. It replaces what used to be two independent cursors over the
// same bytes with one position.
type BitCursor struct {
	buf    []byte
	reader *bitio.Reader
	pos    uint64 // bits consumed so far, tracked independently of bitio's own count
}

// NewBitCursor wraps payload for bit-level reads starting at bit 0.
func NewBitCursor(payload []byte) *BitCursor {
	return &BitCursor{
		buf:    payload,
		reader: bitio.NewReader(bytes.NewReader(payload)),
	}
}

// Len reports the total number of bits available in the underlying payload.
func (c *BitCursor) Len() uint64 {
	return uint64(len(c.buf)) * 8
}

// Pos reports the number of bits consumed so far.
func (c *BitCursor) Pos() uint64 {
	return c.pos
}

// Remaining reports the number of unread bits.
func (c *BitCursor) Remaining() uint64 {
	return c.Len() - c.pos
}

// ReadBits reads the next n bits (1..32) as a big-endian unsigned integer.
func (c *BitCursor) ReadBits(n uint8) (uint32, error) {
	if n == 0 || n > 32 {
		return 0, ErrInvalidCompressionWidth
	}
	if uint64(n) > c.Remaining() {
		return 0, ErrTruncatedPayload
	}
	v, err := c.reader.ReadBits(n)
	if err != nil {
		return 0, ErrTruncatedPayload
	}
	c.pos += uint64(n)
	return uint32(v), nil
}

// Peek reads the next n bits (1..32) without advancing the cursor. Calling
// Peek(n) followed by ReadBits(n) always returns the same value; the cursor
// is left exactly where it was before the Peek.
func (c *BitCursor) Peek(n uint8) (uint32, error) {
	save := c.pos
	v, err := c.ReadBits(n)
	c.reader = bitio.NewReader(bytes.NewReader(c.buf))
	c.pos = 0
	for c.pos < save {
		step := uint8(32)
		if save-c.pos < 32 {
			step = uint8(save - c.pos)
		}
		if _, rerr := c.reader.ReadBits(step); rerr != nil {
			return 0, ErrTruncatedPayload
		}
		c.pos += uint64(step)
	}
	if err != nil {
		return 0, err
	}
	return v, nil
}

// ReadBit reads a single bit as a bool.
func (c *BitCursor) ReadBit() (bool, error) {
	v, err := c.ReadBits(1)
	if err != nil {
		return false, err
	}
	return v == 1, nil
}

// Align advances the cursor to the next byte boundary, discarding any
// partially read byte. It is a no-op if already aligned.
func (c *BitCursor) Align() error {
	rem := c.pos % 8
	if rem == 0 {
		return nil
	}
	pad := 8 - uint8(rem)
	_, err := c.ReadBits(pad)
	return err
}

// ScanFibonacciTerminator reads bits one at a time, collecting each one,
// stopping once two consecutive 1 bits have been read (the codeword's last
// data bit followed by the terminator bit). It returns the bits read,
// excluding the terminator bit.
func (c *BitCursor) ScanFibonacciTerminator() ([]bool, error) {
	var bits []bool
	var prevOne bool
	for {
		bit, err := c.ReadBit()
		if err != nil {
			return nil, ErrUnterminatedFibCode
		}
		if bit && prevOne {
			return bits, nil
		}
		bits = append(bits, bit)
		prevOne = bit
	}
}
