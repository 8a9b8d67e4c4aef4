package magsci

// signExtend widens a width-bit two's-complement value read out of a
// BitCursor into a full int32.
func signExtend(u uint32, width uint8) int32 {
	shift := 32 - width
	return int32(u<<shift) >> shift
}

// Vector is a decoded x/y/z magnetometer sample, already converted to
// absolute counts (i.e. after any residual has been added to the running
// previous sample for this sensor), plus the 2-bit dynamic range code the
// instrument tagged it with.
type Vector struct {
	X, Y, Z int32
	Range   uint8
}

// decodeFixedVector reads three consecutive width-bit two's-complement
// fields from cursor, one per axis, and returns them unmodified (callers add
// them to the running previous sample when the source is a residual stream,
// or use them directly when the source is already absolute counts). It does
// not read a range field; the caller fills Range in separately, either from
// the packet's range trailer or by propagating the sensor's reference range.
func decodeFixedVector(cursor *BitCursor, width uint8) (Vector, error) {
	var raw [AxisCount]int32
	for i := 0; i < AxisCount; i++ {
		bits, err := cursor.ReadBits(width)
		if err != nil {
			return Vector{}, err
		}
		raw[i] = signExtend(bits, width)
	}
	return Vector{X: raw[0], Y: raw[1], Z: raw[2]}, nil
}

// decodeVectorWithRange reads a fixed-width absolute x/y/z sample followed
// immediately by its own inline 2-bit range field. This is the shape used by
// every vector of an uncompressed packet, and by a sensor's reference vector
// at the start of a compressed packet.
func decodeVectorWithRange(cursor *BitCursor, width uint8) (Vector, error) {
	v, err := decodeFixedVector(cursor, width)
	if err != nil {
		return Vector{}, err
	}
	rng, err := cursor.ReadBits(2)
	if err != nil {
		return Vector{}, err
	}
	v.Range = uint8(rng)
	return v, nil
}

// decodeFixedWidthVectorsWithRange reads count vectors of fixed bit-width
// width from cursor, each carrying its own inline range field. This is the
// uncompressed packet path (§4.4): no residual accumulation, no HDR escape.
func decodeFixedWidthVectorsWithRange(cursor *BitCursor, count int, width uint8) ([]Vector, error) {
	out := make([]Vector, count)
	for i := 0; i < count; i++ {
		v, err := decodeVectorWithRange(cursor, width)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
