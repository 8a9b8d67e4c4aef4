package magsci

// sensorState tracks the per-sensor decode state across the vectors of a
// single science packet: the running absolute sample (residuals accumulate
// onto it with int32 wraparound) and whether this sensor has already
// crossed into the fixed-width HDR fallback.
type sensorState struct {
	previous Vector
	hdr      bool
}

// addResidual adds a zig-zag decoded residual to prev with int32 wraparound,
// matching the fixed-width arithmetic of the original numpy.int32 samples.
func addResidual(prev int32, residual int32) int32 {
	return prev + residual
}

// decodeCompressedVector reads one vector's worth of Fibonacci-coded,
// zig-zag residuals for a single sensor from cursor, adds them onto state's
// running previous sample, and reports whether this vector's bit cost
// crossed the HDR escape threshold.
func decodeCompressedVector(cursor *BitCursor, state *sensorState) (Vector, error) {
	startPos := cursor.Pos()

	var residual [AxisCount]int32
	for axis := 0; axis < AxisCount; axis++ {
		bits, err := cursor.ScanFibonacciTerminator()
		if err != nil {
			return Vector{}, err
		}
		u := fibonacciDecode(bits)
		residual[axis] = zigzagDecode(uint32(u))
	}

	bitsUsed := cursor.Pos() - startPos

	next := Vector{
		X: addResidual(state.previous.X, residual[0]),
		Y: addResidual(state.previous.Y, residual[1]),
		Z: addResidual(state.previous.Z, residual[2]),
	}
	state.previous = next

	if bitsUsed > HDRVectorWidthThresh {
		state.hdr = true
	}
	return next, nil
}

// compressedStreamHeader is the one-byte header at the start of a compressed
// packet's vector data, shared by both sensors' streams.
type compressedStreamHeader struct {
	ReferenceWidthBits uint8
	HasRangeSection    bool
}

// decodeCompressedStreamHeader reads the compressed-stream header byte:
// bits [7:2] are the reference sample width (1..40, rejecting 0 or more than
// MaxCompressionWidth), bit [1] flags whether a range trailer section
// follows both sensors' vector streams, and bit [0] is reserved.
func decodeCompressedStreamHeader(cursor *BitCursor) (compressedStreamHeader, error) {
	raw, err := cursor.ReadBits(8)
	if err != nil {
		return compressedStreamHeader{}, err
	}
	width := uint8(raw >> 2)
	if width == 0 || width > MaxCompressionWidth {
		return compressedStreamHeader{}, ErrInvalidCompressionWidth
	}
	return compressedStreamHeader{
		ReferenceWidthBits: width,
		HasRangeSection:    raw&0x02 != 0,
	}, nil
}

// unpackCompressedVectors decodes count vectors for one sensor from cursor,
// switching that sensor independently into the fixed-width HDR fallback as
// soon as any vector's Fibonacci codewords exceed HDRVectorWidthThresh bits.
// The first vector is a reference sample at width bits, with its own inline
// range field; every subsequent vector is either a Fibonacci/zig-zag
// residual relative to the one before it (Range left at its zero value,
// filled in later from the range trailer or by propagation) or, once the
// HDR threshold has been crossed, a fixed-width absolute sample with no
// range field of its own.
func unpackCompressedVectors(cursor *BitCursor, count int, width uint8) ([]Vector, error) {
	if count == 0 {
		return nil, nil
	}

	out := make([]Vector, 0, count)

	ref, err := decodeVectorWithRange(cursor, width)
	if err != nil {
		return nil, err
	}
	out = append(out, ref)

	state := &sensorState{previous: Vector{X: ref.X, Y: ref.Y, Z: ref.Z}}

	for i := 1; i < count; i++ {
		if state.hdr {
			v, err := decodeFixedVector(cursor, width)
			if err != nil {
				return nil, err
			}
			state.previous = v
			out = append(out, v)
			continue
		}

		v, err := decodeCompressedVector(cursor, state)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}

	return out, nil
}

// unpackUncompressedVectors decodes count vectors for one sensor from cursor
// when the packet's COMPRESSION flag is clear: every vector is an absolute
// sample at a fixed bit width with its own inline range field, with no
// Fibonacci/zig-zag coding and no HDR escape (there is nothing to escape
// from).
func unpackUncompressedVectors(cursor *BitCursor, count int, width uint8) ([]Vector, error) {
	return decodeFixedWidthVectorsWithRange(cursor, count, width)
}

// applyRangeTrailer fills in the Range field of every non-reference vector
// in sensorVectors (primary first, then secondary, matching decode order).
// When hasRangeSection is set, the cursor is byte-aligned and, per sensor,
// 2*(len(vectors)-1) bits are read and assigned in order. Otherwise each
// sensor's reference vector's range is propagated to the rest of its
// vectors.
func applyRangeTrailer(cursor *BitCursor, hasRangeSection bool, sensorVectors ...[]Vector) error {
	if !hasRangeSection {
		for _, vectors := range sensorVectors {
			if len(vectors) == 0 {
				continue
			}
			ref := vectors[0].Range
			for i := 1; i < len(vectors); i++ {
				vectors[i].Range = ref
			}
		}
		return nil
	}

	if err := cursor.Align(); err != nil {
		return err
	}
	for _, vectors := range sensorVectors {
		for i := 1; i < len(vectors); i++ {
			bits, err := cursor.ReadBits(2)
			if err != nil {
				return err
			}
			vectors[i].Range = uint8(bits)
		}
	}
	return nil
}
