package magsci

// DecodedRow is one fully decoded science sample row: the per-sensor
// absolute time, whichever of the primary/secondary sensor readings were
// present in the source packet, and the packet-level metadata a gap
// checker or archive sink needs to interpret it.
type DecodedRow struct {
	SeqCount uint16

	Primary   *Vector
	Secondary *Vector

	PriCoarse uint32
	PriFine   uint16
	SecCoarse uint32
	SecFine   uint16

	CompressionFlag      bool
	CompressionWidthBits uint8

	PrimaryIsActive   bool
	SecondaryIsActive bool
}

// DecodeSciencePacket decodes a raw MAG science packet's payload into its
// secondary header fields and per-sensor vector rows.
//
// secondsPerPacket and uncompressedWidthBits come from the caller (the
// resolved ModeConfig for this capture), not the payload: per-sensor vector
// counts are derived from the header's own PRI_VECSEC/SEC_VECSEC rate codes
// times secondsPerPacket, and uncompressedWidthBits is the reference sample
// width to use when Flags.Compressed is clear (a compressed packet carries
// its own width in the compressed-stream header byte).
func DecodeSciencePacket(raw RawPacket, secondsPerPacket int, uncompressedWidthBits uint8) (SciencePacket, error) {
	cursor := NewBitCursor(raw.Payload)

	hdr, err := DecodeScienceHeader(cursor)
	if err != nil {
		return SciencePacket{}, err
	}

	primaryActive, secondaryActive := sensorActivity(hdr.Flags)

	priCount := 0
	if primaryActive {
		priCount = hdr.PriVecSec * secondsPerPacket
	}
	secCount := 0
	if secondaryActive {
		secCount = hdr.SecVecSec * secondsPerPacket
	}

	var priVectors, secVectors []Vector
	var widthBits uint8

	if hdr.Flags.Compressed {
		streamHdr, err := decodeCompressedStreamHeader(cursor)
		if err != nil {
			return SciencePacket{}, err
		}
		widthBits = streamHdr.ReferenceWidthBits

		priVectors, err = unpackCompressedVectors(cursor, priCount, widthBits)
		if err != nil {
			return SciencePacket{}, err
		}
		secVectors, err = unpackCompressedVectors(cursor, secCount, widthBits)
		if err != nil {
			return SciencePacket{}, err
		}

		if err := applyRangeTrailer(cursor, streamHdr.HasRangeSection, priVectors, secVectors); err != nil {
			return SciencePacket{}, err
		}
	} else {
		widthBits = uncompressedWidthBits

		priVectors, err = unpackUncompressedVectors(cursor, priCount, widthBits)
		if err != nil {
			return SciencePacket{}, err
		}
		secVectors, err = unpackUncompressedVectors(cursor, secCount, widthBits)
		if err != nil {
			return SciencePacket{}, err
		}
	}

	rowCount := priCount
	if secCount > rowCount {
		rowCount = secCount
	}
	pairs := make([]SensorVectorPair, rowCount)
	for i := range pairs {
		if i < len(priVectors) {
			v := priVectors[i]
			pairs[i].Primary = &v
		}
		if i < len(secVectors) {
			v := secVectors[i]
			pairs[i].Secondary = &v
		}
	}

	return SciencePacket{
		Header:             raw.Header,
		ShCoarse:           hdr.ShCoarse,
		PusType:            hdr.PusType,
		PusSubtype:         hdr.PusSubtype,
		Flags:              hdr.Flags,
		PriVecSec:          hdr.PriVecSec,
		SecVecSec:          hdr.SecVecSec,
		PriCoarse:          hdr.PriCoarse,
		PriFine:            hdr.PriFine,
		SecCoarse:          hdr.SecCoarse,
		SecFine:            hdr.SecFine,
		ReferenceWidthBits: widthBits,
		PrimaryIsActive:    primaryActive,
		SecondaryIsActive:  secondaryActive,
		Vectors:            pairs,
	}, nil
}

// Rows expands a decoded science packet into one DecodedRow per vector,
// stamping each with the packet's sequence counter so downstream gap
// checking can detect reordered or duplicated packets.
func (p SciencePacket) Rows() []DecodedRow {
	rows := make([]DecodedRow, len(p.Vectors))
	for i, pair := range p.Vectors {
		rows[i] = DecodedRow{
			SeqCount:             p.Header.SeqCount,
			Primary:              pair.Primary,
			Secondary:            pair.Secondary,
			PriCoarse:            p.PriCoarse,
			PriFine:              p.PriFine,
			SecCoarse:            p.SecCoarse,
			SecFine:              p.SecFine,
			CompressionFlag:      p.Flags.Compressed,
			CompressionWidthBits: p.ReferenceWidthBits,
			PrimaryIsActive:      p.PrimaryIsActive,
			SecondaryIsActive:    p.SecondaryIsActive,
		}
	}
	return rows
}
