package magsci

import (
	"encoding/binary"
	"io"
)

// PrimaryHeader is the fixed 6-byte CCSDS space packet primary header.
type PrimaryHeader struct {
	VersionNumber    uint8
	Type             uint8
	SecHdrFlag       uint8
	Apid             uint16
	SeqFlags         uint8
	SeqCount         uint16
	PacketDataLength uint16 // encoded length minus one, per CCSDS 133.0-B-2
}

const primaryHeaderSize = 6

// DecodePrimaryHeader decodes the 6-byte CCSDS primary header from the front
// of buf.
func DecodePrimaryHeader(buf []byte) (PrimaryHeader, error) {
	if len(buf) < primaryHeaderSize {
		return PrimaryHeader{}, ErrShortHeader
	}
	word0 := binary.BigEndian.Uint16(buf[0:2])
	word1 := binary.BigEndian.Uint16(buf[2:4])
	length := binary.BigEndian.Uint16(buf[4:6])

	return PrimaryHeader{
		VersionNumber:    uint8(word0 >> 13),
		Type:             uint8((word0 >> 12) & 0x1),
		SecHdrFlag:       uint8((word0 >> 11) & 0x1),
		Apid:             word0 & 0x07FF,
		SeqFlags:         uint8(word1 >> 14),
		SeqCount:         word1 & 0x3FFF,
		PacketDataLength: length,
	}, nil
}

// PacketLength is the total length in bytes of the packet including the
// 6-byte primary header, as encoded by PacketDataLength (which stores length
// of the data field, following the header, minus one).
func (h PrimaryHeader) PacketLength() int {
	return primaryHeaderSize + int(h.PacketDataLength) + 1
}

// RawPacket is a single framed CCSDS packet: its primary header plus the
// bytes that follow it (the secondary header and user data field).
type RawPacket struct {
	Header  PrimaryHeader
	Payload []byte
}

// ReadPacket reads one CCSDS packet from stream: the 6-byte primary header,
// then exactly as many payload bytes as the header declares.
func ReadPacket(stream io.Reader) (RawPacket, error) {
	hdrBuf := make([]byte, primaryHeaderSize)
	if _, err := io.ReadFull(stream, hdrBuf); err != nil {
		return RawPacket{}, err
	}
	hdr, err := DecodePrimaryHeader(hdrBuf)
	if err != nil {
		return RawPacket{}, err
	}

	payloadLen := hdr.PacketLength() - primaryHeaderSize
	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(stream, payload); err != nil {
		return RawPacket{}, ErrShortPacket
	}

	return RawPacket{Header: hdr, Payload: payload}, nil
}

// IsMagApid reports whether apid falls within the contiguous MAG instrument
// range.
func IsMagApid(apid uint16) bool {
	return apid >= ApidMagStart && apid <= ApidMagEnd
}

// SciencePacket is a decoded MAG science packet: its CCSDS identity plus the
// secondary-header fields needed to interpret the compressed or uncompressed
// vector payload that follows.
type SciencePacket struct {
	Header     PrimaryHeader
	ShCoarse   uint32 // generic secondary-header coarse time (SHCOARSE)
	PusType    uint8
	PusSubtype uint8
	Flags      PacketFlags
	PriVecSec  int
	SecVecSec  int

	// Per-sensor absolute timestamps, read directly from the secondary
	// header (PRI_COARSETM/PRI_FNTM/SEC_COARSETM/SEC_FNTM) rather than
	// shared with SHCOARSE.
	PriCoarse uint32
	PriFine   uint16
	SecCoarse uint32
	SecFine   uint16

	// ReferenceWidthBits is the reference-sample bit width in effect for
	// this packet: parsed from the compressed-stream header byte when
	// Flags.Compressed is set, or the caller-supplied uncompressed width
	// otherwise.
	ReferenceWidthBits uint8

	PrimaryIsActive   bool
	SecondaryIsActive bool

	Vectors []SensorVectorPair
}

// SensorVectorPair is one vector sample pair decoded from a science packet:
// the primary and secondary sensor readings at the same vector index. Either
// side may be absent if its sensor was inactive for this packet.
type SensorVectorPair struct {
	Primary   *Vector
	Secondary *Vector
}

// scienceHeaderFields holds everything DecodeScienceHeader reads out of the
// secondary header, before the caller folds it into a SciencePacket.
type scienceHeaderFields struct {
	ShCoarse   uint32
	PusType    uint8
	PusSubtype uint8
	Flags      PacketFlags
	PriVecSec  int
	SecVecSec  int
	PriCoarse  uint32
	PriFine    uint16
	SecCoarse  uint32
	SecFine    uint16
}

// DecodeScienceHeader decodes the secondary header of a MAG science packet,
// positioning cursor at the start of the vector payload that follows it. The
// layout is:
//
//	SHCOARSE(32) + spare(1) + PUS version(3) + spare(4) +
//	PUS_STYPE(8) + PUS_SSUBTYPE(8) +
//	COMPRESSION(1) + FOB_ACT(1) + FIB_ACT(1) + PRI_SENS(1) + spare(4) +
//	PRI_VECSEC(3) + SEC_VECSEC(3) + spare(2) +
//	PRI_COARSETM(32) + PRI_FNTM(16) + SEC_COARSETM(32) + SEC_FNTM(16)
func DecodeScienceHeader(cursor *BitCursor) (scienceHeaderFields, error) {
	var h scienceHeaderFields

	shCoarse, err := cursor.ReadBits(32)
	if err != nil {
		return h, err
	}
	h.ShCoarse = shCoarse

	if _, err := cursor.ReadBits(1); err != nil { // spare
		return h, err
	}
	if _, err := cursor.ReadBits(3); err != nil { // PUS version
		return h, err
	}
	if _, err := cursor.ReadBits(4); err != nil { // spare
		return h, err
	}

	pusType, err := cursor.ReadBits(8)
	if err != nil {
		return h, err
	}
	h.PusType = uint8(pusType)

	pusSubtype, err := cursor.ReadBits(8)
	if err != nil {
		return h, err
	}
	h.PusSubtype = uint8(pusSubtype)

	flags, err := decodePacketFlags(cursor)
	if err != nil {
		return h, err
	}
	h.Flags = flags

	if _, err := cursor.ReadBits(4); err != nil { // spare
		return h, err
	}

	priRateCode, err := cursor.ReadBits(3)
	if err != nil {
		return h, err
	}
	secRateCode, err := cursor.ReadBits(3)
	if err != nil {
		return h, err
	}
	if _, err := cursor.ReadBits(2); err != nil { // spare
		return h, err
	}

	h.PriVecSec, err = VectorsPerSecond(int(priRateCode))
	if err != nil {
		return h, err
	}
	h.SecVecSec, err = VectorsPerSecond(int(secRateCode))
	if err != nil {
		return h, err
	}

	priCoarse, err := cursor.ReadBits(32)
	if err != nil {
		return h, err
	}
	h.PriCoarse = priCoarse

	priFine, err := cursor.ReadBits(16)
	if err != nil {
		return h, err
	}
	h.PriFine = uint16(priFine)

	secCoarse, err := cursor.ReadBits(32)
	if err != nil {
		return h, err
	}
	h.SecCoarse = secCoarse

	secFine, err := cursor.ReadBits(16)
	if err != nil {
		return h, err
	}
	h.SecFine = uint16(secFine)

	return h, nil
}
