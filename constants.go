package magsci

import "time"

// CCSDS APID routing. MAG occupies the contiguous range ApidMagStart..ApidMagEnd;
// science packets use one of two specific APIDs within that range depending on mode.
const (
	ApidMagStart     = 0x3E0
	ApidMagEnd       = 0x45F
	ApidScienceNorm  = 0x41C
	ApidScienceBurst = 0x42C
)

// I-ALiRT real-time APIDs. These carry a fixed-offset packing unrelated to the
// science compressed/uncompressed vector codec; see ialirt.go.
const (
	ApidIalirtMag        = 0x3F0
	ApidIalirtSpacecraft = 0x3F1
)

// IMAPEpoch is the mission epoch. Absolute packet times are
// IMAPEpoch + coarse + fine/MaxFineTime seconds.
var IMAPEpoch = time.Date(2010, time.January, 1, 0, 0, 0, 0, time.UTC)

const (
	MaxFineTime          = 65535 // sub-second scale for coarse+fine time: coarse + fine/65535
	SequenceCounterWidth = 14
	SequenceCounterMod   = 1 << SequenceCounterWidth // 16384

	MaxCompressionWidth  = 20
	AxisCount            = 3
	HDRVectorWidthThresh = AxisCount * MaxCompressionWidth // 60

	DefaultToleranceScience = 0.00059 // 7.5% of the 128Hz vector cadence
	DefaultToleranceIALiRT  = 0.05

	// ArchiveTileExtent is the tile extent (in coarse-time seconds) used when
	// creating a new TileDB archive array.
	ArchiveTileExtent = 3600
)

// Primary-sensor selector values carried by the PRI_SENS packet bit.
const (
	PrimarySensorIsFOB = 0
	PrimarySensorIsFIB = 1
)

// ratesPerSecond is the lookup for the 3-bit PRI_VECSEC/SEC_VECSEC rate codes.
var ratesPerSecond = [8]int{1, 2, 4, 8, 16, 32, 64, 128}

// VectorsPerSecond maps a 3-bit rate code to its vectors/second cadence.
func VectorsPerSecond(rateCode int) (int, error) {
	if rateCode < 0 || rateCode >= len(ratesPerSecond) {
		return 0, ErrInvalidRateCode
	}
	return ratesPerSecond[rateCode], nil
}

// FibonacciSequence is the standard Fibonacci sequence (starting 1,2,3,5,...)
// used for Zeckendorf decomposition, extended to F[45] so any 32-bit residual
// (after the +1 bias and zig-zag mapping) decomposes within the table.
var FibonacciSequence = [46]uint64{
	1, 2, 3, 5, 8, 13, 21, 34, 55, 89,
	144, 233, 377, 610, 987, 1597, 2584, 4181, 6765, 10946,
	17711, 28657, 46368, 75025, 121393, 196418, 317811, 514229, 832040, 1346269,
	2178309, 3524578, 5702887, 9227465, 14930352, 24157817, 39088169, 63245986, 102334155, 165580141,
	267914296, 433494437, 701408733, 1134903170, 1836311903, 2971215073,
}

// Canonical diagnostic phrases, preserved verbatim for backward-compatible
// substring classification. Kind (in checker.go) carries the machine-readable
// counterpart for each.
const (
	phraseTooManyRows      = "Packet has too many rows"
	phraseVectorsAllZero   = "Vectors are all zero"
	phraseNonSequential    = "Non sequential packet"
	phrasePacketIncomplete = "packet is incomplete"
	phraseExpectedNumeric  = "Expected line"
	phraseSequenceVary     = "Sequence numbers vary within packet"
	phraseRangeInvalid     = "Range value is out of range"
	phraseVectorsNonEmpty  = "Vectors are non-empty"
	phrasePacketTooBig     = "packet is too big"
	phraseTimestampFine    = "Timestamp fine value is out of range"

	phraseTimestampTooLate     = "after the previous packets (more than"
	phraseTimestampTooEarly    = "after the previous packets (less than"
	phraseTimestampWithinPacket = "timestamp changed within a packet"
)
