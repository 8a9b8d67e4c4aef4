package magsci

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

// Mode identifies one of the MAG science telemetry modes. Each named mode
// maps to a fixed pair of primary/secondary sensor sample rates, a packet
// cadence, and a sequence-counter step; "auto" defers those to whatever a
// previously written output filename encodes.
type Mode string

const (
	ModeNormalE8 Mode = "normalE8"
	ModeNormalE2 Mode = "normalE2"
	ModeBurst128 Mode = "burst128"
	ModeBurst64  Mode = "burst64"
	ModeIAlirt   Mode = "i_alirt"
	ModeAuto     Mode = "auto"
)

// modeRow is one row of the published mode table: primary/secondary
// vectors-per-second, the packet cadence in seconds, the sequence-counter
// step between consecutive packets, and the apid its packets carry.
type modeRow struct {
	PrimaryRate         float64
	SecondaryRate       float64
	SecondsPerPacket    int
	SequenceCounterStep uint16
	Apid                uint16
}

// modeTable is the canonical mode table. "auto" has no row here: its
// rates/cadence come from the filename being parsed, not a fixed lookup.
var modeTable = map[Mode]modeRow{
	ModeNormalE8: {PrimaryRate: 8, SecondaryRate: 8, SecondsPerPacket: 4, SequenceCounterStep: 1, Apid: ApidScienceNorm},
	ModeNormalE2: {PrimaryRate: 2, SecondaryRate: 2, SecondsPerPacket: 8, SequenceCounterStep: 1, Apid: ApidScienceNorm},
	ModeBurst128: {PrimaryRate: 128, SecondaryRate: 128, SecondsPerPacket: 2, SequenceCounterStep: 1, Apid: ApidScienceBurst},
	ModeBurst64:  {PrimaryRate: 64, SecondaryRate: 64, SecondsPerPacket: 2, SequenceCounterStep: 1, Apid: ApidScienceBurst},
	ModeIAlirt:   {PrimaryRate: 0.25, SecondaryRate: 0.25, SecondsPerPacket: 4, SequenceCounterStep: 4, Apid: ApidIalirtMag},
}

// ModeConfig ties together the telemetry mode, its sensor rates, and the
// derived per-packet expectations a gap checker validates against.
type ModeConfig struct {
	Mode             Mode
	Apid             uint16
	PrimaryRate      float64
	SecondaryRate    float64
	SecondsPerPacket int

	PrimaryVectorsPerPacket   int
	SecondaryVectorsPerPacket int
	RowsPerPacket             int

	Tolerance           float64
	SequenceCounterStep uint16
}

// resolveTolerance implements the §4.7 tolerance rule: -1 selects the
// mode-appropriate default, any other non-negative value overrides it, and
// any other negative value is rejected.
func resolveTolerance(mode Mode, tolerance float64) (float64, error) {
	if tolerance == -1 {
		if mode == ModeIAlirt {
			return DefaultToleranceIALiRT, nil
		}
		return DefaultToleranceScience, nil
	}
	if tolerance < 0 {
		return 0, ErrInvalidTolerance
	}
	return tolerance, nil
}

func buildModeConfig(mode Mode, row modeRow, tolerance float64) (ModeConfig, error) {
	resolved, err := resolveTolerance(mode, tolerance)
	if err != nil {
		return ModeConfig{}, err
	}
	primaryPerPacket := int(math.Round(row.PrimaryRate * float64(row.SecondsPerPacket)))
	secondaryPerPacket := int(math.Round(row.SecondaryRate * float64(row.SecondsPerPacket)))
	rowsPerPacket := primaryPerPacket
	if secondaryPerPacket > rowsPerPacket {
		rowsPerPacket = secondaryPerPacket
	}
	return ModeConfig{
		Mode:                      mode,
		Apid:                      row.Apid,
		PrimaryRate:               row.PrimaryRate,
		SecondaryRate:             row.SecondaryRate,
		SecondsPerPacket:          row.SecondsPerPacket,
		PrimaryVectorsPerPacket:   primaryPerPacket,
		SecondaryVectorsPerPacket: secondaryPerPacket,
		RowsPerPacket:             rowsPerPacket,
		Tolerance:                 resolved,
		SequenceCounterStep:       row.SequenceCounterStep,
	}, nil
}

// NewModeConfig builds a ModeConfig from an explicit mode tag, resolving
// that mode's fixed rates, cadence and sequence step from modeTable.
// tolerance is -1 to take the mode's default or a non-negative override.
func NewModeConfig(mode Mode, tolerance float64) (ModeConfig, error) {
	row, ok := modeTable[mode]
	if !ok {
		return ModeConfig{}, ErrUnknownMode
	}
	return buildModeConfig(mode, row, tolerance)
}

// filenamePattern matches the MAGScience output naming convention:
// MAG<kind>-<mode>-(<primary>,<secondary>)-<seconds>s-<date>-<time>, case
// insensitive, per §4.7.
var filenamePattern = regexp.MustCompile(`(?i)MAG\w+-(\w+)-\(([0-9]+),([0-9]+)\)-([0-9]+)s-\w+-\w+`)

// ModeConfigFromFilename builds a ModeConfig by parsing the mode, rates and
// packet cadence out of a previously written output filename, for tools
// that need to reopen or re-derive settings from an existing CSV without
// access to the packet stream that produced it. The mode name's table row
// supplies tolerance and sequence-counter step; the filename's own numbers
// are trusted for the rates and cadence.
func ModeConfigFromFilename(name string) (ModeConfig, error) {
	m := filenamePattern.FindStringSubmatch(name)
	if m == nil {
		return ModeConfig{}, ErrFilenameNotParsable
	}

	var mode Mode
	for candidate := range modeTable {
		if strings.EqualFold(string(candidate), m[1]) {
			mode = candidate
		}
	}
	var primary, secondary, seconds int
	if _, err := fmt.Sscanf(m[2], "%d", &primary); err != nil {
		return ModeConfig{}, ErrFilenameNotParsable
	}
	if _, err := fmt.Sscanf(m[3], "%d", &secondary); err != nil {
		return ModeConfig{}, ErrFilenameNotParsable
	}
	if _, err := fmt.Sscanf(m[4], "%d", &seconds); err != nil {
		return ModeConfig{}, ErrFilenameNotParsable
	}

	row, ok := modeTable[mode]
	if !ok {
		return ModeConfig{}, ErrUnknownMode
	}
	row.PrimaryRate = float64(primary)
	row.SecondaryRate = float64(secondary)
	row.SecondsPerPacket = seconds

	return buildModeConfig(mode, row, -1)
}
