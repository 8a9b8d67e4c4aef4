package magsci

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
)

// Kind is the machine-readable counterpart to a Diagnostic's canonical
// phrase, for callers that want to switch on category rather than parse text.
type Kind int

const (
	KindTooManyRows Kind = iota
	KindVectorsAllZero
	KindNonSequential
	KindPacketIncomplete
	KindExpectedNumeric
	KindSequenceVaryWithinPacket
	KindRangeInvalid
	KindVectorsNonEmpty
	KindPacketTooBig
	KindTimestampTooLate
	KindTimestampTooEarly
	KindTimestampWithinPacket
	KindTimestampFineOutOfRange

	// Decoder-internal kinds, raised while framing or decoding rather than
	// while checking an already-decoded stream for consistency.
	KindTruncatedPayload
	KindUnterminatedFibCode
	KindInvalidCompressionWidth
	KindUnsupportedApid
)

// String names a Kind for use as a summary counter key.
func (k Kind) String() string {
	switch k {
	case KindTooManyRows:
		return "TooManyRows"
	case KindVectorsAllZero:
		return "VectorsAllZero"
	case KindNonSequential:
		return "NonSequential"
	case KindPacketIncomplete:
		return "PacketIncomplete"
	case KindExpectedNumeric:
		return "ExpectedNumeric"
	case KindSequenceVaryWithinPacket:
		return "SequenceVaryWithinPacket"
	case KindRangeInvalid:
		return "RangeInvalid"
	case KindVectorsNonEmpty:
		return "VectorsNonEmpty"
	case KindPacketTooBig:
		return "PacketTooBig"
	case KindTimestampTooLate:
		return "TimestampTooLate"
	case KindTimestampTooEarly:
		return "TimestampTooEarly"
	case KindTimestampWithinPacket:
		return "TimestampWithinPacket"
	case KindTimestampFineOutOfRange:
		return "TimestampFineOutOfRange"
	case KindTruncatedPayload:
		return "TruncatedPayload"
	case KindUnterminatedFibCode:
		return "UnterminatedFibCode"
	case KindInvalidCompressionWidth:
		return "InvalidCompressionWidth"
	case KindUnsupportedApid:
		return "UnsupportedApid"
	default:
		return "Unknown"
	}
}

// Diagnostic is one finding raised while checking a stream of CSV rows for
// internal consistency: a canonical phrase (kept stable for anything that
// matches on message substrings) paired with a Kind for structured handling.
type Diagnostic struct {
	Kind    Kind
	Message string
}

func (d Diagnostic) Error() string {
	return d.Message
}

// absoluteTime converts a coarse/fine timestamp pair into seconds since
// IMAPEpoch.
func absoluteTime(coarse uint32, fine uint16) float64 {
	return float64(coarse) + float64(fine)/float64(MaxFineTime)
}

// csvRow is one parsed row of the reconstructed CSV schema (writer.go's
// csvHeader). A nil vector component pointer means the column was empty
// (the sensor had no reading on this row), not that it failed to parse.
type csvRow struct {
	lineNumber int

	sequence uint16

	priX, priY, priZ *int32
	priRange         *uint8
	secX, secY, secZ *int32
	secRange         *uint8

	priCoarse uint32
	priFine   uint16
	secCoarse uint32
	secFine   uint16

	compression          bool
	compressionWidthBits uint8
	priActive            bool
	secActive            bool
}

// parseRequiredInt parses a mandatory integer column. An empty or
// non-numeric value substitutes 0 and raises ExpectedNumeric, per §4.8's
// "non-numeric/out-of-range -> substitute 0, continue" policy.
func parseRequiredInt(name, raw string, line int) (int64, *Diagnostic) {
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &Diagnostic{
			Kind:    KindExpectedNumeric,
			Message: fmt.Sprintf("%s %d, column %s to be numeric", phraseExpectedNumeric, line, name),
		}
	}
	return v, nil
}

// parseOptionalInt parses an optional integer column. An empty string means
// the sensor had no reading and is reported as absent, not an error. A
// non-empty, non-numeric value substitutes 0 and raises ExpectedNumeric.
func parseOptionalInt(name, raw string, line int) (value int64, present bool, diag *Diagnostic) {
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, true, &Diagnostic{
			Kind:    KindExpectedNumeric,
			Message: fmt.Sprintf("%s %d, column %s to be numeric", phraseExpectedNumeric, line, name),
		}
	}
	return v, true, nil
}

// parseCSVRow parses one reconstructed CSV row, given a column-name-to-value
// map built from the header, returning the row plus any parse diagnostics.
func parseCSVRow(line int, cols map[string]string) (csvRow, []Diagnostic) {
	var row csvRow
	var diags []Diagnostic

	note := func(d *Diagnostic) {
		if d != nil {
			diags = append(diags, *d)
		}
	}

	seq, d := parseRequiredInt("sequence", cols["sequence"], line)
	note(d)
	row.sequence = uint16(seq)

	readVec := func(xName, yName, zName, rngName string) (x, y, z *int32, rng *uint8) {
		xv, present, d := parseOptionalInt(xName, cols[xName], line)
		note(d)
		if !present {
			return nil, nil, nil, nil
		}
		xi := int32(xv)
		yv, _, d := parseOptionalInt(yName, cols[yName], line)
		note(d)
		yi := int32(yv)
		zv, _, d := parseOptionalInt(zName, cols[zName], line)
		note(d)
		zi := int32(zv)

		rv, rpresent, d := parseOptionalInt(rngName, cols[rngName], line)
		note(d)
		var rp *uint8
		if rpresent {
			if rv < 0 || rv > 3 {
				diags = append(diags, Diagnostic{
					Kind:    KindRangeInvalid,
					Message: fmt.Sprintf("%s: line %d", phraseRangeInvalid, line),
				})
				rv = 0
			}
			r := uint8(rv)
			rp = &r
		}
		return &xi, &yi, &zi, rp
	}

	row.priX, row.priY, row.priZ, row.priRange = readVec("x_pri", "y_pri", "z_pri", "rng_pri")
	row.secX, row.secY, row.secZ, row.secRange = readVec("x_sec", "y_sec", "z_sec", "rng_sec")

	priCoarse, d := parseRequiredInt("pri_coarse", cols["pri_coarse"], line)
	note(d)
	row.priCoarse = uint32(priCoarse)

	priFine, d := parseRequiredInt("pri_fine", cols["pri_fine"], line)
	note(d)
	if priFine < 0 || priFine > MaxFineTime {
		diags = append(diags, Diagnostic{Kind: KindTimestampFineOutOfRange, Message: phraseTimestampFine})
		priFine = 0
	}
	row.priFine = uint16(priFine)

	secCoarse, d := parseRequiredInt("sec_coarse", cols["sec_coarse"], line)
	note(d)
	row.secCoarse = uint32(secCoarse)

	secFine, d := parseRequiredInt("sec_fine", cols["sec_fine"], line)
	note(d)
	if secFine < 0 || secFine > MaxFineTime {
		diags = append(diags, Diagnostic{Kind: KindTimestampFineOutOfRange, Message: phraseTimestampFine})
		secFine = 0
	}
	row.secFine = uint16(secFine)

	row.compression, _ = strconv.ParseBool(cols["compression"])
	widthBits, d := parseRequiredInt("compression_width_bits", cols["compression_width_bits"], line)
	note(d)
	row.compressionWidthBits = uint8(widthBits)
	row.priActive, _ = strconv.ParseBool(cols["pri_active"])
	row.secActive, _ = strconv.ParseBool(cols["sec_active"])

	row.lineNumber = line
	return row, diags
}

// CheckerState is the per-packet state a CSV gap check walks forward as it
// streams rows: which rows belong to the packet currently open, what each
// sensor's last-seen time was, and the running packet/row counters needed
// for the final "Gap checker completed successfully" summary line.
type CheckerState struct {
	cfg ModeConfig

	haveOpenPacket  bool
	packetSeq       uint16
	packetStartLine int
	rowsInPacket    int
	tooManyEmitted  bool
	priSeen         int
	secSeen         int

	priPacketTime    float64
	secPacketTime    float64
	havePriInPacket  bool
	haveSecInPacket  bool
	havePrevPriTime  bool
	havePrevSecTime  bool
	prevPriTime      float64
	prevSecTime      float64

	packetsChecked int
	rowsChecked    int
}

// NewCheckerState returns a CheckerState bound to cfg, the resolved
// ModeConfig whose per-sensor vector counts, row count, sequence step and
// tolerance govern every check below.
func NewCheckerState(cfg ModeConfig) *CheckerState {
	return &CheckerState{cfg: cfg}
}

func (s *CheckerState) timestampPrecision() int {
	if s.cfg.Mode == ModeIAlirt {
		return 3
	}
	return 5
}

// closePacket finalises the currently open packet: it flags PacketIncomplete
// if either sensor saw fewer vectors than expected. PacketTooBig is not
// raised: a reading on a row past its sensor's expected count raises
// VectorsNonEmpty in processRow and is not counted, so neither count can
// exceed its expectation. Called both on a sequence transition and at
// end-of-stream.
func (s *CheckerState) closePacket() []Diagnostic {
	if !s.haveOpenPacket {
		return nil
	}
	var diags []Diagnostic
	if s.priSeen < s.cfg.PrimaryVectorsPerPacket || s.secSeen < s.cfg.SecondaryVectorsPerPacket {
		diags = append(diags, Diagnostic{
			Kind: KindPacketIncomplete,
			Message: fmt.Sprintf("%s: sequence %d, expected primary=%d/secondary=%d, got primary=%d/secondary=%d",
				phrasePacketIncomplete, s.packetSeq, s.cfg.PrimaryVectorsPerPacket, s.cfg.SecondaryVectorsPerPacket, s.priSeen, s.secSeen),
		})
	}
	s.packetsChecked++
	return diags
}

// checkSequenceTransition validates the sequence counter on the first row of
// a new packet against the packet that just closed.
func (s *CheckerState) checkSequenceTransition(newSeq uint16) *Diagnostic {
	if s.rowsInPacket < s.cfg.RowsPerPacket {
		return &Diagnostic{
			Kind:    KindSequenceVaryWithinPacket,
			Message: fmt.Sprintf("%s: sequence changed from %d to %d after only %d of %d expected rows", phraseSequenceVary, s.packetSeq, newSeq, s.rowsInPacket, s.cfg.RowsPerPacket),
		}
	}
	expected := (s.packetSeq + s.cfg.SequenceCounterStep) % SequenceCounterMod
	if newSeq != expected {
		return &Diagnostic{
			Kind:    KindNonSequential,
			Message: fmt.Sprintf("%s: expected %d, got %d", phraseNonSequential, expected, newSeq),
		}
	}
	return nil
}

// checkBetweenPacketTiming validates the gap between a sensor's time in the
// packet that just closed and its time in the packet now opening.
func (s *CheckerState) checkBetweenPacketTiming(sensor string, have bool, prev, cur float64) *Diagnostic {
	if !have {
		return nil
	}
	delta := cur - prev
	nominal := float64(s.cfg.SecondsPerPacket)
	if math.Abs(delta-nominal) <= s.cfg.Tolerance {
		return nil
	}
	prec := s.timestampPrecision()
	if delta > nominal {
		return &Diagnostic{
			Kind: KindTimestampTooLate,
			Message: fmt.Sprintf("%s timestamp is %.*fs %s %.*fs)", sensor, prec, delta, phraseTimestampTooLate, prec, nominal),
		}
	}
	return &Diagnostic{
		Kind: KindTimestampTooEarly,
		Message: fmt.Sprintf("%s timestamp is %.*fs %s %.*fs)", sensor, prec, delta, phraseTimestampTooEarly, prec, nominal),
	}
}

// processRow advances the state machine by one CSV row and returns whatever
// diagnostics it raised, in the order described by §4.8.
func (s *CheckerState) processRow(row csvRow) []Diagnostic {
	var diags []Diagnostic

	newPacket := !s.haveOpenPacket || row.sequence != s.packetSeq
	if newPacket {
		if s.haveOpenPacket {
			if d := s.checkSequenceTransition(row.sequence); d != nil {
				diags = append(diags, *d)
			}
			diags = append(diags, s.closePacket()...)

			if s.havePriInPacket {
				s.havePrevPriTime, s.prevPriTime = true, s.priPacketTime
			}
			if s.haveSecInPacket {
				s.havePrevSecTime, s.prevSecTime = true, s.secPacketTime
			}
		}
		s.haveOpenPacket = true
		s.packetSeq = row.sequence
		s.packetStartLine = row.lineNumber
		s.rowsInPacket = 0
		s.tooManyEmitted = false
		s.priSeen = 0
		s.secSeen = 0
		s.havePriInPacket = false
		s.haveSecInPacket = false
	}

	s.rowsInPacket++
	s.rowsChecked++

	if s.rowsInPacket > s.cfg.RowsPerPacket && !s.tooManyEmitted {
		diags = append(diags, Diagnostic{
			Kind:    KindTooManyRows,
			Message: fmt.Sprintf("%s: sequence %d exceeds %d rows at line %d", phraseTooManyRows, s.packetSeq, s.cfg.RowsPerPacket, row.lineNumber),
		})
		s.tooManyEmitted = true
	}

	expectPri := s.rowsInPacket <= s.cfg.PrimaryVectorsPerPacket
	expectSec := s.rowsInPacket <= s.cfg.SecondaryVectorsPerPacket

	priPresent := row.priX != nil
	secPresent := row.secX != nil

	switch {
	case expectPri && priPresent:
		s.priSeen++
		if *row.priX == 0 && *row.priY == 0 && *row.priZ == 0 {
			diags = append(diags, Diagnostic{
				Kind:    KindVectorsAllZero,
				Message: fmt.Sprintf("%s for primary on line number %d, sequence count: %d", phraseVectorsAllZero, row.lineNumber, row.sequence),
			})
		}
		priTime := absoluteTime(row.priCoarse, row.priFine)
		if s.havePriInPacket && priTime != s.priPacketTime {
			diags = append(diags, Diagnostic{Kind: KindTimestampWithinPacket, Message: phraseTimestampWithinPacket})
		}
		if !s.havePriInPacket {
			s.priPacketTime = priTime
			s.havePriInPacket = true
			if d := s.checkBetweenPacketTiming("primary", s.havePrevPriTime, s.prevPriTime, priTime); d != nil {
				diags = append(diags, *d)
			}
		}
	case !expectPri && priPresent:
		diags = append(diags, Diagnostic{
			Kind:    KindVectorsNonEmpty,
			Message: fmt.Sprintf("%s: primary on line number %d, sequence count: %d", phraseVectorsNonEmpty, row.lineNumber, row.sequence),
		})
	}

	switch {
	case expectSec && secPresent:
		s.secSeen++
		if *row.secX == 0 && *row.secY == 0 && *row.secZ == 0 {
			diags = append(diags, Diagnostic{
				Kind:    KindVectorsAllZero,
				Message: fmt.Sprintf("%s for secondary on line number %d, sequence count: %d", phraseVectorsAllZero, row.lineNumber, row.sequence),
			})
		}
		secTime := absoluteTime(row.secCoarse, row.secFine)
		if s.haveSecInPacket && secTime != s.secPacketTime {
			diags = append(diags, Diagnostic{Kind: KindTimestampWithinPacket, Message: phraseTimestampWithinPacket})
		}
		if !s.haveSecInPacket {
			s.secPacketTime = secTime
			s.haveSecInPacket = true
			if d := s.checkBetweenPacketTiming("secondary", s.havePrevSecTime, s.prevSecTime, secTime); d != nil {
				diags = append(diags, *d)
			}
		}
	case !expectSec && secPresent:
		diags = append(diags, Diagnostic{
			Kind:    KindVectorsNonEmpty,
			Message: fmt.Sprintf("%s: secondary on line number %d, sequence count: %d", phraseVectorsNonEmpty, row.lineNumber, row.sequence),
		})
	}

	return diags
}

// finish closes out whatever packet is still open at end-of-stream.
func (s *CheckerState) finish() []Diagnostic {
	return s.closePacket()
}

// CheckReport is the outcome of running a CSV gap check end to end.
type CheckReport struct {
	Diagnostics    []Diagnostic
	PacketsChecked int
	RowsChecked    int
}

// Clean reports whether the check found nothing to flag.
func (r CheckReport) Clean() bool {
	return len(r.Diagnostics) == 0
}

// Message renders the S2-style human summary line for this report.
func (r CheckReport) Message() string {
	return fmt.Sprintf("Gap checker completed successfully. Checked %d packet(s) across %d rows of data.", r.PacketsChecked, r.RowsChecked)
}

// CheckCSV streams the reconstructed CSV at path row by row through cfg's
// gap checks, returning every diagnostic raised plus the packet/row totals
// used in the success summary line.
func CheckCSV(path string, cfg ModeConfig) (CheckReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return CheckReport{}, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return CheckReport{}, err
	}
	colIndex := make(map[string]int, len(header))
	for i, name := range header {
		colIndex[name] = i
	}

	state := NewCheckerState(cfg)
	var report CheckReport

	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return CheckReport{}, err
		}
		line++

		cols := make(map[string]string, len(colIndex))
		for name, idx := range colIndex {
			if idx < len(record) {
				cols[name] = record[idx]
			}
		}

		row, parseDiags := parseCSVRow(line, cols)
		report.Diagnostics = append(report.Diagnostics, parseDiags...)
		report.Diagnostics = append(report.Diagnostics, state.processRow(row)...)
	}

	report.Diagnostics = append(report.Diagnostics, state.finish()...)
	report.PacketsChecked = state.packetsChecked
	report.RowsChecked = state.rowsChecked
	return report, nil
}
