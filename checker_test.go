package magsci

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// testModeConfig is a small, hand-built ModeConfig (2 rows/packet, 1s
// cadence) that keeps checker test fixtures short.
func testModeConfig() ModeConfig {
	return ModeConfig{
		Mode:                      ModeNormalE8,
		Apid:                      ApidScienceNorm,
		PrimaryRate:               2,
		SecondaryRate:             2,
		SecondsPerPacket:          1,
		PrimaryVectorsPerPacket:   2,
		SecondaryVectorsPerPacket: 2,
		RowsPerPacket:             2,
		Tolerance:                 0.01,
		SequenceCounterStep:       1,
	}
}

// writeCSV writes header csvHeader plus rows to a temp file and returns its path.
func writeCSV(t *testing.T, rows [][]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "capture.csv")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	lines := []string{strings.Join(csvHeader, ",")}
	for _, r := range rows {
		lines = append(lines, strings.Join(r, ","))
	}
	if _, err := f.WriteString(strings.Join(lines, "\n") + "\n"); err != nil {
		t.Fatal(err)
	}
	return path
}

// row builds one CSV data row matching csvHeader's 17 columns.
func row(seq int, priCoarse, priFine, secCoarse, secFine int) []string {
	return []string{
		itoa(seq),
		"1", "2", "3", "0",
		"4", "5", "6", "0",
		itoa(priCoarse), itoa(priFine), itoa(secCoarse), itoa(secFine),
		"false", "20",
		"true", "true",
	}
}

func itoa(v int) string {
	return strconv.Itoa(v)
}

func TestCheckCSVCleanRun(t *testing.T) {
	rows := [][]string{
		row(1, 1000, 0, 1000, 0),
		row(1, 1000, 0, 1000, 0),
		row(2, 1001, 0, 1001, 0),
		row(2, 1001, 0, 1001, 0),
	}
	path := writeCSV(t, rows)

	report, err := CheckCSV(path, testModeConfig())
	if err != nil {
		t.Fatal(err)
	}
	if !report.Clean() {
		t.Errorf("expected a clean report, got diagnostics: %+v", report.Diagnostics)
	}
	if report.PacketsChecked != 2 {
		t.Errorf("PacketsChecked = %d, want 2", report.PacketsChecked)
	}
	if report.RowsChecked != 4 {
		t.Errorf("RowsChecked = %d, want 4", report.RowsChecked)
	}
}

func TestCheckCSVNonSequentialPacket(t *testing.T) {
	rows := [][]string{
		row(1, 1000, 0, 1000, 0),
		row(1, 1000, 0, 1000, 0),
		row(5, 1001, 0, 1001, 0),
		row(5, 1001, 0, 1001, 0),
	}
	path := writeCSV(t, rows)

	report, err := CheckCSV(path, testModeConfig())
	if err != nil {
		t.Fatal(err)
	}
	if report.Clean() {
		t.Fatal("expected a NonSequential diagnostic")
	}
	found := false
	for _, d := range report.Diagnostics {
		if d.Kind == KindNonSequential {
			found = true
		}
	}
	if !found {
		t.Errorf("diagnostics = %+v, want a KindNonSequential entry", report.Diagnostics)
	}
}

func TestCheckCSVSequenceVariesWithinPacket(t *testing.T) {
	rows := [][]string{
		row(1, 1000, 0, 1000, 0),
		row(2, 1000, 0, 1000, 0), // only 1 of 2 expected rows before sequence changes
		row(2, 1001, 0, 1001, 0),
	}
	path := writeCSV(t, rows)

	report, err := CheckCSV(path, testModeConfig())
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, d := range report.Diagnostics {
		if d.Kind == KindSequenceVaryWithinPacket {
			found = true
		}
	}
	if !found {
		t.Errorf("diagnostics = %+v, want a KindSequenceVaryWithinPacket entry", report.Diagnostics)
	}
}

func TestCheckCSVVectorsAllZero(t *testing.T) {
	rows := [][]string{
		{
			"1",
			"0", "0", "0", "0",
			"4", "5", "6", "0",
			"1000", "0", "1000", "0",
			"false", "20",
			"true", "true",
		},
		row(1, 1000, 0, 1000, 0),
	}
	path := writeCSV(t, rows)

	report, err := CheckCSV(path, testModeConfig())
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, d := range report.Diagnostics {
		if d.Kind == KindVectorsAllZero {
			found = true
		}
	}
	if !found {
		t.Errorf("diagnostics = %+v, want a KindVectorsAllZero entry", report.Diagnostics)
	}
}

func TestCheckCSVPacketIncomplete(t *testing.T) {
	rows := [][]string{
		row(1, 1000, 0, 1000, 0), // only 1 of 2 expected rows, then EOF
	}
	path := writeCSV(t, rows)

	report, err := CheckCSV(path, testModeConfig())
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, d := range report.Diagnostics {
		if d.Kind == KindPacketIncomplete {
			found = true
		}
	}
	if !found {
		t.Errorf("diagnostics = %+v, want a KindPacketIncomplete entry", report.Diagnostics)
	}
}

func TestCheckCSVExpectedNumeric(t *testing.T) {
	rows := [][]string{
		{
			"not-a-number",
			"1", "2", "3", "0",
			"4", "5", "6", "0",
			"1000", "0", "1000", "0",
			"false", "20",
			"true", "true",
		},
	}
	path := writeCSV(t, rows)

	report, err := CheckCSV(path, testModeConfig())
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, d := range report.Diagnostics {
		if d.Kind == KindExpectedNumeric {
			found = true
		}
	}
	if !found {
		t.Errorf("diagnostics = %+v, want a KindExpectedNumeric entry", report.Diagnostics)
	}
}
