package magsci

import (
	"strings"
	"testing"
	"time"
)

func TestScienceFileWriterFilename(t *testing.T) {
	cfg, err := NewModeConfig(ModeNormalE8, -1)
	if err != nil {
		t.Fatal(err)
	}
	opened := time.Date(2026, 7, 29, 14, 30, 0, 0, time.UTC)
	w := NewScienceFileWriter(cfg, opened)

	name := w.Filename()
	if !strings.HasPrefix(name, "MAGScience-normalE8-(8,8)-4s-20260729-14h30m00s") {
		t.Errorf("filename = %q, unexpected", name)
	}
}

func TestScienceFileWriterWriteTo(t *testing.T) {
	cfg, err := NewModeConfig(ModeNormalE8, -1)
	if err != nil {
		t.Fatal(err)
	}
	w := NewScienceFileWriter(cfg, time.Now())

	primary := Vector{X: 1, Y: 2, Z: 3, Range: 2}
	w.Add([]DecodedRow{{
		SeqCount:  1,
		Primary:   &primary,
		Secondary: nil,
		PriCoarse: 10,
		PriFine:   0,
		SecCoarse: 0,
		SecFine:   0,
	}})

	var buf strings.Builder
	if err := w.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if !strings.Contains(out, "pri_coarse") {
		t.Error("expected a CSV header row naming pri_coarse")
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected a header and one data row, got %d lines", len(lines))
	}

	record := strings.Split(lines[1], ",")
	// sequence,x_pri,y_pri,z_pri,rng_pri,x_sec,y_sec,z_sec,rng_sec,...
	if record[0] != "1" || record[1] != "1" || record[2] != "2" || record[3] != "3" || record[4] != "2" {
		t.Errorf("primary fields = %v, unexpected", record[:5])
	}
	if record[5] != "" || record[6] != "" || record[7] != "" || record[8] != "" {
		t.Errorf("absent secondary fields = %v, want all empty", record[5:9])
	}
}
