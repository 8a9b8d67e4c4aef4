package magsci

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeLog(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestSummariseFolderPassedAndFailed(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, "clean.log", "Gap checker completed successfully. Checked 2 packet(s) across 4 rows of data.\n")
	writeLog(t, dir, "dirty.log", "Non sequential packet: expected 2, got 5\nVectors are all zero for primary on line number 3, sequence count: 1\n")

	summary, err := SummariseFolder(dir, time.Date(2026, 7, 29, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}

	if len(summary.Passed) != 1 || summary.Passed[0] != "clean.log" {
		t.Errorf("Passed = %v, want [clean.log]", summary.Passed)
	}
	if len(summary.Failed) != 1 || summary.Failed[0] != "dirty.log" {
		t.Errorf("Failed = %v, want [dirty.log]", summary.Failed)
	}
	if summary.GapCheckResult() != "FAILED" {
		t.Errorf("GapCheckResult() = %q, want FAILED", summary.GapCheckResult())
	}
	if summary.Counts[KindNonSequential.String()] != 1 {
		t.Errorf("NonSequential count = %d, want 1", summary.Counts[KindNonSequential.String()])
	}
	if summary.Counts[KindVectorsAllZero.String()] != 1 {
		t.Errorf("VectorsAllZero count = %d, want 1", summary.Counts[KindVectorsAllZero.String()])
	}
}

func TestSummariseFolderAllPassed(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, "a.log", "Gap checker completed successfully. Checked 1 packet(s) across 2 rows of data.\n")

	summary, err := SummariseFolder(dir, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if summary.GapCheckResult() != "PASSED" {
		t.Errorf("GapCheckResult() = %q, want PASSED", summary.GapCheckResult())
	}
	if summary.Empty() {
		t.Error("Empty() = true, want false for a folder with one log")
	}
}

func TestSummariseFolderEmpty(t *testing.T) {
	dir := t.TempDir()

	summary, err := SummariseFolder(dir, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if !summary.Empty() {
		t.Error("Empty() = false, want true for a folder with no logs")
	}
}

func TestRunSummaryMarshalJSON(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, "dirty.log", "Packet has too many rows: sequence 9 exceeds 2 rows at line 10\n")

	summary, err := SummariseFolder(dir, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}

	data, err := summary.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}

	out := string(data)
	for _, want := range []string{`"Folder"`, `"Generated"`, `"Failed"`, `"Passed"`, `"Gap check result":"FAILED"`, `"TooManyRows":1`} {
		if !strings.Contains(out, want) {
			t.Errorf("JSON output %q missing %q", out, want)
		}
	}
}
