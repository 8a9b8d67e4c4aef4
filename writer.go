package magsci

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"
)

// ScienceFileWriter accumulates decoded rows for one mode and flushes them
// to a CSV file named after the mode, its rates, and the time the file was
// opened.
type ScienceFileWriter struct {
	config ModeConfig
	opened time.Time
	rows   []DecodedRow
}

// NewScienceFileWriter starts a new output file for config, stamped with
// opened (normally time.Now, passed in explicitly so callers can control it
// in tests).
func NewScienceFileWriter(config ModeConfig, opened time.Time) *ScienceFileWriter {
	return &ScienceFileWriter{config: config, opened: opened}
}

// Filename returns the MAGScience-<mode>-(<primary>,<secondary>)-<seconds>s-
// <timestamp>.csv name this writer will use when flushed.
func (w *ScienceFileWriter) Filename() string {
	return fmt.Sprintf(
		"MAGScience-%s-(%d,%d)-%ds-%s.csv",
		w.config.Mode,
		int(w.config.PrimaryRate),
		int(w.config.SecondaryRate),
		w.config.SecondsPerPacket,
		w.opened.UTC().Format("20060102-15h04m05s"),
	)
}

// Add appends rows as-is; absent sensor readings stay nil and are written as
// empty CSV fields by WriteTo.
func (w *ScienceFileWriter) Add(rows []DecodedRow) {
	w.rows = append(w.rows, rows...)
}

// Len reports the number of buffered rows.
func (w *ScienceFileWriter) Len() int {
	return len(w.rows)
}

// csvHeader is the mandated column schema: a sensor reading absent from the
// source packet is written as an empty field in the matching x/y/z/range
// columns, matching the Python producer's None behaviour.
var csvHeader = []string{
	"sequence",
	"x_pri", "y_pri", "z_pri", "rng_pri",
	"x_sec", "y_sec", "z_sec", "rng_sec",
	"pri_coarse", "pri_fine", "sec_coarse", "sec_fine",
	"compression", "compression_width_bits",
	"pri_active", "sec_active",
}

// vectorFields renders v's x/y/z/range as CSV fields, or four empty fields
// if v is nil (the sensor had no reading in this row).
func vectorFields(v *Vector) [4]string {
	if v == nil {
		return [4]string{"", "", "", ""}
	}
	return [4]string{
		fmt.Sprintf("%d", v.X),
		fmt.Sprintf("%d", v.Y),
		fmt.Sprintf("%d", v.Z),
		fmt.Sprintf("%d", v.Range),
	}
}

// WriteTo serialises the buffered rows as CSV to w.
func (w *ScienceFileWriter) WriteTo(dst io.Writer) error {
	writer := csv.NewWriter(dst)
	defer writer.Flush()

	if err := writer.Write(csvHeader); err != nil {
		return err
	}

	for _, row := range w.rows {
		pri := vectorFields(row.Primary)
		sec := vectorFields(row.Secondary)
		record := []string{
			fmt.Sprintf("%d", row.SeqCount),
			pri[0], pri[1], pri[2], pri[3],
			sec[0], sec[1], sec[2], sec[3],
			fmt.Sprintf("%d", row.PriCoarse),
			fmt.Sprintf("%d", row.PriFine),
			fmt.Sprintf("%d", row.SecCoarse),
			fmt.Sprintf("%d", row.SecFine),
			fmt.Sprintf("%t", row.CompressionFlag),
			fmt.Sprintf("%d", row.CompressionWidthBits),
			fmt.Sprintf("%t", row.PrimaryIsActive),
			fmt.Sprintf("%t", row.SecondaryIsActive),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

// Flush writes the buffered rows to dir/Filename(), refusing to clobber an
// existing file unless force is set.
func (w *ScienceFileWriter) Flush(dir string, force bool) (string, error) {
	path := dir + string(os.PathSeparator) + w.Filename()

	if !force {
		if _, err := os.Stat(path); err == nil {
			return "", ErrOverwriteRefused
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := w.WriteTo(f); err != nil {
		return "", err
	}
	return path, nil
}
