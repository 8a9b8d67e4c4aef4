package magsci

import (
	"errors"
	"io"
	"os"
)

// CaptureFile wraps an opened packet stream, tracking its source location
// and size so Info can report them and restore the stream position once
// finished.
type CaptureFile struct {
	Uri      string
	filesize int64
	file     *os.File
	Stream
}

// OpenCapture opens a raw CCSDS packet stream for reading, buffering it
// fully into memory when inMemory is set.
func OpenCapture(uri string, inMemory bool) (*CaptureFile, error) {
	f, err := os.Open(uri)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	size := info.Size()

	stream, err := LoadStream(f, size, inMemory)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &CaptureFile{Uri: uri, filesize: size, file: f, Stream: stream}, nil
}

// Close releases the underlying file handle.
func (c *CaptureFile) Close() error {
	return c.file.Close()
}

// FileInfo is the summary produced by walking a capture file end to end:
// the decoded rows and the packet-level quality summary. Gap checking (C8)
// runs separately over the written CSV — see CheckCSV — since §4.8 defines
// it as a check over the reconstructed tabular output, not the in-memory
// decode.
type FileInfo struct {
	Uri     string
	Size    int64
	Rows    []DecodedRow
	Quality QualityInfo
}

// Info walks every CCSDS packet in the capture and decodes MAG science
// packets matching cfg's apid into rows, building a FileInfo summarising the
// whole file. Non-MAG packets, and MAG packets for a different apid, are
// skipped.
func (c *CaptureFile) Info(cfg ModeConfig, uncompressedWidthBits uint8) (FileInfo, error) {
	originalPos, err := Tell(c.Stream)
	if err != nil {
		return FileInfo{}, err
	}
	if _, err := c.Stream.Seek(0, io.SeekStart); err != nil {
		return FileInfo{}, err
	}

	var rows []DecodedRow
	var packets []SciencePacket

	for {
		raw, err := ReadPacket(c.Stream)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return FileInfo{}, err
		}

		if !IsMagApid(raw.Header.Apid) {
			continue
		}
		if raw.Header.Apid != cfg.Apid {
			continue
		}

		packet, err := DecodeSciencePacket(raw, cfg.SecondsPerPacket, uncompressedWidthBits)
		if err != nil {
			continue
		}
		packets = append(packets, packet)
		rows = append(rows, packet.Rows()...)
	}

	if _, err := c.Stream.Seek(originalPos, io.SeekStart); err != nil {
		return FileInfo{}, err
	}

	return FileInfo{
		Uri:     c.Uri,
		Size:    c.filesize,
		Rows:    rows,
		Quality: AssessQuality(packets),
	}, nil
}
