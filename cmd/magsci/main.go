package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"time"

	"github.com/alitto/pond"
	"github.com/urfave/cli/v2"

	"github.com/imap-mag/magsci"
	"github.com/imap-mag/magsci/search"
)

// Exit codes, stable for scripts that wrap this binary. Exit 3 is reserved
// for summary finding zero logs in a folder; decode-all finding zero capture
// files exits with exitPreconditionFail.
const (
	exitOK               = 0
	exitPreconditionFail = 1
	exitDataError        = 2
	exitNoMatches        = 3
)

// decodeOne decodes a single capture file into a MAGScience CSV, optionally
// archiving the decoded rows to a TileDB array, and returns the CSV path.
func decodeOne(captureUri, outdir, archiveUri string, mode magsci.Mode, tolerance float64, uncompressedWidthBits uint8, force, inMemory bool) (string, magsci.FileInfo, error) {
	config, err := magsci.NewModeConfig(mode, tolerance)
	if err != nil {
		return "", magsci.FileInfo{}, err
	}

	src, err := magsci.OpenCapture(captureUri, inMemory)
	if err != nil {
		return "", magsci.FileInfo{}, err
	}
	defer src.Close()

	info, err := src.Info(config, uncompressedWidthBits)
	if err != nil {
		return "", magsci.FileInfo{}, err
	}

	writer := magsci.NewScienceFileWriter(config, time.Now())
	writer.Add(info.Rows)

	if outdir == "" {
		outdir = filepath.Dir(captureUri)
	}
	path, err := writer.Flush(outdir, force)
	if err != nil {
		return "", info, err
	}

	if archiveUri != "" {
		if err := magsci.ArchiveRows(archiveUri, info.Rows); err != nil {
			return path, info, err
		}
	}

	return path, info, nil
}

func runDecode(cCtx *cli.Context) error {
	captureUri := cCtx.String("input")
	outdir := cCtx.String("outdir")
	archiveUri := cCtx.String("archive")
	mode := magsci.Mode(cCtx.String("mode"))
	tolerance := cCtx.Float64("tolerance")
	width := uint8(cCtx.Int("uncompressed-width"))
	force := cCtx.Bool("force")
	inMemory := cCtx.Bool("in-memory")

	path, info, err := decodeOne(captureUri, outdir, archiveUri, mode, tolerance, width, force, inMemory)
	if err != nil {
		log.Println("decode failed:", err)
		os.Exit(exitPreconditionFail)
	}

	log.Printf("wrote %s (%d rows)", path, len(info.Rows))
	if !info.Quality.Clean() {
		os.Exit(exitDataError)
	}
	return nil
}

func runDecodeAll(cCtx *cli.Context) error {
	root := cCtx.String("root")
	outdir := cCtx.String("outdir")
	archiveUri := cCtx.String("archive")
	mode := magsci.Mode(cCtx.String("mode"))
	tolerance := cCtx.Float64("tolerance")
	width := uint8(cCtx.Int("uncompressed-width"))
	force := cCtx.Bool("force")
	inMemory := cCtx.Bool("in-memory")

	items, err := search.FindCaptures(root)
	if err != nil {
		return err
	}
	log.Println("files to decode:", len(items))

	if len(items) == 0 {
		os.Exit(exitPreconditionFail)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	n := runtime.NumCPU() * 2
	pool := pond.New(n, 0, pond.MinWorkers(n), pond.Context(ctx))
	defer pool.StopAndWait()

	var anyData bool
	for _, item := range items {
		captureUri := item
		pool.Submit(func() {
			path, info, err := decodeOne(captureUri, outdir, archiveUri, mode, tolerance, width, force, inMemory)
			if err != nil {
				log.Println("decode failed for", captureUri, ":", err)
				return
			}
			log.Printf("wrote %s (%d rows)", path, len(info.Rows))
			if !info.Quality.Clean() {
				anyData = true
			}
		})
	}
	pool.StopAndWait()

	if anyData {
		os.Exit(exitDataError)
	}
	return nil
}

func runCheckGaps(cCtx *cli.Context) error {
	csvPath := cCtx.String("input")
	mode := magsci.Mode(cCtx.String("mode"))
	tolerance := cCtx.Float64("tolerance")

	var (
		config magsci.ModeConfig
		err    error
	)
	if mode == magsci.ModeAuto {
		config, err = magsci.ModeConfigFromFilename(filepath.Base(csvPath))
		if err == nil && tolerance != -1 {
			if tolerance < 0 {
				err = magsci.ErrInvalidTolerance
			} else {
				config.Tolerance = tolerance
			}
		}
	} else {
		config, err = magsci.NewModeConfig(mode, tolerance)
	}
	if err != nil {
		log.Println("check-gaps failed:", err)
		os.Exit(exitPreconditionFail)
	}

	report, err := magsci.CheckCSV(csvPath, config)
	if err != nil {
		log.Println("check-gaps failed:", err)
		os.Exit(exitPreconditionFail)
	}

	for _, d := range report.Diagnostics {
		fmt.Println(d.Error())
	}

	if report.Clean() {
		fmt.Println(report.Message())
		return nil
	}
	os.Exit(exitDataError)
	return nil
}

func runSummary(cCtx *cli.Context) error {
	folder := cCtx.String("folder")
	outUri := cCtx.String("out")
	force := cCtx.Bool("force")

	summary, err := magsci.SummariseFolder(folder, time.Now())
	if err != nil {
		log.Println("summary failed:", err)
		os.Exit(exitPreconditionFail)
	}

	if summary.Empty() {
		os.Exit(exitNoMatches)
	}

	if outUri != "" {
		if _, err := magsci.WriteJSON(outUri, summary, force); err != nil {
			return err
		}
		log.Println("wrote summary to", outUri)
		return nil
	}

	jsn, err := magsci.JSONIndentDumps(summary)
	if err != nil {
		return err
	}
	fmt.Println(jsn)
	return nil
}

func main() {
	app := &cli.App{
		Name:  "magsci",
		Usage: "decode, check and summarise IMAP MAG science telemetry",
		Commands: []*cli.Command{
			{
				Name:  "decode",
				Usage: "decode a single capture file into a MAGScience CSV",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "input", Required: true, Usage: "path to a raw CCSDS packet capture"},
					&cli.StringFlag{Name: "outdir", Usage: "output directory (default: alongside the input file)"},
					&cli.StringFlag{Name: "archive", Usage: "TileDB array URI to also archive decoded rows into"},
					&cli.StringFlag{Name: "mode", Value: string(magsci.ModeNormalE8), Usage: "science mode: normalE8, normalE2, burst128, burst64, or i_alirt"},
					&cli.Float64Flag{Name: "tolerance", Value: -1, Usage: "timing tolerance in seconds, or -1 for the mode default"},
					&cli.IntFlag{Name: "uncompressed-width", Value: 20, Usage: "per-axis bit width to use when a packet is uncompressed"},
					&cli.BoolFlag{Name: "force", Usage: "overwrite an existing output file"},
					&cli.BoolFlag{Name: "in-memory", Usage: "buffer the whole capture file into memory before decoding"},
				},
				Action: runDecode,
			},
			{
				Name:  "decode-all",
				Usage: "decode every capture file found under a directory",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "root", Required: true, Usage: "directory to search recursively"},
					&cli.StringFlag{Name: "outdir", Usage: "output directory (default: alongside each input file)"},
					&cli.StringFlag{Name: "archive", Usage: "TileDB array URI to also archive decoded rows into"},
					&cli.StringFlag{Name: "mode", Value: string(magsci.ModeNormalE8), Usage: "science mode: normalE8, normalE2, burst128, burst64, or i_alirt"},
					&cli.Float64Flag{Name: "tolerance", Value: -1, Usage: "timing tolerance in seconds, or -1 for the mode default"},
					&cli.IntFlag{Name: "uncompressed-width", Value: 20, Usage: "per-axis bit width to use when a packet is uncompressed"},
					&cli.BoolFlag{Name: "force", Usage: "overwrite existing output files"},
					&cli.BoolFlag{Name: "in-memory", Usage: "buffer each capture file into memory before decoding"},
				},
				Action: runDecodeAll,
			},
			{
				Name:  "check-gaps",
				Usage: "validate a decoded MAGScience CSV for sequence and timing gaps",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "input", Required: true, Usage: "path to a MAGScience CSV written by decode"},
					&cli.StringFlag{Name: "mode", Value: string(magsci.ModeAuto), Usage: "science mode, or auto to parse it from the input filename"},
					&cli.Float64Flag{Name: "tolerance", Value: -1, Usage: "timing tolerance in seconds, or -1 for the mode default"},
				},
				Action: runCheckGaps,
			},
			{
				Name:  "summary",
				Usage: "emit a JSON summary of a folder of gap-checker logs",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "folder", Required: true, Usage: "folder of gap-checker log files to summarise"},
					&cli.StringFlag{Name: "out", Usage: "write the summary to this path instead of stdout"},
					&cli.BoolFlag{Name: "force", Usage: "overwrite an existing summary file"},
				},
				Action: runSummary,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
