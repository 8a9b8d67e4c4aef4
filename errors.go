package magsci

import "errors"

// Decoder errors.
var (
	ErrTruncatedPayload        = errors.New("packet payload truncated before all vectors were read")
	ErrUnterminatedFibCode     = errors.New("fibonacci codeword ran past the end of the payload without a terminator")
	ErrInvalidCompressionWidth = errors.New("compression width outside the supported range")
	ErrUnsupportedApid         = errors.New("apid is not a recognised MAG science or I-ALiRT apid")
	ErrInvalidRateCode         = errors.New("vectors-per-second rate code out of range")
	ErrShortHeader             = errors.New("buffer shorter than the CCSDS primary header")
	ErrShortPacket             = errors.New("buffer shorter than the declared packet length")
)

// Mode resolution errors.
var (
	ErrUnknownMode         = errors.New("mode value does not match a known science mode")
	ErrFilenameNotParsable = errors.New("filename does not match the expected MAGScience naming pattern")
	ErrInvalidTolerance    = errors.New("tolerance must be -1 (use the mode default) or a non-negative number of seconds")
)

// File and archive errors.
var (
	ErrOverwriteRefused = errors.New("refusing to overwrite existing output file without --force")
	ErrNoPacketsMatched = errors.New("no packets matched the requested apid in any input file")
)

// TileDB archive sink errors, shared by archive.go's generic schema builder.
var (
	ErrCreateSchemaTdb    = errors.New("error creating tiledb schema")
	ErrCreateDimTdb       = errors.New("error creating tiledb dimension")
	ErrCreateAttributeTdb = errors.New("error creating attribute for tiledb array")
	ErrAddFilters         = errors.New("error adding filter to filter list")
	ErrDims               = errors.New("error slice has more than 2 dimensions")
	ErrDtype              = errors.New("error slice datatype is unexpected")
	ErrSetBuff            = errors.New("error setting tiledb buffer")
	ErrFiltList           = errors.New("error creating tiledb filter list")
	ErrNewAttr            = errors.New("error creating tiledb attribute")
	ErrNewFilt            = errors.New("error creating tiledb filter")
	ErrSetFiltList        = errors.New("error setting tiledb filter list")
	ErrAddAttr            = errors.New("error adding tiledb attribute")
	ErrZstdFilt           = errors.New("error creating tiledb zstandard filter")
	ErrCreateArrayTdb     = errors.New("error creating tiledb array")
	ErrWriteArrayTdb      = errors.New("error writing tiledb array")
)
