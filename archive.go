package magsci

import (
	"errors"
	"os"
	"reflect"
	"strconv"
	"time"

	tiledb "github.com/TileDB-Inc/TileDB-Go"
	"github.com/google/uuid"
	"github.com/samber/lo"
	stgpsr "github.com/yuin/stagparser"
)

// TiledbRow is the archival record stored per decoded vector pair. Struct
// tags drive CreateAttr's schema construction: dtype/ftype pick the TileDB
// datatype and dimension-vs-attribute role, filters picks the compression
// pipeline. PriCoarse is the dimension: range queries over a time window
// become a single slice read.
type TiledbRow struct {
	PriCoarse            uint32    `tiledb:"dtype=uint32,ftype=dim"`
	SeqCount             uint16    `tiledb:"dtype=uint16,ftype=attr" filters:"bysh,zstd(level=16)"`
	PriX                 int32     `tiledb:"dtype=int32,ftype=attr" filters:"bitw(window=256),zstd(level=16)"`
	PriY                 int32     `tiledb:"dtype=int32,ftype=attr" filters:"bitw(window=256),zstd(level=16)"`
	PriZ                 int32     `tiledb:"dtype=int32,ftype=attr" filters:"bitw(window=256),zstd(level=16)"`
	PriRange             uint8     `tiledb:"dtype=uint8,ftype=attr" filters:"bysh"`
	PriNull              uint8     `tiledb:"dtype=uint8,ftype=attr" filters:"bysh"`
	SecX                 int32     `tiledb:"dtype=int32,ftype=attr" filters:"bitw(window=256),zstd(level=16)"`
	SecY                 int32     `tiledb:"dtype=int32,ftype=attr" filters:"bitw(window=256),zstd(level=16)"`
	SecZ                 int32     `tiledb:"dtype=int32,ftype=attr" filters:"bitw(window=256),zstd(level=16)"`
	SecRange             uint8     `tiledb:"dtype=uint8,ftype=attr" filters:"bysh"`
	SecNull              uint8     `tiledb:"dtype=uint8,ftype=attr" filters:"bysh"`
	PriFine              uint16    `tiledb:"dtype=uint16,ftype=attr" filters:"bysh,zstd(level=16)"`
	SecCoarse            uint32    `tiledb:"dtype=uint32,ftype=attr" filters:"bysh,zstd(level=16)"`
	SecFine              uint16    `tiledb:"dtype=uint16,ftype=attr" filters:"bysh,zstd(level=16)"`
	Compression          uint8     `tiledb:"dtype=uint8,ftype=attr" filters:"bysh"`
	CompressionWidthBits uint8     `tiledb:"dtype=uint8,ftype=attr" filters:"bysh"`
	PriActive            uint8     `tiledb:"dtype=uint8,ftype=attr" filters:"bysh"`
	SecActive            uint8     `tiledb:"dtype=uint8,ftype=attr" filters:"bysh"`
	Timestamp            time.Time `tiledb:"dtype=datetime_ns,ftype=attr" filters:"zstd(level=16)"`
}

// ToTiledbRows converts padded decoded rows into their archival representation.
func ToTiledbRows(rows []PaddedRow) []TiledbRow {
	out := make([]TiledbRow, len(rows))
	for i, r := range rows {
		out[i] = TiledbRow{
			PriCoarse:            r.PriCoarse,
			SeqCount:             r.SeqCount,
			PriX:                 r.Primary.X,
			PriY:                 r.Primary.Y,
			PriZ:                 r.Primary.Z,
			PriRange:             r.Primary.Range,
			PriNull:              lo.Ternary[uint8](r.PrimaryNull, 1, 0),
			SecX:                 r.Secondary.X,
			SecY:                 r.Secondary.Y,
			SecZ:                 r.Secondary.Z,
			SecRange:             r.Secondary.Range,
			SecNull:              lo.Ternary[uint8](r.SecondaryNull, 1, 0),
			PriFine:              r.PriFine,
			SecCoarse:            r.SecCoarse,
			SecFine:              r.SecFine,
			Compression:          lo.Ternary[uint8](r.CompressionFlag, 1, 0),
			CompressionWidthBits: r.CompressionWidthBits,
			PriActive:            lo.Ternary[uint8](r.PrimaryIsActive, 1, 0),
			SecActive:            lo.Ternary[uint8](r.SecondaryIsActive, 1, 0),
			Timestamp:            AbsoluteTime(r.PriCoarse, r.PriFine),
		}
	}
	return out
}

// ArchiveRows writes rows to the TileDB array at arrayUri, creating the
// array's schema first if it doesn't yet exist. This is the wiring point
// for the CLI's --archive flag.
func ArchiveRows(arrayUri string, rows []DecodedRow) error {
	if len(rows) == 0 {
		return nil
	}

	ctx, err := tiledb.NewContext(nil)
	if err != nil {
		return errors.Join(ErrCreateSchemaTdb, err)
	}
	defer ctx.Free()

	minCoarse, maxCoarse := rows[0].PriCoarse, rows[0].PriCoarse
	for _, r := range rows {
		if r.PriCoarse < minCoarse {
			minCoarse = r.PriCoarse
		}
		if r.PriCoarse > maxCoarse {
			maxCoarse = r.PriCoarse
		}
	}

	if _, err := os.Stat(arrayUri); err != nil {
		if err := CreateRowSchema(ctx, arrayUri, minCoarse, maxCoarse, ArchiveTileExtent); err != nil {
			return err
		}
	}

	if err := WriteRows(ctx, arrayUri, ToTiledbRows(PadRows(rows))); err != nil {
		return err
	}

	return WriteArrayMetadata(ctx, arrayUri, "last_archive_run", archiveRunMetadata{
		RunID:    uuid.New().String(),
		RowCount: len(rows),
	})
}

// archiveRunMetadata tags every ArchiveRows call with a unique run identifier
// so downstream tooling can tell which decode-and-archive invocation last
// appended to a shared array, independent of the rows' own packet timestamps.
type archiveRunMetadata struct {
	RunID    string
	RowCount int
}

// ArrayOpen is a helper func for opening a tiledb array.
func ArrayOpen(ctx *tiledb.Context, uri string, mode tiledb.QueryType) (*tiledb.Array, error) {
	array, err := tiledb.NewArray(ctx, uri)
	if err != nil {
		return nil, err
	}

	err = array.Open(mode)
	if err != nil {
		array.Free()
		return nil, err
	}

	return array, nil
}

// AddFilters sequentially appends compression filters to the filter pipeline list.
func AddFilters(filter_list *tiledb.FilterList, filter ...*tiledb.Filter) error {
	for _, filt := range filter {
		err := filter_list.AddFilter(filt)
		if err != nil {
			return err
		}
	}

	return nil
}

// ZstdFilter initialises the Zstandard compression filter and sets the compression
// level.
func ZstdFilter(ctx *tiledb.Context, level int32) (*tiledb.Filter, error) {
	filt, err := tiledb.NewFilter(ctx, tiledb.TILEDB_FILTER_ZSTD)
	if err != nil {
		return nil, err
	}

	err = filt.SetOption(tiledb.TILEDB_COMPRESSION_LEVEL, level)
	if err != nil {
		filt.Free()
		return nil, err
	}

	return filt, nil
}

// GzipFilter initialises the deflate compression filter and sets the compression
// level.
func GzipFilter(ctx *tiledb.Context, level int32) (*tiledb.Filter, error) {
	filt, err := tiledb.NewFilter(ctx, tiledb.TILEDB_FILTER_GZIP)
	if err != nil {
		return nil, err
	}

	err = filt.SetOption(tiledb.TILEDB_COMPRESSION_LEVEL, level)
	if err != nil {
		filt.Free()
		return nil, err
	}

	return filt, nil
}

// Lz4Filter initialises the LZ4 compression filter and sets the compression
// level.
func Lz4Filter(ctx *tiledb.Context, level int32) (*tiledb.Filter, error) {
	filt, err := tiledb.NewFilter(ctx, tiledb.TILEDB_FILTER_LZ4)
	if err != nil {
		return nil, err
	}

	err = filt.SetOption(tiledb.TILEDB_COMPRESSION_LEVEL, level)
	if err != nil {
		filt.Free()
		return nil, err
	}

	return filt, nil
}

// RleFilter initialises the Run Length Encoding compression filter and sets the
// compression level. Note; the compression level is meaningless for RLE, and
// is quietly ignored internally by TileDB.
func RleFilter(ctx *tiledb.Context, level int32) (*tiledb.Filter, error) {
	filt, err := tiledb.NewFilter(ctx, tiledb.TILEDB_FILTER_RLE)
	if err != nil {
		return nil, err
	}

	err = filt.SetOption(tiledb.TILEDB_COMPRESSION_LEVEL, level)
	if err != nil {
		filt.Free()
		return nil, err
	}

	return filt, nil
}

// Bzip2Filter initialises the Burrows-Wheeler compression filter and sets the
// compression level.
func Bzip2Filter(ctx *tiledb.Context, level int32) (*tiledb.Filter, error) {
	filt, err := tiledb.NewFilter(ctx, tiledb.TILEDB_FILTER_BZIP2)
	if err != nil {
		return nil, err
	}

	err = filt.SetOption(tiledb.TILEDB_COMPRESSION_LEVEL, level)
	if err != nil {
		filt.Free()
		return nil, err
	}

	return filt, nil
}

// BitWidthReductionFilter initialises the Bit width reduction and sets the
// window size.
func BitWidthReductionFilter(ctx *tiledb.Context, window int32) (*tiledb.Filter, error) {
	filt, err := tiledb.NewFilter(ctx, tiledb.TILEDB_FILTER_BIT_WIDTH_REDUCTION)
	if err != nil {
		return nil, err
	}

	err = filt.SetOption(tiledb.TILEDB_BIT_WIDTH_MAX_WINDOW, window)
	if err != nil {
		filt.Free()
		return nil, err
	}

	return filt, nil
}

// AttachFilters acts as a helper for when setting the same pipeline filter list to
// a bunch of attributes.
func AttachFilters(filter_list *tiledb.FilterList, attrs ...*tiledb.Attribute) error {
	for _, attr := range attrs {
		err := attr.SetFilterList(filter_list)
		if err != nil {
			return err
		}
	}

	return nil
}

// CreateAttr creates a tiledb attribute along with the compression filter
// pipeline. The configuration is specified by the tags attached to the
// struct type.
// Tags for tiledb include: dtype, var, ftype.
// Where dtype is datatype, var is variable length, ftype is fieldtype
// (dim or attr) for dimension or attribute (dim skips the field).
// Supported datatype values are int8, uint8, int16, uint16, int32, uint32,
// int64, uint64, float32, float64, datetime_ns.
// Tags for filters include: zstd(level=16), gzip(level=6), bysh, bish,
// lz4(level=6), rle(level=-1), bzip2(level=6), bitw(window=-1).
// Where level indicates the compression level, window indicates the window size
// (-1 indicates default), zstd is zstandard, gzip is deflate,
// rle is run length encoding, bysh is byteshuffle, bish is bitshuffle and
// bitw is bit width reduction.
// Filters will be set in the order they're specified in the tag.
// Variable length fields will have the offsets compressed using a default
// strategy of positive-delta, byteshuffle, and finally zstandard with level=16.
// An example tag is `tiledb:"dtype=uint16,ftype=attr" filters:"bysh,zstd(level=16)"`
func CreateAttr(
	field_name string,
	filter_defs []stgpsr.Definition,
	tiledb_defs map[string]stgpsr.Definition,
	schema *tiledb.ArraySchema,
	ctx *tiledb.Context,
) error {

	var (
		tdb_dtype tiledb.Datatype
		def       stgpsr.Definition
		status    bool
	)

	def, status = tiledb_defs["dtype"]
	if !status {
		return errors.Join(ErrCreateAttributeTdb, errors.New("dtype tag not found"))
	}
	dtype, _ := def.Attribute("dtype")

	// define datatype
	switch dtype {
	case "int8":
		tdb_dtype = tiledb.TILEDB_INT8
	case "uint8":
		tdb_dtype = tiledb.TILEDB_UINT8
	case "int16":
		tdb_dtype = tiledb.TILEDB_INT16
	case "uint16":
		tdb_dtype = tiledb.TILEDB_UINT16
	case "int32":
		tdb_dtype = tiledb.TILEDB_INT32
	case "uint32":
		tdb_dtype = tiledb.TILEDB_UINT32
	case "int64":
		tdb_dtype = tiledb.TILEDB_INT64
	case "uint64":
		tdb_dtype = tiledb.TILEDB_UINT64
	case "float32":
		tdb_dtype = tiledb.TILEDB_FLOAT32
	case "float64":
		tdb_dtype = tiledb.TILEDB_FLOAT64
	case "datetime_ns": // can add other datetime types when required
		tdb_dtype = tiledb.TILEDB_DATETIME_NS
	case "string":
		tdb_dtype = tiledb.TILEDB_STRING_UTF8
	}

	attr_filts, err := tiledb.NewFilterList(ctx)
	if err != nil {
		return errors.Join(ErrCreateAttributeTdb, err)
	}
	defer attr_filts.Free()

	// filter pipeline
	for _, filter := range filter_defs {
		switch filter.Name() {
		case "zstd":
			level, status := filter.Attribute("level")
			if !status {
				return errors.Join(ErrCreateAttributeTdb, errors.New("zstd level not defined"))
			}
			filt, err := ZstdFilter(ctx, int32(level.(int64)))
			if err != nil {
				return errors.Join(ErrCreateAttributeTdb, err)
			}
			defer filt.Free()
			err = attr_filts.AddFilter(filt)
			if err != nil {
				return errors.Join(ErrCreateAttributeTdb, err)
			}
		case "gzip":
			level, status := filter.Attribute("level")
			if !status {
				return errors.Join(ErrCreateAttributeTdb, errors.New("gzip level not defined"))
			}
			filt, err := GzipFilter(ctx, int32(level.(int64)))
			if err != nil {
				return errors.Join(ErrCreateAttributeTdb, err)
			}
			defer filt.Free()
			err = attr_filts.AddFilter(filt)
			if err != nil {
				return errors.Join(ErrCreateAttributeTdb, err)
			}
		case "lz4":
			level, status := filter.Attribute("level")
			if !status {
				return errors.Join(ErrCreateAttributeTdb, errors.New("lz4 level not defined"))
			}
			filt, err := Lz4Filter(ctx, int32(level.(int64)))
			if err != nil {
				return errors.Join(ErrCreateAttributeTdb, err)
			}
			defer filt.Free()
			err = attr_filts.AddFilter(filt)
			if err != nil {
				return errors.Join(ErrCreateAttributeTdb, err)
			}
		case "rle":
			level, status := filter.Attribute("level")
			if !status {
				return errors.Join(ErrCreateAttributeTdb, errors.New("rle level not defined"))
			}
			filt, err := RleFilter(ctx, int32(level.(int64)))
			if err != nil {
				return errors.Join(ErrCreateAttributeTdb, err)
			}
			defer filt.Free()
			err = attr_filts.AddFilter(filt)
			if err != nil {
				return errors.Join(ErrCreateAttributeTdb, err)
			}
		case "bzip2":
			level, status := filter.Attribute("level")
			if !status {
				return errors.Join(ErrCreateAttributeTdb, errors.New("bzip2 level not defined"))
			}
			filt, err := Bzip2Filter(ctx, int32(level.(int64)))
			if err != nil {
				return errors.Join(ErrCreateAttributeTdb, err)
			}
			defer filt.Free()
			err = attr_filts.AddFilter(filt)
			if err != nil {
				return errors.Join(ErrCreateAttributeTdb, err)
			}
		case "bitw":
			win, status := filter.Attribute("window")
			if !status {
				return errors.Join(ErrCreateAttributeTdb, errors.New("bitwidth window not defined"))
			}
			filt, err := BitWidthReductionFilter(ctx, int32(win.(int64)))
			if err != nil {
				return errors.Join(ErrCreateAttributeTdb, err)
			}
			defer filt.Free()
			err = attr_filts.AddFilter(filt)
			if err != nil {
				return errors.Join(ErrCreateAttributeTdb, err)
			}
		case "bish":
			filt, err := tiledb.NewFilter(ctx, tiledb.TILEDB_FILTER_BITSHUFFLE)
			if err != nil {
				return errors.Join(ErrCreateAttributeTdb, err)
			}
			defer filt.Free()
			err = attr_filts.AddFilter(filt)
			if err != nil {
				return errors.Join(ErrCreateAttributeTdb, err)
			}
		case "bysh":
			filt, err := tiledb.NewFilter(ctx, tiledb.TILEDB_FILTER_BYTESHUFFLE)
			if err != nil {
				return errors.Join(ErrCreateAttributeTdb, err)
			}
			defer filt.Free()
			err = attr_filts.AddFilter(filt)
			if err != nil {
				return errors.Join(ErrCreateAttributeTdb, err)
			}
		}
	}

	// create attr
	attr, err := tiledb.NewAttribute(ctx, field_name, tdb_dtype)
	if err != nil {
		return errors.Join(ErrCreateAttributeTdb, err)
	}
	defer attr.Free()

	// variable length attrs
	_, status = tiledb_defs["var"]
	if status {
		attr.SetCellValNum(tiledb.TILEDB_VAR_NUM)
		if err != nil {
			return errors.Join(ErrCreateAttributeTdb, err)
		}
	}

	// attach filter pipeline to attr
	err = AttachFilters(attr_filts, attr)
	if err != nil {
		return errors.Join(ErrCreateAttributeTdb, err)
	}

	// attach attr to schema
	err = schema.AddAttributes(attr)
	if err != nil {
		return errors.Join(ErrCreateAttributeTdb, err)
	}

	// variable length attrs filters
	// making an assumption that the var attr needs to be set on the schema
	// before we add the offsets filter pipeline to the schema
	if status {
		offset_filts, err := tiledb.NewFilterList(ctx)
		if err != nil {
			return errors.Join(ErrCreateAttributeTdb, err)
		}

		dd_filt, err := tiledb.NewFilter(ctx, tiledb.TILEDB_FILTER_POSITIVE_DELTA)
		if err != nil {
			return errors.Join(ErrCreateAttributeTdb, err)
		}

		bysh_filt, err := tiledb.NewFilter(ctx, tiledb.TILEDB_FILTER_BYTESHUFFLE)
		if err != nil {
			return errors.Join(ErrCreateAttributeTdb, err)
		}

		zstd_filt, err := ZstdFilter(ctx, int32(16))
		if err != nil {
			return errors.Join(ErrCreateAttributeTdb, err)
		}

		err = AddFilters(offset_filts, dd_filt, bysh_filt, zstd_filt)
		if err != nil {
			return errors.Join(ErrCreateAttributeTdb, err)
		}

		err = schema.SetOffsetsFilterList(offset_filts)
		if err != nil {
			return errors.Join(ErrCreateAttributeTdb, err)
		}
	}

	return nil
}

// sliceDimsType is a helper for determining the numver of dimensions
// and the underlying type a slice contains.
// This func is called elsewhere that is undertaking reflection on
// a struct whose fields are slices.
// Care needs to be taken in that the original caller must initialise the
// int that the dims pointer points to, is zero.
// The primary motivation was not to be explicitly calling each structs
// field, for example EM4 which contains 53 fields, and would be a lot of code.
// Multiply that for over a dozen different sensors, and that's a lot of code.
// However, it would be more explicit, and easier to follow. I have found that
// reflection is hard to follow, and I could have easily introduced more errors
// through blind assumptions, than being explicit and calling each field by name
// for serialisation.
func sliceDimsType(typ reflect.Type, dims *int) reflect.Type {
	if typ.Kind() == reflect.Slice {
		*dims += 1
		return sliceDimsType(typ.Elem(), dims)
	}

	// either not a slice, or we've buried deep enough to the underliying
	// slice type; eg uint8, float32, time.Time etc
	return typ
}

// sliceOffsets is a helper func to calculate the 1D array offsets for fields
// that are of variable length.
func sliceOffsets[T any](s [][]T, byte_size uint64) (slc_offset []uint64) {
	nrows := len(s)
	slc_offset = make([]uint64, nrows)
	offset := uint64(0)

	for i := 0; i < nrows; i++ {
		length := uint64(len(s[i]))
		slc_offset[i] = offset
		offset += length * byte_size
	}

	return slc_offset
}

func setStructFieldBuffers(query *tiledb.Query, t any) error {
	var (
		err error
	)

	bytesize1 := uint64(1)
	bytesize2 := uint64(2)
	bytesize4 := uint64(4)
	bytesize8 := uint64(8)

	values := reflect.ValueOf(t).Elem()
	types := reflect.TypeOf(t).Elem()
	for i := 0; i < values.NumField(); i++ {
		fld := values.Field(i)
		typ := fld.Type()

		if types.Field(i).IsExported() {
			name := types.Field(i).Name
			dims := 0
			stype := sliceDimsType(typ, &dims)

			switch dims {
			case 1:
				switch stype.Name() {
				case "int8":
					slc := fld.Interface().([]int8)
					_, err = query.SetDataBuffer(name, slc)
					if err != nil {
						return errors.Join(ErrSetBuff, err, errors.New(name))
					}
				case "uint8":
					slc := fld.Interface().([]uint8)
					_, err = query.SetDataBuffer(name, slc)
					if err != nil {
						return errors.Join(ErrSetBuff, err, errors.New(name))
					}
				case "int16":
					slc := fld.Interface().([]int16)
					_, err = query.SetDataBuffer(name, slc)
					if err != nil {
						return errors.Join(ErrSetBuff, err, errors.New(name))
					}
				case "uint16":
					slc := fld.Interface().([]uint16)
					_, err = query.SetDataBuffer(name, slc)
					if err != nil {
						return errors.Join(ErrSetBuff, err, errors.New(name))
					}
				case "int32":
					slc := fld.Interface().([]int32)
					_, err = query.SetDataBuffer(name, slc)
					if err != nil {
						return errors.Join(ErrSetBuff, err, errors.New(name))
					}
				case "uint32":
					slc := fld.Interface().([]uint32)
					_, err = query.SetDataBuffer(name, slc)
					if err != nil {
						return errors.Join(ErrSetBuff, err, errors.New(name))
					}
				case "int64":
					slc := fld.Interface().([]int64)
					_, err = query.SetDataBuffer(name, slc)
					if err != nil {
						return errors.Join(ErrSetBuff, err, errors.New(name))
					}
				case "uint64":
					slc := fld.Interface().([]uint64)
					_, err = query.SetDataBuffer(name, slc)
					if err != nil {
						return errors.Join(ErrSetBuff, err, errors.New(name))
					}
				case "float32":
					slc := fld.Interface().([]float32)
					_, err = query.SetDataBuffer(name, slc)
					if err != nil {
						return errors.Join(ErrSetBuff, err, errors.New(name))
					}
				case "float64":
					slc := fld.Interface().([]float64)
					_, err = query.SetDataBuffer(name, slc)
					if err != nil {
						return errors.Join(ErrSetBuff, err, errors.New(name))
					}
				case "Time":
					slc := fld.Interface().([]time.Time)

					// time arrays need an additional conversion for serialisation
					nrows := len(slc)
					timestamps := make([]int64, nrows)
					for t := 0; t < nrows; t++ {
						timestamps[t] = slc[t].UnixNano()
					}

					_, err = query.SetDataBuffer(name, timestamps)
					if err != nil {
						return errors.Join(ErrSetBuff, err, errors.New(name))
					}
				default:
					// some datatype we haven't accounted for
					return errors.Join(ErrDtype, errors.New(stype.Name()))
				}
			case 2:
				// these will be the variable length arrays
				// this approach won't work for say the BrbIntensity.TimeSeries
				// which is stored as a single 1D slice, and the count stored elsewhere
				// on the struct (unless we change it)
				// For var length arrays, the procedure is to create a flattened version
				// of the 2D slice, calculate byte offsets, and set the buffers for
				// both the flattened and byte offset slices
				switch stype.Name() {
				case "int8":
					slc := fld.Interface().([][]int8)
					flt := lo.Flatten(slc)
					slc_offset := sliceOffsets(slc, bytesize1)

					_, err = query.SetOffsetsBuffer(name, slc_offset)
					if err != nil {
						return errors.Join(err, errors.New(name))
					}

					_, err = query.SetDataBuffer(name, flt)
					if err != nil {
						return errors.Join(err, errors.New(name))
					}
				case "uint8":
					slc := fld.Interface().([][]uint8)
					flt := lo.Flatten(slc)
					slc_offset := sliceOffsets(slc, bytesize1)

					_, err = query.SetOffsetsBuffer(name, slc_offset)
					if err != nil {
						return errors.Join(err, errors.New(name))
					}

					_, err = query.SetDataBuffer(name, flt)
					if err != nil {
						return errors.Join(err, errors.New(name))
					}
				case "int16":
					slc := fld.Interface().([][]int16)
					flt := lo.Flatten(slc)
					slc_offset := sliceOffsets(slc, bytesize2)

					_, err = query.SetOffsetsBuffer(name, slc_offset)
					if err != nil {
						return errors.Join(err, errors.New(name))
					}

					_, err = query.SetDataBuffer(name, flt)
					if err != nil {
						return errors.Join(err, errors.New(name))
					}
				case "uint16":
					slc := fld.Interface().([][]uint16)
					flt := lo.Flatten(slc)
					slc_offset := sliceOffsets(slc, bytesize2)

					_, err = query.SetOffsetsBuffer(name, slc_offset)
					if err != nil {
						return errors.Join(err, errors.New(name))
					}

					_, err = query.SetDataBuffer(name, flt)
					if err != nil {
						return errors.Join(err, errors.New(name))
					}
				case "int32":
					slc := fld.Interface().([][]int32)
					flt := lo.Flatten(slc)
					slc_offset := sliceOffsets(slc, bytesize4)

					_, err = query.SetOffsetsBuffer(name, slc_offset)
					if err != nil {
						return errors.Join(err, errors.New(name))
					}

					_, err = query.SetDataBuffer(name, flt)
					if err != nil {
						return errors.Join(err, errors.New(name))
					}
				case "uint32":
					slc := fld.Interface().([][]uint32)
					flt := lo.Flatten(slc)
					slc_offset := sliceOffsets(slc, bytesize4)

					_, err = query.SetOffsetsBuffer(name, slc_offset)
					if err != nil {
						return errors.Join(err, errors.New(name))
					}

					_, err = query.SetDataBuffer(name, flt)
					if err != nil {
						return errors.Join(err, errors.New(name))
					}
				case "int64":
					slc := fld.Interface().([][]int64)
					flt := lo.Flatten(slc)
					slc_offset := sliceOffsets(slc, bytesize8)

					_, err = query.SetOffsetsBuffer(name, slc_offset)
					if err != nil {
						return errors.Join(err, errors.New(name))
					}

					_, err = query.SetDataBuffer(name, flt)
					if err != nil {
						return errors.Join(err, errors.New(name))
					}
				case "uint64":
					slc := fld.Interface().([][]uint64)
					flt := lo.Flatten(slc)
					slc_offset := sliceOffsets(slc, bytesize8)

					_, err = query.SetOffsetsBuffer(name, slc_offset)
					if err != nil {
						return errors.Join(err, errors.New(name))
					}

					_, err = query.SetDataBuffer(name, flt)
					if err != nil {
						return errors.Join(err, errors.New(name))
					}
				case "float32":
					slc := fld.Interface().([][]float32)
					flt := lo.Flatten(slc)
					slc_offset := sliceOffsets(slc, bytesize4)

					_, err = query.SetOffsetsBuffer(name, slc_offset)
					if err != nil {
						return errors.Join(err, errors.New(name))
					}

					_, err = query.SetDataBuffer(name, flt)
					if err != nil {
						return errors.Join(err, errors.New(name))
					}
				case "float64":
					slc := fld.Interface().([][]float64)
					flt := lo.Flatten(slc)
					slc_offset := sliceOffsets(slc, bytesize8)

					_, err = query.SetOffsetsBuffer(name, slc_offset)
					if err != nil {
						return errors.Join(err, errors.New(name))
					}

					_, err = query.SetDataBuffer(name, flt)
					if err != nil {
						return errors.Join(err, errors.New(name))
					}
				case "Time":
					slc := fld.Interface().([][]time.Time)
					flt := lo.Flatten(slc)
					slc_offset := sliceOffsets(slc, bytesize8)

					// time arrays need an additional conversion for serialisation
					nrows := len(flt)
					timestamps := make([]int64, nrows)
					for t := 0; t < nrows; t++ {
						timestamps[t] = flt[t].UnixNano()
					}
					_, err = query.SetOffsetsBuffer(name, slc_offset)
					if err != nil {
						return errors.Join(err, errors.New(name))
					}

					_, err = query.SetDataBuffer(name, timestamps)
					if err != nil {
						return errors.Join(err, errors.New(name))
					}
				default:
					// some datatype we haven't accounted for
					return errors.Join(ErrDtype, errors.New(stype.Name()))
				}
			default:
				return errors.Join(ErrDims, errors.New(strconv.Itoa(dims)))
			}
		}
	}
	return nil
}

// WriteArrayMetadata is a helper for attaching/writing metadata to a TileDB array.
// The metadata is converted to JSON before writing to TileDB.
func WriteArrayMetadata(ctx *tiledb.Context, array_uri, key string, md any) error {
	array, err := ArrayOpen(ctx, array_uri, tiledb.TILEDB_WRITE)
	if err != nil {
		return errors.Join(err, errors.New("Error opening (w) TileDB array: "+array_uri))
	}
	defer array.Free()
	defer array.Close()

	jsn, err := JSONDumps(md)
	if err != nil {
		return errors.Join(err, errors.New("Error serialising metadata to JSON"))
	}

	err = array.PutMetadata(key, jsn)
	if err != nil {
		return errors.Join(err, errors.New("Error writing metadata to array: "+array_uri))
	}

	return nil
}

// rowSchemaAttrs establishes the tiledb attributes for TiledbRow by walking
// its tiledb/filters struct tags and delegating to CreateAttr per field.
func rowSchemaAttrs(schema *tiledb.ArraySchema, ctx *tiledb.Context) error {
	var (
		field_tdb_defs map[string]stgpsr.Definition
		def            stgpsr.Definition
		status         bool
	)

	row := &TiledbRow{}
	values := reflect.ValueOf(row).Elem()
	types := values.Type()
	filt_defs, _ := stgpsr.ParseStruct(row, "filters")
	tdb_defs, _ := stgpsr.ParseStruct(row, "tiledb")

	for i := 0; i < values.NumField(); i++ {
		name := types.Field(i).Name

		field_filt_defs := filt_defs[name]

		field_tdb_defs = make(map[string]stgpsr.Definition)
		for _, v := range tdb_defs[name] {
			field_tdb_defs[v.Name()] = v
		}

		def, status = field_tdb_defs["ftype"]
		if !status {
			return errors.Join(ErrCreateSchemaTdb, errors.New("ftype tag not found"))
		}
		ftype, _ := def.Attribute("ftype")
		if ftype == "dim" {
			// dimensions are handled by CreateRowSchema, not CreateAttr
			continue
		}

		if err := CreateAttr(name, field_filt_defs, field_tdb_defs, schema, ctx); err != nil {
			return errors.Join(ErrCreateSchemaTdb, err)
		}
	}

	return nil
}

// CreateRowSchema builds and creates a sparse TileDB array at arrayUri for
// storing decoded MAG science rows, dimensioned on the coarse packet
// timestamp so range queries over a time window are a single slice read.
func CreateRowSchema(ctx *tiledb.Context, arrayUri string, minCoarse, maxCoarse uint32, tileExtent uint32) error {
	domain, err := tiledb.NewDomain(ctx)
	if err != nil {
		return errors.Join(ErrCreateSchemaTdb, err)
	}
	defer domain.Free()

	dim, err := tiledb.NewDimension(ctx, "PriCoarse", tiledb.TILEDB_UINT32, []uint32{minCoarse, maxCoarse}, tileExtent)
	if err != nil {
		return errors.Join(ErrCreateDimTdb, err)
	}
	defer dim.Free()

	dim_filters, err := tiledb.NewFilterList(ctx)
	if err != nil {
		return errors.Join(ErrCreateSchemaTdb, err)
	}
	defer dim_filters.Free()

	dd_filt, err := tiledb.NewFilter(ctx, tiledb.TILEDB_FILTER_POSITIVE_DELTA)
	if err != nil {
		return errors.Join(ErrCreateSchemaTdb, err)
	}
	defer dd_filt.Free()

	zstd_filt, err := ZstdFilter(ctx, int32(16))
	if err != nil {
		return errors.Join(ErrCreateSchemaTdb, err)
	}
	defer zstd_filt.Free()

	if err := AddFilters(dim_filters, dd_filt, zstd_filt); err != nil {
		return errors.Join(ErrCreateSchemaTdb, err)
	}
	if err := dim.SetFilterList(dim_filters); err != nil {
		return errors.Join(ErrCreateSchemaTdb, err)
	}
	if err := domain.AddDimensions(dim); err != nil {
		return errors.Join(ErrCreateSchemaTdb, err)
	}

	schema, err := tiledb.NewArraySchema(ctx, tiledb.TILEDB_SPARSE)
	if err != nil {
		return errors.Join(ErrCreateSchemaTdb, err)
	}
	defer schema.Free()

	if err := schema.SetDomain(domain); err != nil {
		return errors.Join(ErrCreateSchemaTdb, err)
	}
	if err := schema.SetCellOrder(tiledb.TILEDB_ROW_MAJOR); err != nil {
		return errors.Join(ErrCreateSchemaTdb, err)
	}
	if err := schema.SetTileOrder(tiledb.TILEDB_ROW_MAJOR); err != nil {
		return errors.Join(ErrCreateSchemaTdb, err)
	}

	if err := rowSchemaAttrs(schema, ctx); err != nil {
		return err
	}

	array, err := tiledb.NewArray(ctx, arrayUri)
	if err != nil {
		return errors.Join(ErrCreateArrayTdb, err)
	}
	defer array.Free()

	if err := array.Create(schema); err != nil {
		return errors.Join(ErrCreateArrayTdb, err)
	}

	return nil
}

// WriteRows opens arrayUri for writing and sets buffers for every field in
// rows via reflection, then submits the query.
func WriteRows(ctx *tiledb.Context, arrayUri string, rows []TiledbRow) error {
	array, err := ArrayOpen(ctx, arrayUri, tiledb.TILEDB_WRITE)
	if err != nil {
		return errors.Join(ErrWriteArrayTdb, err)
	}
	defer array.Free()
	defer array.Close()

	query, err := tiledb.NewQuery(ctx, array)
	if err != nil {
		return errors.Join(ErrWriteArrayTdb, err)
	}
	defer query.Free()

	if err := query.SetLayout(tiledb.TILEDB_UNORDERED); err != nil {
		return errors.Join(ErrWriteArrayTdb, err)
	}

	columns := columnarRows(rows)
	if err := setStructFieldBuffers(query, &columns); err != nil {
		return errors.Join(ErrWriteArrayTdb, err)
	}

	if err := query.Submit(); err != nil {
		return errors.Join(ErrWriteArrayTdb, err)
	}

	return nil
}

// rowColumns is the column-major transposition of []TiledbRow that
// setStructFieldBuffers expects: one slice per field, not one struct per row.
type rowColumns struct {
	PriCoarse            []uint32
	SeqCount             []uint16
	PriX                 []int32
	PriY                 []int32
	PriZ                 []int32
	PriRange             []uint8
	PriNull              []uint8
	SecX                 []int32
	SecY                 []int32
	SecZ                 []int32
	SecRange             []uint8
	SecNull              []uint8
	PriFine              []uint16
	SecCoarse            []uint32
	SecFine              []uint16
	Compression          []uint8
	CompressionWidthBits []uint8
	PriActive            []uint8
	SecActive            []uint8
	Timestamp            []time.Time
}

// columnarRows transposes row-major TiledbRow values into rowColumns.
func columnarRows(rows []TiledbRow) rowColumns {
	cols := rowColumns{
		PriCoarse:            make([]uint32, len(rows)),
		SeqCount:             make([]uint16, len(rows)),
		PriX:                 make([]int32, len(rows)),
		PriY:                 make([]int32, len(rows)),
		PriZ:                 make([]int32, len(rows)),
		PriRange:             make([]uint8, len(rows)),
		PriNull:              make([]uint8, len(rows)),
		SecX:                 make([]int32, len(rows)),
		SecY:                 make([]int32, len(rows)),
		SecZ:                 make([]int32, len(rows)),
		SecRange:             make([]uint8, len(rows)),
		SecNull:              make([]uint8, len(rows)),
		PriFine:              make([]uint16, len(rows)),
		SecCoarse:            make([]uint32, len(rows)),
		SecFine:              make([]uint16, len(rows)),
		Compression:          make([]uint8, len(rows)),
		CompressionWidthBits: make([]uint8, len(rows)),
		PriActive:            make([]uint8, len(rows)),
		SecActive:            make([]uint8, len(rows)),
		Timestamp:            make([]time.Time, len(rows)),
	}
	for i, r := range rows {
		cols.PriCoarse[i] = r.PriCoarse
		cols.SeqCount[i] = r.SeqCount
		cols.PriX[i] = r.PriX
		cols.PriY[i] = r.PriY
		cols.PriZ[i] = r.PriZ
		cols.PriRange[i] = r.PriRange
		cols.PriNull[i] = r.PriNull
		cols.SecX[i] = r.SecX
		cols.SecY[i] = r.SecY
		cols.SecZ[i] = r.SecZ
		cols.SecRange[i] = r.SecRange
		cols.SecNull[i] = r.SecNull
		cols.PriFine[i] = r.PriFine
		cols.SecCoarse[i] = r.SecCoarse
		cols.SecFine[i] = r.SecFine
		cols.Compression[i] = r.Compression
		cols.CompressionWidthBits[i] = r.CompressionWidthBits
		cols.PriActive[i] = r.PriActive
		cols.SecActive[i] = r.SecActive
		cols.Timestamp[i] = r.Timestamp
	}
	return cols
}
