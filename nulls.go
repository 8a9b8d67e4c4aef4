package magsci

import "github.com/samber/lo"

// NullVector is the sentinel substituted for an absent sensor reading when a
// consumer needs a fixed-width numeric value rather than the CSV writer's
// empty-field representation — chiefly the TileDB archive sink, whose
// attribute buffers have no concept of a missing entry.
var NullVector = Vector{X: 0, Y: 0, Z: 0}

// resolveVector returns v if present, otherwise NullVector, alongside
// whether padding was applied.
func resolveVector(v *Vector) (Vector, bool) {
	return lo.Ternary(v != nil, lo.FromPtr(v), NullVector), v == nil
}

// PaddedRow is a DecodedRow with its primary/secondary vectors resolved to
// concrete values, with IsNull flags recording which (if either) were
// padded rather than decoded from the packet.
type PaddedRow struct {
	DecodedRow
	Primary       Vector
	Secondary     Vector
	PrimaryNull   bool
	SecondaryNull bool
}

// padRow fills in NullVector for whichever sensor reading is absent from row.
func padRow(row DecodedRow) PaddedRow {
	primary, primaryNull := resolveVector(row.Primary)
	secondary, secondaryNull := resolveVector(row.Secondary)
	return PaddedRow{
		DecodedRow:    row,
		Primary:       primary,
		Secondary:     secondary,
		PrimaryNull:   primaryNull,
		SecondaryNull: secondaryNull,
	}
}

// PadRows resolves every row in rows, replacing absent sensor readings with
// NullVector so the archive sink can emit uniform fixed-width records. The
// primary CSV writer does not use this: it writes empty fields directly
// from DecodedRow's nullable Primary/Secondary pointers.
func PadRows(rows []DecodedRow) []PaddedRow {
	out := make([]PaddedRow, len(rows))
	for i, row := range rows {
		out[i] = padRow(row)
	}
	return out
}
