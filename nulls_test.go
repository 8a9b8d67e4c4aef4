package magsci

import "testing"

func TestPadRowsFillsMissingSensor(t *testing.T) {
	primary := Vector{X: 1, Y: 2, Z: 3}
	rows := []DecodedRow{
		{PriCoarse: 100, Primary: &primary, Secondary: nil},
	}

	padded := PadRows(rows)
	if len(padded) != 1 {
		t.Fatalf("len(padded) = %d, want 1", len(padded))
	}
	if padded[0].PrimaryNull {
		t.Error("primary should not be null")
	}
	if !padded[0].SecondaryNull {
		t.Error("secondary should be null")
	}
	if padded[0].Secondary != NullVector {
		t.Errorf("secondary = %+v, want NullVector", padded[0].Secondary)
	}
}

func TestPadRowsBothPresent(t *testing.T) {
	primary := Vector{X: 1, Y: 2, Z: 3}
	secondary := Vector{X: 4, Y: 5, Z: 6}
	rows := []DecodedRow{{Primary: &primary, Secondary: &secondary}}

	padded := PadRows(rows)
	if padded[0].PrimaryNull || padded[0].SecondaryNull {
		t.Error("expected neither sensor to be flagged null")
	}
}
