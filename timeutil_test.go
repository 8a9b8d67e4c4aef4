package magsci

import (
	"testing"
	"time"
)

func TestHumaniseTimedelta(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{2*time.Hour + 3*time.Minute, "2h 3m 0.000s"},
		{90 * time.Second, "1m 30.000s"},
		{500 * time.Millisecond, "0.500s"},
	}

	for _, c := range cases {
		if got := HumaniseTimedelta(c.d); got != c.want {
			t.Errorf("HumaniseTimedelta(%v) = %q, want %q", c.d, got, c.want)
		}
	}
}

func TestAbsoluteTimeAdvancesWithFine(t *testing.T) {
	a := AbsoluteTime(1000, 0)
	b := AbsoluteTime(1000, MaxFineTime/2)
	if !b.After(a) {
		t.Error("expected a later fine value to produce a later absolute time")
	}
}

func TestJulianDayIncreasesWithCoarse(t *testing.T) {
	jd1 := JulianDay(1000, 0)
	jd2 := JulianDay(100000, 0)
	if jd2 <= jd1 {
		t.Errorf("JulianDay did not increase: %f vs %f", jd1, jd2)
	}
}
