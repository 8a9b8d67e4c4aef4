package magsci

import (
	"strconv"
	"time"

	"github.com/samber/lo"
)

// QualityInfo summarises cross-packet consistency for a batch of decoded
// science packets, flagging the same classes of anomaly the original
// bathymetry tooling looked for in ping data: inconsistent row counts,
// duplicate timestamps, and a mixed rate configuration within one file.
type QualityInfo struct {
	MinMaxVectors   [2]uint16
	ConsistentCount bool
	DuplicateTimes  []time.Time
	ConsistentRates bool
}

// Clean reports whether the assessed batch showed no cross-packet anomalies.
func (q QualityInfo) Clean() bool {
	return q.ConsistentCount && q.ConsistentRates && len(q.DuplicateTimes) == 0
}

// AssessQuality inspects packets and reports a QualityInfo summary.
func AssessQuality(packets []SciencePacket) QualityInfo {
	n := len(packets)
	counts := make([]uint16, n)
	timestamps := make([]time.Time, n)
	rateKeys := make([]string, 0, n)

	for i, p := range packets {
		counts[i] = uint16(len(p.Vectors))
		timestamps[i] = AbsoluteTime(p.PriCoarse, p.PriFine)
		rateKeys = append(rateKeys, rateKey(p.PriVecSec, p.SecVecSec))
	}

	qa := QualityInfo{ConsistentCount: true}
	if n > 0 {
		maxCount := lo.Max(counts)
		minCount := lo.Min(counts)
		qa.MinMaxVectors = [2]uint16{minCount, maxCount}
		qa.ConsistentCount = minCount == maxCount
	}

	qa.DuplicateTimes = lo.FindDuplicates(timestamps)
	qa.ConsistentRates = len(lo.Union(rateKeys)) <= 1

	return qa
}

func rateKey(pri, sec int) string {
	return strconv.Itoa(pri) + "," + strconv.Itoa(sec)
}
