package core

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// TimeBucket selects how flow times are grouped before counts are summed.
type TimeBucket string

const (
	BucketExact TimeBucket = "exact"
	BucketHour  TimeBucket = "hour"
	BucketDay   TimeBucket = "day"
)

// ParseTimeBucket converts a config or flag value. Empty means exact.
func ParseTimeBucket(s string) (TimeBucket, error) {
	switch b := TimeBucket(strings.ToLower(strings.TrimSpace(s))); b {
	case "":
		return BucketExact, nil
	case BucketExact, BucketHour, BucketDay:
		return b, nil
	}
	return "", fmt.Errorf("invalid time bucket %q (want exact, hour or day)", s)
}

// PrepareOptions controls flow aggregation.
type PrepareOptions struct {
	Bucket TimeBucket
	// Location defines hour and day boundaries. Nil means UTC.
	Location *time.Location
}

type flowKey struct {
	origin, dest string
	hasTime      bool
	at           int64
}

type flowGroup struct {
	flow     Flow
	sum      float64
	numbered bool
}

// PrepareFlows trims endpoint ids and merges flows that share origin,
// destination and time bucket by summing their counts. NaN counts are
// skipped while any other count in the group is a number; a group with only
// NaN counts keeps NaN. Flows with an invalid time are emitted as-is and
// never merged. The first occurrence of a group fixes its output position.
func PrepareFlows(flows []Flow, opts PrepareOptions) []Flow {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	out := make([]*flowGroup, 0, len(flows))
	index := make(map[flowKey]*flowGroup, len(flows))

	for _, f := range flows {
		f.Origin = normalizeID(f.Origin)
		f.Dest = normalizeID(f.Dest)

		if f.Time != nil && !f.Time.Valid {
			out = append(out, &flowGroup{flow: f, sum: f.Count, numbered: !math.IsNaN(f.Count)})
			continue
		}

		key := flowKey{origin: f.Origin, dest: f.Dest}
		if f.Time != nil {
			start := bucketStart(f.Time.Time, opts.Bucket, loc)
			key.hasTime = true
			key.at = start.UnixNano()
			f.Time = ValidTime(start)
		}

		g, ok := index[key]
		if !ok {
			g = &flowGroup{flow: f, sum: math.NaN()}
			index[key] = g
			out = append(out, g)
		}
		g.add(f.Count)
	}

	result := make([]Flow, len(out))
	for i, g := range out {
		g.flow.Count = g.sum
		result[i] = g.flow
	}
	return result
}

func (g *flowGroup) add(count float64) {
	if math.IsNaN(count) {
		return
	}
	if !g.numbered {
		g.sum = count
		g.numbered = true
		return
	}
	g.sum += count
}

// bucketStart returns the start of the bucket containing t.
func bucketStart(t time.Time, bucket TimeBucket, loc *time.Location) time.Time {
	switch bucket {
	case BucketHour:
		lt := t.In(loc)
		return time.Date(lt.Year(), lt.Month(), lt.Day(), lt.Hour(), 0, 0, 0, loc)
	case BucketDay:
		lt := t.In(loc)
		return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
	}
	return t
}
