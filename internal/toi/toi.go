// Package toi sanitizes per-game time-on-ice logs and picks the bucket used
// as a rate denominator.
package toi

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// MaxSeconds caps a plausible single-game TOI pick.
const MaxSeconds = 7200

// Raw is a player's TOI row as stored, in seconds.
type Raw struct {
	Total int `json:"total_toi"`
	EV    int `json:"ev_toi"`
	PP    int `json:"pp_toi"`
	SH    int `json:"sh_toi"`
}

// Buckets is a sanitized TOI row.
type Buckets struct {
	Total     int  `json:"total_toi"`
	EV        int  `json:"ev_toi"`
	PP        int  `json:"pp_toi"`
	SH        int  `json:"sh_toi"`
	PartsSane bool `json:"parts_sane"`
}

// Tolerance bounds how far the parts may drift from the total and still be
// considered consistent: the greater of MinSeconds and Fraction of total.
type Tolerance struct {
	MinSeconds int     `koanf:"min_seconds" json:"min_seconds"`
	Fraction   float64 `koanf:"fraction" json:"fraction"`
}

// DefaultTolerance is 30 seconds or 10%.
func DefaultTolerance() Tolerance {
	return Tolerance{MinSeconds: 30, Fraction: 0.10}
}

// Allowed returns the tolerated drift for a total.
func (t Tolerance) Allowed(total int) int {
	return max(t.MinSeconds, int(math.Round(float64(total)*t.Fraction)))
}

// Sanitize clamps negatives, rebuilds a missing total from the parts and
// flags whether the parts reconcile with the total.
func Sanitize(r Raw, tol Tolerance) Buckets {
	b := Buckets{
		Total: max(r.Total, 0),
		EV:    max(r.EV, 0),
		PP:    max(r.PP, 0),
		SH:    max(r.SH, 0),
	}

	sum := b.EV + b.PP + b.SH
	if b.Total <= 0 && sum > 0 {
		b.Total = sum
	}

	diff := sum - b.Total
	if diff < 0 {
		diff = -diff
	}
	b.PartsSane = b.Total > 0 && sum > 0 && diff <= tol.Allowed(b.Total)
	return b
}

// Bucket names one TOI column.
type Bucket string

const (
	BucketTotal Bucket = "total"
	BucketEV    Bucket = "ev"
	BucketPP    Bucket = "pp"
	BucketSH    Bucket = "sh"
)

var manpowerPattern = regexp.MustCompile(`^([0-9]+)v([0-9]+)$`)

// BucketFor chooses the bucket for a situational filter. An explicit
// strength wins; otherwise the state token decides, with equal-manpower
// keys such as 4v4 counted as even strength.
func BucketFor(state, strength string) Bucket {
	switch strings.ToUpper(strings.TrimSpace(strength)) {
	case "EV":
		return BucketEV
	case "PP":
		return BucketPP
	case "SH":
		return BucketSH
	}

	s := strings.ToLower(strings.TrimSpace(state))
	switch s {
	case "", "all", "total":
		return BucketTotal
	case "5v5", "ev", "even":
		return BucketEV
	case "pp":
		return BucketPP
	case "sh":
		return BucketSH
	}

	if m := manpowerPattern.FindStringSubmatch(s); m != nil {
		home, _ := strconv.Atoi(m[1])
		away, _ := strconv.Atoi(m[2])
		if home == away {
			return BucketEV
		}
	}
	return BucketTotal
}

// Pick returns the seconds in bucket k, or def when there are none. A zero
// EV bucket is rebuilt as total minus special teams when that is plausible.
// Values beyond MaxSeconds are discarded.
func Pick(b Buckets, k Bucket, def int) int {
	var v int
	switch k {
	case BucketEV:
		v = b.EV
		if v <= 0 {
			if calc := b.Total - b.PP - b.SH; calc > 0 && calc < b.Total {
				v = calc
			}
		}
	case BucketPP:
		v = b.PP
	case BucketSH:
		v = b.SH
	default:
		v = b.Total
	}

	if v < 0 || v > MaxSeconds {
		v = 0
	}
	if v <= 0 {
		return def
	}
	return v
}
