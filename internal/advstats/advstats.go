// Package advstats aggregates classified play-by-play events into derived
// player metrics. Everything here is a pure function of already-read rows;
// reading them is the caller's job.
package advstats

import (
	"math"

	"github.com/fortuna/rinkside/internal/pbp"
)

// Options selects the situation and shot-quality policy of an aggregation.
type Options struct {
	Situation pbp.Situation

	// IncludeBlockedSC counts blocked attempts toward scoring chances.
	IncludeBlockedSC bool

	// IncludeBlockedXG counts blocked attempts toward xG.
	IncludeBlockedXG bool
}

// DefaultOptions counts blocked attempts as chances but not as xG, in all
// situations.
func DefaultOptions() Options {
	return Options{
		Situation:        pbp.Situation{State: pbp.NoFilter(), Strength: pbp.NoFilter()},
		IncludeBlockedSC: true,
	}
}

// Pair is a for/against count with its share and differential.
type Pair struct {
	For     int      `json:"for"`
	Against int      `json:"against"`
	Pct     *float64 `json:"pct"`
	Diff    int      `json:"diff"`
}

func newPair(f, a int) Pair {
	return Pair{For: f, Against: a, Pct: share(float64(f), float64(a)), Diff: f - a}
}

// XGPair is a for/against xG sum rounded to three decimals.
type XGPair struct {
	For     float64  `json:"for"`
	Against float64  `json:"against"`
	Pct     *float64 `json:"pct"`
	Diff    float64  `json:"diff"`
}

func newXGPair(f, a float64) XGPair {
	f, a = round(f, 3), round(a, 3)
	p := XGPair{For: f, Against: a, Diff: round(f-a, 3)}
	if f+a > 0 {
		p.Pct = ptr(round(100*f/(f+a), 1))
	}
	return p
}

// share is 100*f/(f+a) to one decimal, or nil when there is nothing to share.
func share(f, a float64) *float64 {
	if f+a == 0 {
		return nil
	}
	return ptr(round(100*f/(f+a), 1))
}

func round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}

func ptr(v float64) *float64 { return &v }

// counts tallies one side of the shot classification.
type counts struct {
	corsi, fenwick, shots, goals int
	chances, high, medium, low   int
	xg                           float64
}

func (c *counts) add(ev pbp.Event, m pbp.Model, opts Options) {
	if pbp.IsCorsi(ev) {
		c.corsi++
	}
	if pbp.IsFenwick(ev) {
		c.fenwick++
	}
	if pbp.IsShotOnGoal(ev) {
		c.shots++
	}
	if pbp.IsGoal(ev) {
		c.goals++
	}

	if ch := m.Chance(ev, opts.IncludeBlockedSC); ch.Scoring {
		c.chances++
		switch ch.Danger {
		case pbp.DangerHigh:
			c.high++
		case pbp.DangerMedium:
			c.medium++
		case pbp.DangerLow:
			c.low++
		}
	}

	if pbp.IsAttempt(ev, opts.IncludeBlockedXG) {
		c.xg += m.ExpectedGoal(ev)
	}
}
