package pbp

import "math"

// XGCoefficients parameterize the logistic expected-goals heuristic over
// distance (ft), angle (deg) and their product.
type XGCoefficients struct {
	Intercept   float64 `koanf:"intercept" json:"intercept"`
	Distance    float64 `koanf:"distance" json:"distance"`
	Angle       float64 `koanf:"angle" json:"angle"`
	Interaction float64 `koanf:"interaction" json:"interaction"`
}

// DefaultXGCoefficients returns the published heuristic weights.
func DefaultXGCoefficients() XGCoefficients {
	return XGCoefficients{
		Intercept:   -1.90,
		Distance:    -0.025,
		Angle:       -0.008,
		Interaction: 0.00040,
	}
}

// Probability evaluates the heuristic for a shot location, clamped to [0, 1].
func (c XGCoefficients) Probability(g ShotGeometry) float64 {
	z := c.Intercept +
		c.Distance*g.DistanceFt +
		c.Angle*g.AngleDeg +
		c.Interaction*g.DistanceFt*g.AngleDeg

	p := 1 / (1 + math.Exp(-z))
	if math.IsNaN(p) {
		return 0
	}
	return clamp(p, 0, 1)
}

// FeedValue returns the feed-supplied xG when it is positive, capped at 1.
// Zero, blank and negative values fall back to the heuristic.
func (ev Event) FeedValue() (float64, bool) {
	if ev.FeedXG == nil {
		return 0, false
	}
	v := *ev.FeedXG
	if math.IsNaN(v) || v <= 0 {
		return 0, false
	}
	return math.Min(v, 1), true
}

// Model bundles every tunable constant of the per-event rules.
type Model struct {
	Rink    Rink             `koanf:"rink" json:"rink"`
	Chances ChanceThresholds `koanf:"chances" json:"chances"`
	XG      XGCoefficients   `koanf:"xg" json:"xg"`
}

// DefaultModel returns the standard rink, thresholds and xG weights.
func DefaultModel() Model {
	return Model{
		Rink:    DefaultRink(),
		Chances: DefaultChanceThresholds(),
		XG:      DefaultXGCoefficients(),
	}
}

// Geometry locates ev on the rink.
func (m Model) Geometry(ev Event) ShotGeometry {
	return m.Rink.Locate(ev.XRaw, ev.YRaw)
}

// Chance classifies ev as a scoring chance. The attempt set is Corsi when
// includeBlocked, else Fenwick; non-attempts are never chances.
func (m Model) Chance(ev Event, includeBlocked bool) Chance {
	if !IsAttempt(ev, includeBlocked) {
		return Chance{}
	}
	return m.Chances.Classify(m.Geometry(ev).DistanceFt)
}

// ExpectedGoal returns the xG of ev: the feed value when positive, otherwise
// the heuristic. The choice is made per event.
func (m Model) ExpectedGoal(ev Event) float64 {
	if v, ok := ev.FeedValue(); ok {
		return v
	}
	return m.XG.Probability(m.Geometry(ev))
}
