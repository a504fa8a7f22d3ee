package pbp

// IsCorsi reports whether ev is a shot attempt.
func IsCorsi(ev Event) bool {
	return ev.Type == EventShot || ev.Type == EventGoal
}

// IsFenwick reports whether ev is an unblocked shot attempt.
func IsFenwick(ev Event) bool {
	return IsCorsi(ev) && !ev.Blocked
}

// IsShotOnGoal reports whether ev is a goal or a shot that reached the goalie.
func IsShotOnGoal(ev Event) bool {
	return ev.Type == EventGoal || (ev.Type == EventShot && ev.OnGoal)
}

// IsGoal reports whether ev is a goal.
func IsGoal(ev Event) bool {
	return ev.Type == EventGoal
}

// IsAttempt selects the Corsi set when includeBlocked, else the Fenwick set.
func IsAttempt(ev Event, includeBlocked bool) bool {
	if includeBlocked {
		return IsCorsi(ev)
	}
	return IsFenwick(ev)
}

// Danger is the shot-quality band of a scoring chance.
type Danger int

const (
	DangerNone Danger = iota
	DangerLow
	DangerMedium
	DangerHigh
)

func (d Danger) String() string {
	switch d {
	case DangerLow:
		return "low"
	case DangerMedium:
		return "medium"
	case DangerHigh:
		return "high"
	default:
		return "none"
	}
}

// ChanceThresholds are the distance cutoffs, in feet, for scoring chances.
type ChanceThresholds struct {
	ScoringFt      float64 `koanf:"scoring_ft" json:"scoring_ft"`
	HighDangerFt   float64 `koanf:"high_danger_ft" json:"high_danger_ft"`
	MediumDangerFt float64 `koanf:"medium_danger_ft" json:"medium_danger_ft"`
}

// DefaultChanceThresholds returns SC 40ft, HD 20ft, MD 30ft.
func DefaultChanceThresholds() ChanceThresholds {
	return ChanceThresholds{ScoringFt: 40, HighDangerFt: 20, MediumDangerFt: 30}
}

// Chance is the scoring-chance classification of one attempt.
type Chance struct {
	Scoring bool
	Danger  Danger
}

// Classify buckets a shot distance. HD is [0, HD], MD is (HD, MD] and LD is
// (MD, SC]; anything beyond SC is not a chance.
func (t ChanceThresholds) Classify(distanceFt float64) Chance {
	if distanceFt > t.ScoringFt {
		return Chance{}
	}
	switch {
	case distanceFt <= t.HighDangerFt:
		return Chance{Scoring: true, Danger: DangerHigh}
	case distanceFt <= t.MediumDangerFt:
		return Chance{Scoring: true, Danger: DangerMedium}
	default:
		return Chance{Scoring: true, Danger: DangerLow}
	}
}
