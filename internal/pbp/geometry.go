package pbp

import "math"

// Rink maps the feed's logical coordinate grid onto physical rink dimensions.
type Rink struct {
	XMax     float64 `koanf:"x_max" json:"x_max"`
	YMax     float64 `koanf:"y_max" json:"y_max"`
	LengthFt float64 `koanf:"length_ft" json:"length_ft"`
	WidthFt  float64 `koanf:"width_ft" json:"width_ft"`
}

// DefaultRink is a 700x300 grid over a 200ft x 85ft sheet.
func DefaultRink() Rink {
	return Rink{XMax: 700, YMax: 300, LengthFt: 200, WidthFt: 85}
}

// ShotGeometry is a shot location relative to the nearer goal end.
type ShotGeometry struct {
	DistanceFt float64 `json:"distance_ft"`
	AngleDeg   float64 `json:"angle_deg"`
}

// Locate converts raw coordinates into distance and angle. Missing
// coordinates count as 0 and everything is clamped onto the grid. Distance
// along the long axis is measured to whichever end is nearer.
func (r Rink) Locate(x, y *float64) ShotGeometry {
	if r.XMax <= 0 || r.YMax <= 0 {
		return ShotGeometry{}
	}

	cx := clamp(deref(x), 0, r.XMax)
	cy := clamp(deref(y), 0, r.YMax)

	dx := math.Min(cx, r.XMax-cx) * (r.LengthFt / r.XMax)
	dy := math.Abs(cy-r.YMax/2) * (r.WidthFt / r.YMax)

	return ShotGeometry{
		DistanceFt: math.Sqrt(dx*dx + dy*dy),
		AngleDeg:   math.Atan2(dy, dx) * 180 / math.Pi,
	}
}

func deref(v *float64) float64 {
	if v == nil || math.IsNaN(*v) {
		return 0
	}
	return *v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
