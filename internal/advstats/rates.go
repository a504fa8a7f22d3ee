package advstats

// RatePer60 normalizes a count to a per-60-minutes rate, rounded to two
// decimals. It is nil without ice time, which keeps "no TOI" distinct from a
// real zero.
func RatePer60(count float64, toiSeconds int) *float64 {
	if toiSeconds <= 0 {
		return nil
	}
	return ptr(round(count*3600/float64(toiSeconds), 2))
}

// PairRates are the per-60 rates of a Pair.
type PairRates struct {
	For     *float64 `json:"for_60"`
	Against *float64 `json:"against_60"`
	Diff    *float64 `json:"diff_60"`
}

func pairRates(p Pair, toiSeconds int) PairRates {
	return PairRates{
		For:     RatePer60(float64(p.For), toiSeconds),
		Against: RatePer60(float64(p.Against), toiSeconds),
		Diff:    RatePer60(float64(p.Diff), toiSeconds),
	}
}

// OnIceRates are the per-60 rates of an OnIceSummary.
type OnIceRates struct {
	TOISeconds     int       `json:"TOI_seconds"`
	Corsi          PairRates `json:"corsi"`
	Fenwick        PairRates `json:"fenwick"`
	Shots          PairRates `json:"shots"`
	Goals          PairRates `json:"goals"`
	ScoringChances PairRates `json:"scoring_chances"`
	HighDanger     PairRates `json:"high_danger"`
	MediumDanger   PairRates `json:"medium_danger"`
	LowDanger      PairRates `json:"low_danger"`
	XG             PairRates `json:"xg"`
}

// OnIceRatesFor normalizes every count, xG sum and differential of s.
func OnIceRatesFor(s OnIceSummary, toiSeconds int) OnIceRates {
	return OnIceRates{
		TOISeconds:     toiSeconds,
		Corsi:          pairRates(s.Corsi, toiSeconds),
		Fenwick:        pairRates(s.Fenwick, toiSeconds),
		Shots:          pairRates(s.Shots, toiSeconds),
		Goals:          pairRates(s.Goals, toiSeconds),
		ScoringChances: pairRates(s.ScoringChances, toiSeconds),
		HighDanger:     pairRates(s.HighDanger, toiSeconds),
		MediumDanger:   pairRates(s.MediumDanger, toiSeconds),
		LowDanger:      pairRates(s.LowDanger, toiSeconds),
		XG: PairRates{
			For:     RatePer60(s.XG.For, toiSeconds),
			Against: RatePer60(s.XG.Against, toiSeconds),
			Diff:    RatePer60(s.XG.Diff, toiSeconds),
		},
	}
}

// IndividualRates are the per-60 rates of an IndividualSummary.
type IndividualRates struct {
	TOISeconds int      `json:"TOI_seconds"`
	ICF        *float64 `json:"iCF_60"`
	IFF        *float64 `json:"iFF_60"`
	ISF        *float64 `json:"iSF_60"`
	IG         *float64 `json:"iG_60"`
	ISC        *float64 `json:"iSC_60"`
	IHDC       *float64 `json:"iHDC_60"`
	IMDC       *float64 `json:"iMDC_60"`
	ILDC       *float64 `json:"iLDC_60"`
	IXG        *float64 `json:"ixG_60"`
}

// IndividualRatesFor normalizes the individual counts of s.
func IndividualRatesFor(s IndividualSummary, toiSeconds int) IndividualRates {
	rate := func(v int) *float64 { return RatePer60(float64(v), toiSeconds) }
	return IndividualRates{
		TOISeconds: toiSeconds,
		ICF:        rate(s.ICF),
		IFF:        rate(s.IFF),
		ISF:        rate(s.ISF),
		IG:         rate(s.IG),
		ISC:        rate(s.ISC),
		IHDC:       rate(s.IHDC),
		IMDC:       rate(s.IMDC),
		ILDC:       rate(s.ILDC),
		IXG:        RatePer60(s.IXG, toiSeconds),
	}
}
