package rest

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/fortuna/rinkside/internal/advstats"
	"github.com/fortuna/rinkside/internal/pbp"
)

// pathID reads a numeric path variable. Anything unparsable is 0, which the
// engine treats as an unknown id.
func pathID(r *http.Request, name string) int64 {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func situation(q url.Values) pbp.Situation {
	return pbp.NewSituation(q["state"], q.Get("strength"))
}

func boolParam(q url.Values, name string, def bool) bool {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

func floatParam(q url.Values, name string, def float64) float64 {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return v
}

func intParam(q url.Values, name string, def int) int {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func aggregateOptions(q url.Values) advstats.Options {
	opts := advstats.DefaultOptions()
	opts.Situation = situation(q)
	opts.IncludeBlockedSC = boolParam(q, "include_blocked_sc", opts.IncludeBlockedSC)
	opts.IncludeBlockedXG = boolParam(q, "include_blocked_xg", opts.IncludeBlockedXG)
	return opts
}

func garOptions(q url.Values, base advstats.GAROptions) advstats.GAROptions {
	opts := base
	opts.Situation = situation(q)
	opts.Fenwick = boolParam(q, "fenwick", false)
	opts.Weights.GoalsPerCorsi = floatParam(q, "goals_per_corsi", base.Weights.GoalsPerCorsi)
	opts.Weights.GoalsPerPenalty = floatParam(q, "goals_per_penalty", base.Weights.GoalsPerPenalty)
	opts.Weights.GoalsPerWin = floatParam(q, "goals_per_win", base.Weights.GoalsPerWin)
	opts.Weights.IncludeCorsi = boolParam(q, "include_corsi", base.Weights.IncludeCorsi)
	return opts
}

// sliceParam defaults to 5v5 like the rebuild does for unknown tokens.
func sliceParam(q url.Values) advstats.Slice {
	if sl, ok := advstats.ParseSlice(q.Get("slice")); ok {
		return sl
	}
	return advstats.Slice5v5
}
