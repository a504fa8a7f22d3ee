package store

import (
	"strings"

	"github.com/fortuna/rinkside/internal/advstats"
)

// AdvStatsTable is the table derived rows are written to.
const AdvStatsTable = "player_adv_stats"

// UpsertAdvStatsSQL renders the insert-or-update statement for one derived
// row. placeholder renders the n-th (1-based) bind parameter, so the same
// statement serves "$n" and "?" dialects.
func UpsertAdvStatsSQL(placeholder func(n int) string) string {
	names := advstats.ColumnNames()
	key := make(map[string]bool, len(advstats.KeyColumns))
	for _, k := range advstats.KeyColumns {
		key[k] = true
	}

	params := make([]string, len(names))
	var updates []string
	for i, n := range names {
		params[i] = placeholder(i + 1)
		if !key[n] {
			updates = append(updates, n+" = excluded."+n)
		}
	}

	var b strings.Builder
	b.WriteString("INSERT INTO " + AdvStatsTable + " (")
	b.WriteString(strings.Join(names, ", "))
	b.WriteString(") VALUES (")
	b.WriteString(strings.Join(params, ", "))
	b.WriteString(") ON CONFLICT (")
	b.WriteString(strings.Join(advstats.KeyColumns, ", "))
	b.WriteString(") DO UPDATE SET ")
	b.WriteString(strings.Join(updates, ", "))
	return b.String()
}
