package tables

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

type sortKey struct {
	declared string
	desc     bool
}

func (t *Table) buildSnapshot() {
	declared := make(map[string]bool, t.cols.Len())
	for _, name := range t.cols.Names() {
		declared[name] = true
	}

	snap := make([]Row, len(t.data))
	for i, row := range t.data {
		cp := make(Row, len(declared))
		for k, v := range row {
			if t.keepUnknown || declared[k] {
				cp[k] = v
			}
		}
		// missing declared columns get their default under the DECLARED
		// name, so defaults participate in sorting
		for _, d := range t.cols.Items() {
			if _, ok := cp[d.Name]; !ok {
				cp[d.Name] = d.Column.Default
			}
		}
		snap[i] = cp
	}

	if keys := t.sortKeys(); len(keys) > 0 {
		sort.SliceStable(snap, func(i, j int) bool {
			for _, k := range keys {
				c := compareValues(snap[i][k.declared], snap[j][k.declared])
				if k.desc {
					c = -c
				}
				if c != 0 {
					return c < 0
				}
			}
			return false
		})
	}
	t.snapshot = snap
}

// sortKeys resolves the sort spec's exposed names to declared names at
// build time. Entries invalidated by column mutations since SetOrderBy
// drop out silently.
func (t *Table) sortKeys() []sortKey {
	keys := make([]sortKey, 0, len(t.orderBy))
	for _, ident := range t.orderBy {
		k := sortKey{}
		name := ident
		if strings.HasPrefix(ident, "-") {
			k.desc = true
			name = ident[1:]
		}
		bc, err := t.registry.Get(name)
		if err != nil {
			continue
		}
		k.declared = bc.DeclaredName()
		keys = append(keys, k)
	}
	return keys
}

// Cross-type comparisons follow a fixed type rank so sorting mixed data is
// deterministic. Nil sorts first ascending.
const (
	rankNil = iota
	rankBool
	rankNumber
	rankString
	rankTime
	rankOther
)

func typeRank(v any) int {
	switch v.(type) {
	case nil:
		return rankNil
	case bool:
		return rankBool
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return rankNumber
	case string:
		return rankString
	case time.Time:
		return rankTime
	default:
		return rankOther
	}
}

// compareValues is a total order over snapshot values, returning -1, 0 or 1.
func compareValues(a, b any) int {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch ra {
	case rankNil:
		return 0
	case rankBool:
		av, bv := a.(bool), b.(bool)
		if av == bv {
			return 0
		}
		if !av {
			return -1
		}
		return 1
	case rankNumber:
		av, _ := toFloat(a)
		bv, _ := toFloat(b)
		if av < bv {
			return -1
		}
		if av > bv {
			return 1
		}
		return 0
	case rankString:
		return strings.Compare(a.(string), b.(string))
	case rankTime:
		at, bt := a.(time.Time), b.(time.Time)
		if at.Before(bt) {
			return -1
		}
		if at.After(bt) {
			return 1
		}
		return 0
	default:
		return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
