package queryexec

import (
	"sort"

	"github.com/liliang-cn/searchsim/internal/lexical"
	"github.com/liliang-cn/searchsim/internal/value"
)

// orderKeysForResponse applies §4.6 step 7: an explicit orderBy if present,
// else descending score; ties always break on ascending document key.
func orderKeysForResponse(scores map[string]float64, orderBy []OrderClause, lex *lexical.Index) []string {
	if len(orderBy) == 0 {
		return orderedKeys(scores)
	}
	keys := make([]string, 0, len(scores))
	for k := range scores {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, aok := lex.Get(keys[i])
		b, bok := lex.Get(keys[j])
		for _, clause := range orderBy {
			var av, bv value.Value
			if aok {
				av = a[clause.Field]
			}
			if bok {
				bv = b[clause.Field]
			}
			c := av.Compare(bv)
			if c == 0 {
				continue
			}
			if clause.Descending {
				return c > 0
			}
			return c < 0
		}
		return keys[i] < keys[j]
	})
	return keys
}
