package translate

import "fmt"

// pathAlias extends a dotted FROM alias with the next table segment: "base"
// at the root of a top-level field's own lowering call, then
// "base.<Table>", "base.<Table>.<Table>", and so on as selections nest.
// Each top-level field gets a fresh "base" — they never share a FROM
// clause, so the reused root name cannot collide.
func pathAlias(parent, table string) string {
	if parent == "" {
		return "base"
	}
	return parent + "." + table
}

// aliasArena allocates the "root.<Type>" sibling namespace a selection's
// LATERAL-joined children (and inline-fragment branches) live in,
// disambiguating repeats of the same type name under one parent with a
// numeric suffix. One arena is shared across an entire top-level field's
// lowering call.
type aliasArena struct {
	counters map[string]map[string]int
}

func newAliasArena() *aliasArena {
	return &aliasArena{counters: make(map[string]map[string]int)}
}

// siblingAlias allocates the next root.<typeName> alias under parentAlias.
func (a *aliasArena) siblingAlias(parentAlias, typeName string) string {
	byType, ok := a.counters[parentAlias]
	if !ok {
		byType = make(map[string]int)
		a.counters[parentAlias] = byType
	}
	n := byType[typeName]
	byType[typeName] = n + 1
	if n == 0 {
		return "root." + typeName
	}
	return fmt.Sprintf("root.%s%d", typeName, n+1)
}
