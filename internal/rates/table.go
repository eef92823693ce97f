package rates

import (
	"strings"

	"github.com/garyjia/billing-audit/internal/models"
)

// Entry is one priced service within a scope.
type Entry struct {
	ServiceName string
	Rate        float64
}

// Table holds the two independent pricing scopes. It is built once at
// startup and never mutated afterwards, so concurrent lookups need no
// locking.
type Table struct {
	scopes map[models.Scheme]*scope
}

type scope struct {
	entries map[string]Entry
	// folded maps the uppercased code to the canonical sheet code for the
	// case-insensitive fallback. The first code to claim a folded key keeps
	// it even when later rows overwrite the entry itself.
	folded map[string]string
}

func NewTable() *Table {
	return &Table{
		scopes: map[models.Scheme]*scope{
			models.SchemeStandard: newScope(),
			models.SchemeCGHS:     newScope(),
		},
	}
}

func newScope() *scope {
	return &scope{
		entries: make(map[string]Entry),
		folded:  make(map[string]string),
	}
}

// Add stores one entry under its scope. The last entry for a repeated code
// wins.
func (t *Table) Add(scheme models.Scheme, code string, e Entry) {
	sc, ok := t.scopes[scheme]
	if !ok {
		return
	}
	upper := strings.ToUpper(code)
	if _, claimed := sc.folded[upper]; !claimed {
		sc.folded[upper] = code
	}
	sc.entries[code] = e
}

// Lookup resolves a service code within one scope: exact match first, then
// a case-insensitive fallback. canonical is the sheet code that actually
// matched, which may differ from the query in case.
func (t *Table) Lookup(scheme models.Scheme, code string) (canonical string, e Entry, ok bool) {
	sc, found := t.scopes[scheme]
	if !found {
		return "", Entry{}, false
	}
	if e, ok := sc.entries[code]; ok {
		return code, e, true
	}
	if canonical, ok := sc.folded[strings.ToUpper(code)]; ok {
		return canonical, sc.entries[canonical], true
	}
	return "", Entry{}, false
}

// Count reports how many codes one scope carries.
func (t *Table) Count(scheme models.Scheme) int {
	if sc, ok := t.scopes[scheme]; ok {
		return len(sc.entries)
	}
	return 0
}
