package symbols

import (
	"sort"
	"sync"

	"github.com/dshills/pawnls/pkg/types"
)

// document holds everything one source document contributed
type document struct {
	order   uint64
	symbols []types.Symbol
	byName  map[string][]int // name -> indexes into symbols
	words   []string
}

// binding is the candidate currently owning a name
type binding struct {
	sym   types.Symbol
	order uint64
	index int
}

// better reports whether a should own a name instead of b. Higher kinds
// win; among equal kinds the document seen first wins, then the earlier
// declaration in that document.
func (a binding) better(b binding) bool {
	if a.sym.Kind != b.sym.Kind {
		return a.sym.Kind.Outranks(b.sym.Kind)
	}
	if a.order != b.order {
		return a.order < b.order
	}
	return a.index < b.index
}

// Table is the global symbol table: at most one symbol per name across all
// documents, plus each document's free words.
//
// Every candidate a document produced is retained, so dropping or
// reparsing a document re-elects the best remaining candidate for each
// name it touched.
type Table struct {
	mu sync.RWMutex

	bound   map[string]binding
	docs    map[string]*document
	holders map[string]map[string]struct{} // name -> uris with a candidate
	next    uint64
	gen     uint64 // bumped on every mutation
}

// NewTable creates an empty table
func NewTable() *Table {
	return &Table{
		bound:   make(map[string]binding),
		docs:    make(map[string]*document),
		holders: make(map[string]map[string]struct{}),
	}
}

// Insert adds one candidate for sym.SourceURI's document and reports
// whether it now owns its name.
func (t *Table) Insert(sym types.Symbol) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.gen++
	doc := t.documentLocked(sym.SourceURI)
	doc.symbols = append(doc.symbols, sym)
	doc.byName[sym.Name] = append(doc.byName[sym.Name], len(doc.symbols)-1)
	t.hold(sym.Name, sym.SourceURI)

	t.elect(sym.Name)
	b, ok := t.bound[sym.Name]
	return ok && b.order == doc.order && b.index == len(doc.symbols)-1
}

// Replace atomically swaps everything uri contributed for the given
// candidates and words. Candidates are applied in order.
func (t *Table) Replace(uri string, candidates []types.Symbol, words []string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.gen++
	affected := t.dropLocked(uri)
	t.addLocked(uri, candidates, words, affected)
}

// Add appends candidates to what uri already contributed. Earlier
// candidates stay in place; non-empty words overwrite the document's words.
func (t *Table) Add(uri string, candidates []types.Symbol, words []string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.gen++
	t.addLocked(uri, candidates, words, make(map[string]struct{}))
}

func (t *Table) addLocked(uri string, candidates []types.Symbol, words []string, affected map[string]struct{}) {
	doc := t.documentLocked(uri)
	for _, sym := range candidates {
		sym.SourceURI = uri
		doc.symbols = append(doc.symbols, sym)
		doc.byName[sym.Name] = append(doc.byName[sym.Name], len(doc.symbols)-1)
		t.hold(sym.Name, uri)
		affected[sym.Name] = struct{}{}
	}
	if len(words) > 0 {
		doc.words = append([]string(nil), words...)
	}

	for name := range affected {
		t.elect(name)
	}
}

// Remove forgets a document's symbols and words
func (t *Table) Remove(uri string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.gen++
	affected := t.dropLocked(uri)
	delete(t.docs, uri)
	for name := range affected {
		t.elect(name)
	}
}

// Reset empties the table
func (t *Table) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.gen++
	t.bound = make(map[string]binding)
	t.docs = make(map[string]*document)
	t.holders = make(map[string]map[string]struct{})
}

// Generation changes whenever the table is modified
func (t *Table) Generation() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.gen
}

// Lookup finds the symbol bound to name. A tagged name such as
// "Float:floatsqrt" falls back to its untagged form.
func (t *Table) Lookup(name string) (types.Symbol, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lookupLocked(name)
}

func (t *Table) lookupLocked(name string) (types.Symbol, bool) {
	if b, ok := t.bound[name]; ok {
		return b.sym, true
	}
	if stripped := types.StripTag(name); stripped != name {
		if b, ok := t.bound[stripped]; ok {
			return b.sym, true
		}
	}
	return types.Symbol{}, false
}

// Symbols returns every bound symbol sorted by name
func (t *Table) Symbols() []types.Symbol {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]types.Symbol, 0, len(t.bound))
	for _, b := range t.bound {
		out = append(out, b.sym)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// DocumentSymbols returns the candidates uri produced, in extraction order
func (t *Table) DocumentSymbols(uri string) []types.Symbol {
	t.mu.RLock()
	defer t.mu.RUnlock()

	doc, ok := t.docs[uri]
	if !ok {
		return nil
	}
	out := make([]types.Symbol, len(doc.symbols))
	copy(out, doc.symbols)
	return out
}

// Words returns the free words of uri
func (t *Table) Words(uri string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	doc, ok := t.docs[uri]
	if !ok || len(doc.words) == 0 {
		return nil
	}
	out := make([]string, len(doc.words))
	copy(out, doc.words)
	return out
}

// Stats summarizes the table contents
type Stats struct {
	Symbols   int `json:"symbols"`
	Documents int `json:"documents"`
	Words     int `json:"words"`
}

// Stats returns current table counts
func (t *Table) Stats() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s := Stats{Symbols: len(t.bound), Documents: len(t.docs)}
	for _, doc := range t.docs {
		s.Words += len(doc.words)
	}
	return s
}

// documentLocked returns the document for uri, creating it if needed. A
// document keeps its order across reparses.
func (t *Table) documentLocked(uri string) *document {
	if doc, ok := t.docs[uri]; ok {
		return doc
	}
	t.next++
	doc := &document{order: t.next, byName: make(map[string][]int)}
	t.docs[uri] = doc
	return doc
}

// dropLocked clears uri's candidates and words but keeps its order. It
// returns the names that need a new election.
func (t *Table) dropLocked(uri string) map[string]struct{} {
	affected := make(map[string]struct{})
	doc, ok := t.docs[uri]
	if !ok {
		return affected
	}
	for name := range doc.byName {
		affected[name] = struct{}{}
		if set := t.holders[name]; set != nil {
			delete(set, uri)
			if len(set) == 0 {
				delete(t.holders, name)
			}
		}
	}
	doc.symbols = nil
	doc.byName = make(map[string][]int)
	doc.words = nil
	return affected
}

func (t *Table) hold(name, uri string) {
	set := t.holders[name]
	if set == nil {
		set = make(map[string]struct{})
		t.holders[name] = set
	}
	set[uri] = struct{}{}
}

// elect rebinds name to its best remaining candidate, or unbinds it
func (t *Table) elect(name string) {
	var best binding
	found := false
	for uri := range t.holders[name] {
		doc := t.docs[uri]
		for _, i := range doc.byName[name] {
			c := binding{sym: doc.symbols[i], order: doc.order, index: i}
			if !found || c.better(best) {
				best, found = c, true
			}
		}
	}
	if !found {
		delete(t.bound, name)
		return
	}
	t.bound[name] = best
}
