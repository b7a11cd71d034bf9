package searcher

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hbollon/go-edlib"

	"github.com/dshills/pawnls/internal/storage"
	"github.com/dshills/pawnls/internal/symbols"
	"github.com/dshills/pawnls/pkg/types"
)

const (
	defaultLimit = 50
	maxLimit     = 500

	// minSimilarity is the Jaro-Winkler floor for names that do not
	// contain the query
	minSimilarity = 0.8
)

// SearchRequest contains parameters for a workspace symbol search
type SearchRequest struct {
	Query string
	Limit int
	// WorkspaceID enables the documentation index; 0 searches names only
	WorkspaceID int64
	// WorkspaceIDs adds more workspaces to the documentation search
	WorkspaceIDs []int64
	UseCache    bool
	CacheTTL    time.Duration
}

// SearchResponse contains search results and metadata
type SearchResponse struct {
	Results      []types.SearchResult
	TotalResults int
	Duration     time.Duration
	CacheHit     bool
	NameResults  int
	DocResults   int
}

type cacheEntry struct {
	response   *SearchResponse
	generation uint64
	expiresAt  time.Time
}

// Searcher ranks table symbols against free-text queries
type Searcher struct {
	table   *symbols.Table
	storage storage.Storage // optional documentation index
	cache   *lru.Cache[uint64, *cacheEntry]
	cacheMu sync.RWMutex
}

// NewSearcher creates a Searcher over table. store may be nil.
func NewSearcher(table *symbols.Table, store storage.Storage) *Searcher {
	cache, err := lru.New[uint64, *cacheEntry](256)
	if err != nil {
		panic(fmt.Sprintf("failed to create LRU cache: %v", err))
	}
	return &Searcher{table: table, storage: store, cache: cache}
}

// Search ranks bound symbols by name similarity and, with a workspace,
// adds documentation hits from the full-text index
func (s *Searcher) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	startTime := time.Now()

	if err := validateRequest(&req); err != nil {
		return nil, err
	}

	generation := s.table.Generation()
	key := queryHash(req)
	if req.UseCache {
		if cached := s.checkCache(key, generation); cached != nil {
			cached.CacheHit = true
			cached.Duration = time.Since(startTime)
			return cached, nil
		}
	}

	scored := make(map[string]*types.SearchResult)
	for _, sym := range s.table.Symbols() {
		score, ok := nameScore(req.Query, sym.Name)
		if !ok {
			continue
		}
		scored[sym.Name] = &types.SearchResult{RelevanceScore: score, Symbol: &sym}
	}
	nameResults := len(scored)

	docResults := 0
	if s.storage != nil {
		for _, id := range req.workspaces() {
			hits, err := s.storage.SearchSymbols(ctx, id, req.Query, req.Limit*2)
			if err != nil && !errors.Is(err, types.ErrEmptyQuery) {
				return nil, fmt.Errorf("documentation search failed: %w", err)
			}
			docResults += len(hits)
			for i, hit := range hits {
				// only symbols that still own their name are reported
				sym, ok := s.table.Lookup(hit.Name)
				if !ok || sym.Name != hit.Name {
					continue
				}
				if r, ok := scored[sym.Name]; ok {
					if !r.MatchedDoc {
						r.MatchedDoc = true
						r.RelevanceScore = min(1, r.RelevanceScore+0.1)
					}
					continue
				}
				scored[sym.Name] = &types.SearchResult{
					RelevanceScore: 0.5 / float64(i+1),
					Symbol:         &sym,
					MatchedDoc:     true,
				}
			}
		}
	}

	results := make([]types.SearchResult, 0, len(scored))
	for _, r := range scored {
		results = append(results, *r)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].RelevanceScore != results[j].RelevanceScore {
			return results[i].RelevanceScore > results[j].RelevanceScore
		}
		return results[i].Symbol.Name < results[j].Symbol.Name
	})
	if len(results) > req.Limit {
		results = results[:req.Limit]
	}
	for i := range results {
		results[i].Rank = i + 1
	}

	response := &SearchResponse{
		Results:      results,
		TotalResults: len(results),
		NameResults:  nameResults,
		DocResults:   docResults,
		Duration:     time.Since(startTime),
	}
	if req.UseCache {
		s.storeInCache(key, generation, req.CacheTTL, response)
	}
	return response, nil
}

// workspaces lists the distinct workspaces to search documentation in
func (r SearchRequest) workspaces() []int64 {
	var ids []int64
	for _, id := range append([]int64{r.WorkspaceID}, r.WorkspaceIDs...) {
		if id > 0 && !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	return ids
}

// DocumentSymbols returns the declarations of one document ordered by
// position. Non-source documents have none.
func (s *Searcher) DocumentSymbols(uri string) []types.Symbol {
	if !types.IsSourceFile(uri) {
		return nil
	}
	syms := s.table.DocumentSymbols(uri)
	sort.SliceStable(syms, func(i, j int) bool {
		a, b := syms[i].Location.Range.Start, syms[j].Location.Range.Start
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Character < b.Character
	})
	return syms
}

// Suggest returns up to n bound names within a small edit distance of
// name, closest first
func (s *Searcher) Suggest(name string, n int) []string {
	if name == "" || n <= 0 {
		return nil
	}
	budget := max(2, len(name)/3)

	type candidate struct {
		name     string
		distance int
	}
	var found []candidate
	lower := strings.ToLower(name)
	for _, sym := range s.table.Symbols() {
		d := edlib.LevenshteinDistance(lower, strings.ToLower(sym.Name))
		if d <= budget {
			found = append(found, candidate{sym.Name, d})
		}
	}
	sort.Slice(found, func(i, j int) bool {
		if found[i].distance != found[j].distance {
			return found[i].distance < found[j].distance
		}
		return found[i].name < found[j].name
	})

	out := make([]string, 0, min(n, len(found)))
	for i := 0; i < len(found) && i < n; i++ {
		out = append(out, found[i].name)
	}
	return out
}

// nameScore rates name against query in [0, 1]. Prefix and substring
// matches always qualify; other names need a close Jaro-Winkler score.
func nameScore(query, name string) (float64, bool) {
	q, n := strings.ToLower(query), strings.ToLower(name)
	if q == n {
		return 1, true
	}

	similarity, err := edlib.StringsSimilarity(q, n, edlib.JaroWinkler)
	if err != nil {
		return 0, false
	}
	score := 0.6 * float64(similarity)

	switch {
	case strings.HasPrefix(n, q):
		score += 0.35
	case strings.Contains(n, q):
		score += 0.2
	case float64(similarity) < minSimilarity:
		return 0, false
	}
	return min(score, 0.99), true
}

func validateRequest(req *SearchRequest) error {
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return types.ErrEmptyQuery
	}
	if req.Limit <= 0 {
		req.Limit = defaultLimit
	}
	if req.Limit > maxLimit {
		req.Limit = maxLimit
	}
	if req.CacheTTL == 0 {
		req.CacheTTL = 10 * time.Minute
	}
	return nil
}

func (s *Searcher) checkCache(key, generation uint64) *SearchResponse {
	s.cacheMu.RLock()
	entry, found := s.cache.Get(key)
	if !found {
		s.cacheMu.RUnlock()
		return nil
	}
	if entry.generation != generation || time.Now().After(entry.expiresAt) {
		s.cacheMu.RUnlock()
		s.cacheMu.Lock()
		s.cache.Remove(key)
		s.cacheMu.Unlock()
		return nil
	}
	response := copySearchResponse(entry.response)
	s.cacheMu.RUnlock()
	return response
}

func (s *Searcher) storeInCache(key, generation uint64, ttl time.Duration, response *SearchResponse) {
	entry := &cacheEntry{
		response:   copySearchResponse(response),
		generation: generation,
		expiresAt:  time.Now().Add(ttl),
	}
	s.cacheMu.Lock()
	s.cache.Add(key, entry)
	s.cacheMu.Unlock()
}

// InvalidateCache drops every cached response
func (s *Searcher) InvalidateCache() {
	s.cacheMu.Lock()
	s.cache.Purge()
	s.cacheMu.Unlock()
}

// copySearchResponse deep copies results so cached entries are never
// shared with callers
func copySearchResponse(src *SearchResponse) *SearchResponse {
	if src == nil {
		return nil
	}
	dst := *src
	dst.Results = make([]types.SearchResult, len(src.Results))
	for i, r := range src.Results {
		dst.Results[i] = r
		if r.Symbol != nil {
			sym := *r.Symbol
			sym.Parameters = slices.Clone(r.Symbol.Parameters)
			dst.Results[i].Symbol = &sym
		}
	}
	return &dst
}

func queryHash(req SearchRequest) uint64 {
	var b strings.Builder
	b.WriteString(strings.ToLower(req.Query))
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(req.Limit))
	b.WriteByte('|')
	for _, id := range req.workspaces() {
		b.WriteString(strconv.FormatInt(id, 10))
		b.WriteByte(',')
	}
	return xxhash.Sum64String(b.String())
}
