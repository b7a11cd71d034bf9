package searcher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/pawnls/internal/storage"
	"github.com/dshills/pawnls/internal/symbols"
	"github.com/dshills/pawnls/pkg/types"
)

const (
	uriNatives = "file:///srv/include/a_samp.inc"
	uriMode    = "file:///srv/gamemodes/main.pwn"
)

func symbolAt(name string, kind types.SymbolKind, line int, doc string) types.Symbol {
	return types.Symbol{
		Name:          name,
		Kind:          kind,
		Label:         name + "()",
		InsertText:    name,
		Documentation: doc,
		Parameters:    []string{},
		Location: types.Location{Range: types.Range{
			Start: types.Position{Line: line, Character: 7},
			End:   types.Position{Line: line, Character: 7 + len(name)},
		}},
	}
}

func setupTable() *symbols.Table {
	table := symbols.NewTable()
	table.Replace(uriNatives, []types.Symbol{
		symbolAt("SetPlayerHealth", types.KindNative, 0, "Sets the health of a player."),
		symbolAt("GetPlayerHealth", types.KindNative, 1, ""),
		symbolAt("Kick", types.KindNative, 2, ""),
		symbolAt("GiveArmor", types.KindNative, 3, "Gives armour to a player."),
	}, nil)
	table.Replace(uriMode, []types.Symbol{
		symbolAt("MAX_CASH", types.KindMacroConstant, 4, ""),
		symbolAt("GiveCash", types.KindFunction, 1, ""),
		symbolAt("ForgiveAll", types.KindFunction, 9, ""),
	}, nil)
	return table
}

func names(results []types.SearchResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Symbol.Name
	}
	return out
}

func TestSearch_NameMatching(t *testing.T) {
	s := NewSearcher(setupTable(), nil)
	ctx := context.Background()

	tests := []struct {
		name  string
		query string
		first string
		all   []string
	}{
		{name: "exact match ranks first", query: "kick", first: "Kick", all: []string{"Kick"}},
		{name: "substring", query: "cash", all: []string{"GiveCash", "MAX_CASH"}},
		{name: "prefix beats substring", query: "give", first: "GiveCash"},
		{name: "typo", query: "GivCash", first: "GiveCash"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := s.Search(ctx, SearchRequest{Query: tt.query})
			require.NoError(t, err)
			require.NotEmpty(t, resp.Results)

			if tt.first != "" {
				assert.Equal(t, tt.first, resp.Results[0].Symbol.Name)
			}
			if tt.all != nil {
				assert.ElementsMatch(t, tt.all, names(resp.Results))
			}
			for i, r := range resp.Results {
				assert.Equal(t, i+1, r.Rank)
				assert.NoError(t, r.Validate())
				assert.False(t, r.MatchedDoc)
			}
			assert.Equal(t, len(resp.Results), resp.TotalResults)
		})
	}
}

func TestSearch_PrefixAndSubstringOrder(t *testing.T) {
	s := NewSearcher(setupTable(), nil)

	resp, err := s.Search(context.Background(), SearchRequest{Query: "give"})
	require.NoError(t, err)

	got := names(resp.Results)
	assert.Contains(t, got, "ForgiveAll")
	assert.Less(t, indexOf(got, "GiveCash"), indexOf(got, "ForgiveAll"))
	assert.Less(t, indexOf(got, "GiveArmor"), indexOf(got, "ForgiveAll"))
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

func TestSearch_Validation(t *testing.T) {
	s := NewSearcher(setupTable(), nil)

	_, err := s.Search(context.Background(), SearchRequest{Query: "   "})
	assert.ErrorIs(t, err, types.ErrEmptyQuery)

	resp, err := s.Search(context.Background(), SearchRequest{Query: "player", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, resp.Results, 1)
	assert.Equal(t, 2, resp.NameResults)
}

func TestSearch_Cache(t *testing.T) {
	table := setupTable()
	s := NewSearcher(table, nil)
	ctx := context.Background()
	req := SearchRequest{Query: "cash", UseCache: true}

	first, err := s.Search(ctx, req)
	require.NoError(t, err)
	assert.False(t, first.CacheHit)

	// callers may scribble on results without touching the cache
	first.Results[0].Symbol.Name = "changed"

	second, err := s.Search(ctx, req)
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.ElementsMatch(t, []string{"GiveCash", "MAX_CASH"}, names(second.Results))

	// any table change invalidates
	table.Replace(uriMode, []types.Symbol{symbolAt("PettyCash", types.KindFunction, 0, "")}, nil)
	third, err := s.Search(ctx, req)
	require.NoError(t, err)
	assert.False(t, third.CacheHit)
	assert.Contains(t, names(third.Results), "PettyCash")
	assert.NotContains(t, names(third.Results), "GiveCash")

	s.InvalidateCache()
	fourth, err := s.Search(ctx, req)
	require.NoError(t, err)
	assert.False(t, fourth.CacheHit)
}

func TestSearch_Documentation(t *testing.T) {
	table := setupTable()
	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()

	ws := &storage.Workspace{RootPath: "/srv", IndexVersion: storage.CurrentSchemaVersion}
	require.NoError(t, store.CreateWorkspace(ctx, ws))
	doc := &storage.Document{WorkspaceID: ws.ID, URI: uriNatives, FilePath: "include/a_samp.inc"}
	require.NoError(t, store.UpsertDocument(ctx, doc))

	stored := []types.Symbol{
		symbolAt("GiveArmor", types.KindNative, 3, "Gives armour to a player."),
		symbolAt("SetPlayerHealth", types.KindNative, 0, "Sets the health of a player."),
		// in the index but no longer in the table
		symbolAt("RemovedNative", types.KindNative, 5, "Old armour helper."),
	}
	for i, sym := range stored {
		require.NoError(t, store.InsertSymbol(ctx, storage.FromTypesSymbol(sym, doc.ID, i)))
	}

	s := NewSearcher(table, store)

	resp, err := s.Search(ctx, SearchRequest{Query: "armour", WorkspaceID: ws.ID})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "GiveArmor", resp.Results[0].Symbol.Name)
	assert.True(t, resp.Results[0].MatchedDoc)
	assert.Equal(t, 2, resp.DocResults)

	// a name hit that also matches documentation is flagged and boosted
	resp, err = s.Search(ctx, SearchRequest{Query: "health", WorkspaceID: ws.ID})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "SetPlayerHealth", resp.Results[0].Symbol.Name)
	assert.True(t, resp.Results[0].MatchedDoc)

	// without a workspace only names are searched
	resp, err = s.Search(ctx, SearchRequest{Query: "armour"})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
}

func TestDocumentSymbols(t *testing.T) {
	s := NewSearcher(setupTable(), nil)

	got := s.DocumentSymbols(uriMode)
	assert.Equal(t, []string{"GiveCash", "MAX_CASH", "ForgiveAll"}, []string{got[0].Name, got[1].Name, got[2].Name})

	assert.Nil(t, s.DocumentSymbols("file:///srv/readme.txt"))
	assert.Empty(t, s.DocumentSymbols("file:///srv/unknown.pwn"))
}

func TestSuggest(t *testing.T) {
	s := NewSearcher(setupTable(), nil)

	assert.Equal(t, []string{"SetPlayerHealth", "GetPlayerHealth"}, s.Suggest("SetPlayerHelth", 5))
	assert.Equal(t, []string{"SetPlayerHealth"}, s.Suggest("SetPlayerHelth", 1))
	assert.Equal(t, []string{"Kick"}, s.Suggest("kik", 3))
	assert.Empty(t, s.Suggest("zzzzzzzzzzzz", 3))
	assert.Nil(t, s.Suggest("", 3))
}

func TestNameScore(t *testing.T) {
	exact, ok := nameScore("Kick", "kick")
	require.True(t, ok)
	assert.Equal(t, 1.0, exact)

	prefix, ok := nameScore("give", "GiveCash")
	require.True(t, ok)
	sub, ok := nameScore("cash", "GiveCash")
	require.True(t, ok)
	assert.Greater(t, exact, prefix)
	assert.Greater(t, prefix, sub)

	_, ok = nameScore("kick", "SetPlayerHealth")
	assert.False(t, ok)
}
