package types

// SearchResult is one ranked workspace symbol match
type SearchResult struct {
	Rank int // Position in result set (1-based)

	// RelevanceScore combines name similarity and documentation hits
	RelevanceScore float64

	Symbol *Symbol
	// MatchedDoc is set when the hit came from the documentation index
	MatchedDoc bool
}

// Validate checks if the search result is valid
func (sr *SearchResult) Validate() error {
	if sr.Rank < 1 {
		return ErrInvalidRank
	}

	if sr.RelevanceScore < 0 || sr.RelevanceScore > 1 {
		return ErrInvalidRelevanceScore
	}

	if sr.Symbol == nil {
		return ErrMissingSymbol
	}

	return nil
}
