// Package searcher answers workspace symbol queries.
//
// Search ranks every symbol bound in the table by Jaro-Winkler similarity
// to the query, with bonuses for prefix and substring matches, so
// "givecash" finds GiveCash and "GivCash" still does. With a storage
// workspace the FTS5 index over labels and documentation is consulted as
// well, which lets "health" find a native whose comment mentions it.
//
//	s := searcher.NewSearcher(table, store)
//	resp, err := s.Search(ctx, searcher.SearchRequest{Query: "cash", Limit: 20})
//
// Responses can be cached in an LRU. A cached response is dropped as soon
// as the table generation moves on.
//
// DocumentSymbols backs document outlines and Suggest offers
// did-you-mean names for failed lookups.
package searcher
