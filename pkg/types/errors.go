package types

import "errors"

// Domain errors shared across packages
var (
	ErrInvalidKind        = errors.New("invalid symbol kind")
	ErrNotSourceFile      = errors.New("not a pawn source file")
	ErrIgnored            = errors.New("document is ignore-listed")
	ErrIndexingInProgress = errors.New("workspace indexing already in progress")
	ErrEmptyQuery         = errors.New("query cannot be empty")

	// Search result errors
	ErrInvalidRank           = errors.New("rank must be >= 1")
	ErrInvalidRelevanceScore = errors.New("relevance score must be between 0 and 1")
	ErrMissingSymbol         = errors.New("symbol is required")
)
