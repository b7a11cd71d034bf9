package storage

import (
	"context"
	"strings"
	"time"

	"github.com/dshills/pawnls/pkg/types"
)

// Storage persists extraction results so unchanged documents can be
// replayed into the symbol table without reparsing
type Storage interface {
	// Workspace operations
	CreateWorkspace(ctx context.Context, ws *Workspace) error
	GetWorkspace(ctx context.Context, rootPath string) (*Workspace, error)
	UpdateWorkspace(ctx context.Context, ws *Workspace) error

	// Document operations
	UpsertDocument(ctx context.Context, doc *Document) error
	GetDocument(ctx context.Context, workspaceID int64, uri string) (*Document, error)
	DeleteDocument(ctx context.Context, documentID int64) error
	ListDocuments(ctx context.Context, workspaceID int64) ([]*Document, error)

	// Symbol operations
	InsertSymbol(ctx context.Context, symbol *Symbol) error
	ListSymbolsByDocument(ctx context.Context, documentID int64) ([]*Symbol, error)
	DeleteSymbolsByDocument(ctx context.Context, documentID int64) error
	SearchSymbols(ctx context.Context, workspaceID int64, query string, limit int) ([]*Symbol, error)

	// Word operations
	ReplaceWords(ctx context.Context, documentID int64, words []string) error
	ListWords(ctx context.Context, documentID int64) ([]string, error)

	// Status operations
	GetStatus(ctx context.Context, workspaceID int64) (*WorkspaceStatus, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage
}

// Workspace is an indexed workspace folder
type Workspace struct {
	ID             int64
	RootPath       string
	TotalDocuments int
	TotalSymbols   int
	IndexVersion   string
	LastIndexedAt  time.Time
	LastDuration   time.Duration
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Document is a tracked source file and the fingerprint of the extraction
// stored for it
type Document struct {
	ID          int64
	WorkspaceID int64
	URI         string
	FilePath    string // relative to the workspace root
	ContentHash uint64
	// Options is the parser option set the stored extraction was made
	// with; a different set invalidates it
	Options   uint8
	ModTime   time.Time
	SizeBytes int64

	LastIndexedAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Symbol is one stored extraction candidate
type Symbol struct {
	ID            int64
	DocumentID    int64
	Ordinal       int // extraction order within the document
	Name          string
	Kind          string
	Label         string
	InsertText    string
	Documentation string
	Parameters    string // newline separated
	StartLine     int
	StartCol      int
	EndLine       int
	EndCol        int
	CreatedAt     time.Time

	// URI is filled in by queries that join documents
	URI string
}

// WorkspaceStatus contains statistics about an indexed workspace
type WorkspaceStatus struct {
	Workspace      *Workspace
	DocumentsCount int
	SymbolsCount   int
	WordsCount     int
	IndexSizeMB    float64
	LastIndexedAt  time.Time
	IndexDuration  time.Duration
	Health         HealthStatus
}

// HealthStatus represents the health of the cache
type HealthStatus struct {
	DatabaseAccessible bool
	FTSIndexesBuilt    bool
}

// ToTypesSymbol converts a stored symbol back to a table candidate
func (s *Symbol) ToTypesSymbol(uri string) types.Symbol {
	kind, err := types.ParseSymbolKind(s.Kind)
	if err != nil {
		kind = types.KindMacroConstant
	}
	params := []string{}
	if s.Parameters != "" {
		params = strings.Split(s.Parameters, "\n")
	}
	return types.Symbol{
		Name:          s.Name,
		Kind:          kind,
		Label:         s.Label,
		InsertText:    s.InsertText,
		Documentation: s.Documentation,
		Parameters:    params,
		Location: types.Location{
			URI: uri,
			Range: types.Range{
				Start: types.Position{Line: s.StartLine, Character: s.StartCol},
				End:   types.Position{Line: s.EndLine, Character: s.EndCol},
			},
		},
		SourceURI: uri,
	}
}

// FromTypesSymbol converts a table candidate to a storage Symbol
func FromTypesSymbol(s types.Symbol, documentID int64, ordinal int) *Symbol {
	r := s.Location.Range
	return &Symbol{
		DocumentID:    documentID,
		Ordinal:       ordinal,
		Name:          s.Name,
		Kind:          s.Kind.String(),
		Label:         s.Label,
		InsertText:    s.InsertText,
		Documentation: s.Documentation,
		Parameters:    strings.Join(s.Parameters, "\n"),
		StartLine:     r.Start.Line,
		StartCol:      r.Start.Character,
		EndLine:       r.End.Line,
		EndCol:        r.End.Character,
	}
}
