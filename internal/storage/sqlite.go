package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dshills/pawnls/pkg/types"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when trying to create a duplicate entity
	ErrAlreadyExists = errors.New("already exists")
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, storage: s}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

func (t *sqliteTx) querier() querier {
	return t.tx
}

func (s *SQLiteStorage) querier() querier {
	return s.db
}

// Workspace operations

func (s *SQLiteStorage) createWorkspaceWithQuerier(ctx context.Context, q querier, ws *Workspace) error {
	query := `
		INSERT INTO workspaces (root_path, index_version, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`
	now := time.Now()
	result, err := q.ExecContext(ctx, query, ws.RootPath, ws.IndexVersion, now, now)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to create workspace: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	ws.ID = id
	ws.CreatedAt = now
	ws.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) CreateWorkspace(ctx context.Context, ws *Workspace) error {
	return s.createWorkspaceWithQuerier(ctx, s.querier(), ws)
}

const workspaceColumns = `id, root_path, total_documents, total_symbols, index_version,
	last_indexed_at, last_duration_ms, created_at, updated_at`

func scanWorkspace(row *sql.Row) (*Workspace, error) {
	var ws Workspace
	var lastIndexedAt sql.NullTime
	var durationMs int64
	err := row.Scan(
		&ws.ID, &ws.RootPath, &ws.TotalDocuments, &ws.TotalSymbols, &ws.IndexVersion,
		&lastIndexedAt, &durationMs, &ws.CreatedAt, &ws.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if lastIndexedAt.Valid {
		ws.LastIndexedAt = lastIndexedAt.Time
	}
	ws.LastDuration = time.Duration(durationMs) * time.Millisecond
	return &ws, nil
}

func (s *SQLiteStorage) getWorkspaceWithQuerier(ctx context.Context, q querier, rootPath string) (*Workspace, error) {
	query := `SELECT ` + workspaceColumns + ` FROM workspaces WHERE root_path = ?`
	return scanWorkspace(q.QueryRowContext(ctx, query, rootPath))
}

func (s *SQLiteStorage) GetWorkspace(ctx context.Context, rootPath string) (*Workspace, error) {
	return s.getWorkspaceWithQuerier(ctx, s.querier(), rootPath)
}

func (s *SQLiteStorage) getWorkspaceByID(ctx context.Context, q querier, workspaceID int64) (*Workspace, error) {
	query := `SELECT ` + workspaceColumns + ` FROM workspaces WHERE id = ?`
	return scanWorkspace(q.QueryRowContext(ctx, query, workspaceID))
}

func (s *SQLiteStorage) updateWorkspaceWithQuerier(ctx context.Context, q querier, ws *Workspace) error {
	query := `
		UPDATE workspaces
		SET total_documents = ?, total_symbols = ?, index_version = ?,
		    last_indexed_at = ?, last_duration_ms = ?, updated_at = ?
		WHERE id = ?
	`
	now := time.Now()
	_, err := q.ExecContext(ctx, query,
		ws.TotalDocuments, ws.TotalSymbols, ws.IndexVersion,
		ws.LastIndexedAt, ws.LastDuration.Milliseconds(), now, ws.ID)
	if err != nil {
		return fmt.Errorf("failed to update workspace: %w", err)
	}
	ws.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) UpdateWorkspace(ctx context.Context, ws *Workspace) error {
	return s.updateWorkspaceWithQuerier(ctx, s.querier(), ws)
}

// Document operations

func (s *SQLiteStorage) upsertDocumentWithQuerier(ctx context.Context, q querier, doc *Document) error {
	query := `
		INSERT INTO documents (workspace_id, uri, file_path, content_hash, options, mod_time, size_bytes, last_indexed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(workspace_id, uri) DO UPDATE SET
			file_path = excluded.file_path,
			content_hash = excluded.content_hash,
			options = excluded.options,
			mod_time = excluded.mod_time,
			size_bytes = excluded.size_bytes,
			last_indexed_at = excluded.last_indexed_at,
			updated_at = excluded.updated_at
		RETURNING id
	`
	now := time.Now()
	err := q.QueryRowContext(ctx, query,
		doc.WorkspaceID, doc.URI, doc.FilePath, int64(doc.ContentHash), doc.Options,
		doc.ModTime, doc.SizeBytes, now, now, now).Scan(&doc.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}

	doc.LastIndexedAt = now
	doc.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) UpsertDocument(ctx context.Context, doc *Document) error {
	return s.upsertDocumentWithQuerier(ctx, s.querier(), doc)
}

const documentColumns = `id, workspace_id, uri, file_path, content_hash, options, mod_time,
	size_bytes, last_indexed_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row rowScanner) (*Document, error) {
	var doc Document
	var hash int64
	var modTime, lastIndexedAt sql.NullTime
	var size sql.NullInt64
	err := row.Scan(
		&doc.ID, &doc.WorkspaceID, &doc.URI, &doc.FilePath, &hash, &doc.Options, &modTime,
		&size, &lastIndexedAt, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	doc.ContentHash = uint64(hash)
	if modTime.Valid {
		doc.ModTime = modTime.Time
	}
	if size.Valid {
		doc.SizeBytes = size.Int64
	}
	if lastIndexedAt.Valid {
		doc.LastIndexedAt = lastIndexedAt.Time
	}
	return &doc, nil
}

func (s *SQLiteStorage) getDocumentWithQuerier(ctx context.Context, q querier, workspaceID int64, uri string) (*Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE workspace_id = ? AND uri = ?`
	doc, err := scanDocument(q.QueryRowContext(ctx, query, workspaceID, uri))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return doc, err
}

func (s *SQLiteStorage) GetDocument(ctx context.Context, workspaceID int64, uri string) (*Document, error) {
	return s.getDocumentWithQuerier(ctx, s.querier(), workspaceID, uri)
}

func (s *SQLiteStorage) deleteDocumentWithQuerier(ctx context.Context, q querier, documentID int64) error {
	_, err := q.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", documentID)
	return err
}

func (s *SQLiteStorage) DeleteDocument(ctx context.Context, documentID int64) error {
	return s.deleteDocumentWithQuerier(ctx, s.querier(), documentID)
}

func (s *SQLiteStorage) listDocumentsWithQuerier(ctx context.Context, q querier, workspaceID int64) ([]*Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE workspace_id = ? ORDER BY file_path`
	rows, err := q.QueryContext(ctx, query, workspaceID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	docs := make([]*Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *SQLiteStorage) ListDocuments(ctx context.Context, workspaceID int64) ([]*Document, error) {
	return s.listDocumentsWithQuerier(ctx, s.querier(), workspaceID)
}

// Symbol operations

func (s *SQLiteStorage) insertSymbolWithQuerier(ctx context.Context, q querier, symbol *Symbol) error {
	query := `
		INSERT INTO symbols (
			document_id, ordinal, name, kind, label, insert_text, documentation, parameters,
			start_line, start_col, end_line, end_col, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id, created_at
	`
	now := time.Now()
	err := q.QueryRowContext(ctx, query,
		symbol.DocumentID, symbol.Ordinal, symbol.Name, symbol.Kind, symbol.Label,
		symbol.InsertText, symbol.Documentation, symbol.Parameters,
		symbol.StartLine, symbol.StartCol, symbol.EndLine, symbol.EndCol, now,
	).Scan(&symbol.ID, &symbol.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert symbol: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) InsertSymbol(ctx context.Context, symbol *Symbol) error {
	return s.insertSymbolWithQuerier(ctx, s.querier(), symbol)
}

const symbolColumns = `s.id, s.document_id, s.ordinal, s.name, s.kind, s.label, s.insert_text,
	s.documentation, s.parameters, s.start_line, s.start_col, s.end_line, s.end_col,
	s.created_at, d.uri`

func scanSymbols(rows *sql.Rows) ([]*Symbol, error) {
	symbols := make([]*Symbol, 0)
	for rows.Next() {
		var symbol Symbol
		var doc, params sql.NullString
		err := rows.Scan(
			&symbol.ID, &symbol.DocumentID, &symbol.Ordinal, &symbol.Name, &symbol.Kind,
			&symbol.Label, &symbol.InsertText, &doc, &params,
			&symbol.StartLine, &symbol.StartCol, &symbol.EndLine, &symbol.EndCol,
			&symbol.CreatedAt, &symbol.URI,
		)
		if err != nil {
			return nil, err
		}
		symbol.Documentation = doc.String
		symbol.Parameters = params.String
		symbols = append(symbols, &symbol)
	}
	return symbols, rows.Err()
}

func (s *SQLiteStorage) listSymbolsByDocumentWithQuerier(ctx context.Context, q querier, documentID int64) ([]*Symbol, error) {
	query := `
		SELECT ` + symbolColumns + `
		FROM symbols s
		JOIN documents d ON s.document_id = d.id
		WHERE s.document_id = ?
		ORDER BY s.ordinal
	`
	rows, err := q.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return scanSymbols(rows)
}

func (s *SQLiteStorage) ListSymbolsByDocument(ctx context.Context, documentID int64) ([]*Symbol, error) {
	return s.listSymbolsByDocumentWithQuerier(ctx, s.querier(), documentID)
}

func (s *SQLiteStorage) deleteSymbolsByDocumentWithQuerier(ctx context.Context, q querier, documentID int64) error {
	_, err := q.ExecContext(ctx, "DELETE FROM symbols WHERE document_id = ?", documentID)
	return err
}

func (s *SQLiteStorage) DeleteSymbolsByDocument(ctx context.Context, documentID int64) error {
	return s.deleteSymbolsByDocumentWithQuerier(ctx, s.querier(), documentID)
}

// searchSymbolsWithQuerier runs an FTS5 query over names, labels and
// documentation. rank is FTS5's bm25 column; lower is better.
func (s *SQLiteStorage) searchSymbolsWithQuerier(ctx context.Context, q querier, workspaceID int64, query string, limit int) ([]*Symbol, error) {
	sqlQuery := `
		SELECT ` + symbolColumns + `
		FROM symbols_fts fts
		JOIN symbols s ON s.id = fts.rowid
		JOIN documents d ON s.document_id = d.id
		WHERE symbols_fts MATCH ? AND d.workspace_id = ?
		ORDER BY rank
		LIMIT ?
	`
	match := FTSQuery(query)
	if match == "" {
		return nil, types.ErrEmptyQuery
	}
	rows, err := q.QueryContext(ctx, sqlQuery, match, workspaceID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search symbols: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanSymbols(rows)
}

func (s *SQLiteStorage) SearchSymbols(ctx context.Context, workspaceID int64, query string, limit int) ([]*Symbol, error) {
	return s.searchSymbolsWithQuerier(ctx, s.querier(), workspaceID, query, limit)
}

// FTSQuery turns free text into an FTS5 expression: every term is quoted
// and prefix matched, terms are ANDed.
func FTSQuery(text string) string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !(r == '_' || r == '@' || r >= '0' && r <= '9' || r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r > 127)
	})
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		terms = append(terms, `"`+f+`"*`)
	}
	return strings.Join(terms, " ")
}

// Word operations

func (s *SQLiteStorage) replaceWordsWithQuerier(ctx context.Context, q querier, documentID int64, words []string) error {
	if _, err := q.ExecContext(ctx, "DELETE FROM words WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("failed to clear words: %w", err)
	}
	for i, w := range words {
		if _, err := q.ExecContext(ctx,
			"INSERT INTO words (document_id, ordinal, word) VALUES (?, ?, ?)",
			documentID, i, w); err != nil {
			return fmt.Errorf("failed to insert word: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStorage) ReplaceWords(ctx context.Context, documentID int64, words []string) error {
	return s.replaceWordsWithQuerier(ctx, s.querier(), documentID, words)
}

func (s *SQLiteStorage) listWordsWithQuerier(ctx context.Context, q querier, documentID int64) ([]string, error) {
	rows, err := q.QueryContext(ctx, "SELECT word FROM words WHERE document_id = ? ORDER BY ordinal", documentID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	words := make([]string, 0)
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, err
		}
		words = append(words, w)
	}
	return words, rows.Err()
}

func (s *SQLiteStorage) ListWords(ctx context.Context, documentID int64) ([]string, error) {
	return s.listWordsWithQuerier(ctx, s.querier(), documentID)
}

// Status operations

func (s *SQLiteStorage) getStatusWithQuerier(ctx context.Context, q querier, workspaceID int64) (*WorkspaceStatus, error) {
	ws, err := s.getWorkspaceByID(ctx, q, workspaceID)
	if err != nil {
		return nil, err
	}

	status := &WorkspaceStatus{
		Workspace:     ws,
		LastIndexedAt: ws.LastIndexedAt,
		IndexDuration: ws.LastDuration,
	}

	err = q.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents WHERE workspace_id = ?", workspaceID).Scan(&status.DocumentsCount)
	if err != nil {
		return nil, err
	}

	err = q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM symbols s
		JOIN documents d ON s.document_id = d.id
		WHERE d.workspace_id = ?
	`, workspaceID).Scan(&status.SymbolsCount)
	if err != nil {
		return nil, err
	}

	err = q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM words w
		JOIN documents d ON w.document_id = d.id
		WHERE d.workspace_id = ?
	`, workspaceID).Scan(&status.WordsCount)
	if err != nil {
		return nil, err
	}

	var pageCount, pageSize int
	if err := q.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err == nil {
		_ = q.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
		status.IndexSizeMB = float64(pageCount*pageSize) / (1024 * 1024)
	}

	var fts string
	ftsErr := q.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE name = 'symbols_fts'").Scan(&fts)
	status.Health = HealthStatus{
		DatabaseAccessible: true,
		FTSIndexesBuilt:    ftsErr == nil,
	}

	return status, nil
}

func (s *SQLiteStorage) GetStatus(ctx context.Context, workspaceID int64) (*WorkspaceStatus, error) {
	return s.getStatusWithQuerier(ctx, s.querier(), workspaceID)
}

// Transaction implementations delegate to the querier-based helpers so
// every operation runs inside the transaction

func (t *sqliteTx) CreateWorkspace(ctx context.Context, ws *Workspace) error {
	return t.storage.createWorkspaceWithQuerier(ctx, t.querier(), ws)
}

func (t *sqliteTx) GetWorkspace(ctx context.Context, rootPath string) (*Workspace, error) {
	return t.storage.getWorkspaceWithQuerier(ctx, t.querier(), rootPath)
}

func (t *sqliteTx) UpdateWorkspace(ctx context.Context, ws *Workspace) error {
	return t.storage.updateWorkspaceWithQuerier(ctx, t.querier(), ws)
}

func (t *sqliteTx) UpsertDocument(ctx context.Context, doc *Document) error {
	return t.storage.upsertDocumentWithQuerier(ctx, t.querier(), doc)
}

func (t *sqliteTx) GetDocument(ctx context.Context, workspaceID int64, uri string) (*Document, error) {
	return t.storage.getDocumentWithQuerier(ctx, t.querier(), workspaceID, uri)
}

func (t *sqliteTx) DeleteDocument(ctx context.Context, documentID int64) error {
	return t.storage.deleteDocumentWithQuerier(ctx, t.querier(), documentID)
}

func (t *sqliteTx) ListDocuments(ctx context.Context, workspaceID int64) ([]*Document, error) {
	return t.storage.listDocumentsWithQuerier(ctx, t.querier(), workspaceID)
}

func (t *sqliteTx) InsertSymbol(ctx context.Context, symbol *Symbol) error {
	return t.storage.insertSymbolWithQuerier(ctx, t.querier(), symbol)
}

func (t *sqliteTx) ListSymbolsByDocument(ctx context.Context, documentID int64) ([]*Symbol, error) {
	return t.storage.listSymbolsByDocumentWithQuerier(ctx, t.querier(), documentID)
}

func (t *sqliteTx) DeleteSymbolsByDocument(ctx context.Context, documentID int64) error {
	return t.storage.deleteSymbolsByDocumentWithQuerier(ctx, t.querier(), documentID)
}

func (t *sqliteTx) SearchSymbols(ctx context.Context, workspaceID int64, query string, limit int) ([]*Symbol, error) {
	return t.storage.searchSymbolsWithQuerier(ctx, t.querier(), workspaceID, query, limit)
}

func (t *sqliteTx) ReplaceWords(ctx context.Context, documentID int64, words []string) error {
	return t.storage.replaceWordsWithQuerier(ctx, t.querier(), documentID, words)
}

func (t *sqliteTx) ListWords(ctx context.Context, documentID int64) ([]string, error) {
	return t.storage.listWordsWithQuerier(ctx, t.querier(), documentID)
}

func (t *sqliteTx) GetStatus(ctx context.Context, workspaceID int64) (*WorkspaceStatus, error) {
	return t.storage.getStatusWithQuerier(ctx, t.querier(), workspaceID)
}

func (t *sqliteTx) Close() error {
	// Transactions don't close the underlying connection
	return nil
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	return nil, errors.New("nested transactions are not supported")
}
