package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/xiaot623/docchat/internal/domain"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			document_id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			title TEXT,
			is_indexed INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_owner ON documents(owner_id)`,
		`CREATE TABLE IF NOT EXISTS document_collaborators (
			document_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			PRIMARY KEY (document_id, user_id),
			FOREIGN KEY (document_id) REFERENCES documents(document_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_collaborators_user ON document_collaborators(user_id)`,
		`CREATE TABLE IF NOT EXISTS messages (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			message_id TEXT NOT NULL UNIQUE,
			document_id TEXT NOT NULL,
			user_id TEXT,
			text TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (document_id) REFERENCES documents(document_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_document ON messages(document_id, seq)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateDocument creates a new document with its collaborators.
func (s *SQLiteStore) CreateDocument(ctx context.Context, doc *domain.Document) error {
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO documents (document_id, owner_id, title, is_indexed, created_at) VALUES (?, ?, ?, ?, ?)`,
		doc.DocumentID, doc.OwnerID, doc.Title, doc.IsIndexed, doc.CreatedAt); err != nil {
		return err
	}
	for _, userID := range doc.Collaborators {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO document_collaborators (document_id, user_id) VALUES (?, ?)`,
			doc.DocumentID, userID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetDocument retrieves a document and its collaborators by ID.
// Returns nil, nil when the document does not exist.
func (s *SQLiteStore) GetDocument(ctx context.Context, documentID string) (*domain.Document, error) {
	var doc domain.Document
	var title sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT document_id, owner_id, title, is_indexed, created_at FROM documents WHERE document_id = ?`,
		documentID).Scan(&doc.DocumentID, &doc.OwnerID, &title, &doc.IsIndexed, &doc.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if title.Valid {
		doc.Title = title.String
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id FROM document_collaborators WHERE document_id = ? ORDER BY user_id`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, err
		}
		doc.Collaborators = append(doc.Collaborators, userID)
	}
	return &doc, rows.Err()
}

// AddCollaborator grants a user read access to a document.
func (s *SQLiteStore) AddCollaborator(ctx context.Context, documentID, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO document_collaborators (document_id, user_id) VALUES (?, ?)`,
		documentID, userID)
	return err
}

// SetIndexed updates the indexing flag of a document.
func (s *SQLiteStore) SetIndexed(ctx context.Context, documentID string, indexed bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET is_indexed = ? WHERE document_id = ?`, indexed, documentID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("document %s: %w", documentID, domain.ErrNotFound)
	}
	return nil
}

// AppendMessage appends a message after all existing messages of the document.
// A nil userID stores an assistant message.
func (s *SQLiteStore) AppendMessage(ctx context.Context, documentID string, userID *string, text string) (*domain.Message, error) {
	msg := &domain.Message{
		MessageID:  "msg_" + uuid.New().String(),
		DocumentID: documentID,
		UserID:     userID,
		Text:       text,
		CreatedAt:  time.Now(),
	}

	var author sql.NullString
	if userID != nil {
		author = sql.NullString{String: *userID, Valid: true}
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (message_id, document_id, user_id, text, created_at) VALUES (?, ?, ?, ?, ?)`,
		msg.MessageID, msg.DocumentID, author, msg.Text, msg.CreatedAt)
	if err != nil {
		return nil, err
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	msg.Seq = seq
	return msg, nil
}

// ListMessages returns a document's messages in creation order.
func (s *SQLiteStore) ListMessages(ctx context.Context, documentID string, limit int, afterSeq int64) ([]domain.Message, error) {
	query := `SELECT seq, message_id, document_id, user_id, text, created_at FROM messages WHERE document_id = ?`
	args := []interface{}{documentID}

	if afterSeq > 0 {
		query += ` AND seq > ?`
		args = append(args, afterSeq)
	}

	query += ` ORDER BY seq ASC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		var userID sql.NullString
		if err := rows.Scan(&msg.Seq, &msg.MessageID, &msg.DocumentID, &userID, &msg.Text, &msg.CreatedAt); err != nil {
			return nil, err
		}
		if userID.Valid {
			id := userID.String
			msg.UserID = &id
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
