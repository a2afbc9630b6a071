package repositories

import (
	"chat-rooms/domain/chat"
	"chat-rooms/errors"
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var _ IChatRepository = (*SQLiteChatRepository)(nil)

// SQLiteChatRepository stores rooms and messages in a single SQLite file.
// Sequence numbers are assigned inside the append transaction, and the
// (room_id, seq) primary key rejects any duplicate.
type SQLiteChatRepository struct {
	db  *sql.DB
	log *slog.Logger
}

// OpenSQLiteChatRepository opens or creates the database at path and applies the schema.
func OpenSQLiteChatRepository(ctx context.Context, path string, log *slog.Logger) (*SQLiteChatRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := ensureChatSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &SQLiteChatRepository{db: db, log: log}, nil
}

func ensureChatSchema(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	const roomsTable = `
    CREATE TABLE IF NOT EXISTS rooms (
        position INTEGER PRIMARY KEY AUTOINCREMENT,
        id TEXT NOT NULL UNIQUE,
        name TEXT NOT NULL,
        created_at TIMESTAMP NOT NULL
    );`
	if _, err := db.ExecContext(ctx, roomsTable); err != nil {
		return err
	}

	const messagesTable = `
    CREATE TABLE IF NOT EXISTS messages (
        room_id TEXT NOT NULL,
        seq INTEGER NOT NULL,
        sender TEXT NOT NULL,
        body TEXT NOT NULL,
        created_at TIMESTAMP NOT NULL,
        PRIMARY KEY (room_id, seq),
        FOREIGN KEY(room_id) REFERENCES rooms(id) ON DELETE CASCADE
    );`
	_, err := db.ExecContext(ctx, messagesTable)
	return err
}

func (s *SQLiteChatRepository) Create(ctx context.Context, name string) (chat.Room, error) {
	room := chat.NewRoom(chat.RoomID(uuid.NewString()), name)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rooms (id, name, created_at) VALUES (?, ?, ?)`,
		room.ID.String(), name, time.Now().UTC())
	if err != nil {
		return chat.Room{}, fmt.Errorf("%w: %v", errors.ErrStoreFailure, err)
	}
	return room, nil
}

func (s *SQLiteChatRepository) Get(ctx context.Context, id chat.RoomID) (chat.Room, error) {
	var name string
	row := s.db.QueryRowContext(ctx, `SELECT name FROM rooms WHERE id = ?`, id.String())
	if err := row.Scan(&name); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return chat.Room{}, fmt.Errorf("%w: room %s", errors.ErrNotFound, id)
		}
		return chat.Room{}, storeError(err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, sender, body FROM messages WHERE room_id = ? ORDER BY seq ASC`, id.String())
	if err != nil {
		return chat.Room{}, storeError(err)
	}
	defer rows.Close()

	room := chat.NewRoom(id, name)
	for rows.Next() {
		var message chat.Message
		if err := rows.Scan(&message.Seq, &message.Sender, &message.Body); err != nil {
			return chat.Room{}, storeError(err)
		}
		room.Messages = append(room.Messages, message)
	}
	if err := rows.Err(); err != nil {
		return chat.Room{}, storeError(err)
	}
	return room, nil
}

func (s *SQLiteChatRepository) AppendMessage(ctx context.Context, id chat.RoomID, message chat.Message) (chat.Message, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return chat.Message{}, storeError(err)
	}
	defer func() { _ = tx.Rollback() }()

	var seq int64
	row := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(m.seq), 0) FROM rooms r LEFT JOIN messages m ON m.room_id = r.id WHERE r.id = ? GROUP BY r.id`,
		id.String())
	if err := row.Scan(&seq); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return chat.Message{}, fmt.Errorf("%w: room %s", errors.ErrNotFound, id)
		}
		return chat.Message{}, storeError(err)
	}

	message.Seq = seq + 1
	_, err = tx.ExecContext(ctx,
		`INSERT INTO messages (room_id, seq, sender, body, created_at) VALUES (?, ?, ?, ?, ?)`,
		id.String(), message.Seq, message.Sender, message.Body, time.Now().UTC())
	if err != nil {
		return chat.Message{}, storeError(err)
	}
	if err := tx.Commit(); err != nil {
		return chat.Message{}, storeError(err)
	}
	return message, nil
}

func (s *SQLiteChatRepository) ListAll(ctx context.Context) ([]chat.Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM rooms ORDER BY position ASC`)
	if err != nil {
		return nil, storeError(err)
	}
	defer rows.Close()

	var summaries []chat.Summary
	for rows.Next() {
		var summary chat.Summary
		var id string
		if err := rows.Scan(&id, &summary.Name); err != nil {
			return nil, storeError(err)
		}
		summary.ID = chat.RoomID(id)
		summaries = append(summaries, summary)
	}
	return summaries, storeError(rows.Err())
}

func (s *SQLiteChatRepository) Close() error {
	s.log.Debug("Closing SQLite chat repository")
	return s.db.Close()
}
