package inbox

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/subtrackhq/notify/pkg/notification"
)

// PGStorage is the PostgreSQL implementation of the Storage interface.
type PGStorage struct {
	pool *pgxpool.Pool
}

// NewPGStorage creates a Postgres-backed inbox storage.
func NewPGStorage(pool *pgxpool.Pool) *PGStorage {
	return &PGStorage{pool: pool}
}

func (s *PGStorage) Create(ctx context.Context, entry Entry) error {
	if entry.UserID == "" {
		return ErrUserIDRequired
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO inbox (id, user_id, notification_type, priority, subject, body, data, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, false, $8)`,
		entry.ID, entry.UserID, string(entry.Kind), string(entry.Priority),
		entry.Subject, entry.Body, entry.Data, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert inbox entry: %w", err)
	}
	return nil
}

func (s *PGStorage) List(ctx context.Context, userID string, opts ListOptions) ([]Entry, error) {
	query := `
		SELECT id, user_id, notification_type, COALESCE(priority, ''), subject, body, data, read, read_at, created_at
		FROM inbox
		WHERE user_id = $1`
	if opts.OnlyUnread {
		query += ` AND NOT read`
	}
	query += ` ORDER BY created_at DESC`

	args := []any{userID}
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list inbox entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var kind, priority string
		if err := rows.Scan(&e.ID, &e.UserID, &kind, &priority, &e.Subject, &e.Body,
			&e.Data, &e.Read, &e.ReadAt, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan inbox entry: %w", err)
		}
		e.Kind = notification.Kind(kind)
		e.Priority = notification.Priority(priority)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PGStorage) MarkRead(ctx context.Context, userID string, entryIDs ...string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE inbox SET read = true, read_at = now()
		WHERE user_id = $1 AND id = ANY($2) AND NOT read`,
		userID, entryIDs)
	if err != nil {
		return fmt.Errorf("mark inbox entries read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func (s *PGStorage) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM inbox WHERE user_id = $1 AND NOT read`,
		userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread inbox entries: %w", err)
	}
	return count, nil
}
