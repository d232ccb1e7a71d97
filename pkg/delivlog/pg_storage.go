package delivlog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/subtrackhq/notify/pkg/notification"
	"github.com/subtrackhq/notify/pkg/pg"
)

// PGStorage is the PostgreSQL implementation of the Storage interface.
type PGStorage struct {
	pool *pgxpool.Pool
}

// NewPGStorage creates a Postgres-backed delivery log storage.
func NewPGStorage(pool *pgxpool.Pool) *PGStorage {
	return &PGStorage{pool: pool}
}

const entryColumns = `id, user_id, notification_type, channel_type, recipient,
	COALESCE(subject, ''), COALESCE(content_preview, ''), status,
	COALESCE(external_id, ''), COALESCE(error_message, ''), metadata,
	sent_at, delivered_at, opened_at, clicked_at, bounced_at, complained_at, created_at`

func (s *PGStorage) Create(ctx context.Context, entry *Entry) error {
	if entry == nil {
		return ErrEntryNotFound
	}
	if entry.UserID == "" {
		return ErrUserIDRequired
	}
	if !entry.Status.Valid() {
		return ErrInvalidStatus
	}

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	var metadata []byte
	if entry.Metadata != nil {
		var err error
		metadata, err = json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("marshal delivery log metadata: %w", err)
		}
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO delivery_logs
			(id, user_id, notification_type, channel_type, recipient, subject,
			 content_preview, status, external_id, error_message, metadata,
			 sent_at, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8,
			NULLIF($9, ''), NULLIF($10, ''), $11, $12, now())
		RETURNING created_at`,
		entry.ID, entry.UserID, string(entry.Kind), string(entry.Channel),
		entry.Recipient, entry.Subject, entry.Preview, string(entry.Status),
		entry.ExternalID, entry.ErrorMessage, metadata, entry.SentAt)
	if err := row.Scan(&entry.CreatedAt); err != nil {
		return fmt.Errorf("insert delivery log entry: %w", err)
	}
	return nil
}

func (s *PGStorage) Get(ctx context.Context, id uuid.UUID) (*Entry, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+entryColumns+`
		FROM delivery_logs
		WHERE id = $1`, id)

	entry, err := scanEntry(row)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("select delivery log entry: %w", err)
	}
	return entry, nil
}

func (s *PGStorage) AppendEvent(ctx context.Context, id uuid.UUID, event Event, at time.Time) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin append event: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	row := tx.QueryRow(ctx, `
		SELECT `+entryColumns+`
		FROM delivery_logs
		WHERE id = $1
		FOR UPDATE`, id)

	entry, err := scanEntry(row)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return ErrEntryNotFound
		}
		return fmt.Errorf("lock delivery log entry: %w", err)
	}

	if err := entry.applyEvent(event, at); err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		UPDATE delivery_logs SET
			status = $2,
			delivered_at = $3,
			opened_at = $4,
			clicked_at = $5,
			bounced_at = $6,
			complained_at = $7
		WHERE id = $1`,
		id, string(entry.Status), entry.DeliveredAt, entry.OpenedAt,
		entry.ClickedAt, entry.BouncedAt, entry.ComplainedAt)
	if err != nil {
		return fmt.Errorf("append delivery log event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit append event: %w", err)
	}
	return nil
}

func (s *PGStorage) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+entryColumns+`
		FROM delivery_logs
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list delivery log entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan delivery log entry: %w", err)
		}
		out = append(out, *entry)
	}
	return out, rows.Err()
}

func scanEntry(row pgx.Row) (*Entry, error) {
	var entry Entry
	var kind, channel, status string
	var metadata []byte
	if err := row.Scan(&entry.ID, &entry.UserID, &kind, &channel, &entry.Recipient,
		&entry.Subject, &entry.Preview, &status, &entry.ExternalID,
		&entry.ErrorMessage, &metadata, &entry.SentAt, &entry.DeliveredAt,
		&entry.OpenedAt, &entry.ClickedAt, &entry.BouncedAt, &entry.ComplainedAt,
		&entry.CreatedAt); err != nil {
		return nil, err
	}

	entry.Kind = notification.Kind(kind)
	entry.Channel = notification.Channel(channel)
	entry.Status = Status(status)

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &entry.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal delivery log metadata: %w", err)
		}
	}
	return &entry, nil
}
