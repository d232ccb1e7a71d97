package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/subtrackhq/notify/pkg/notification"
	"github.com/subtrackhq/notify/pkg/pg"
)

// PGStorage is the PostgreSQL implementation of the Storage interface.
// ClaimDue uses FOR UPDATE SKIP LOCKED so concurrent workers partition the
// due set between them instead of blocking or double-claiming.
type PGStorage struct {
	pool    *pgxpool.Pool
	backoff Backoff
}

// NewPGStorage creates a Postgres-backed queue storage.
func NewPGStorage(pool *pgxpool.Pool, opts ...StorageOption) *PGStorage {
	options := &storageOptions{}
	for _, opt := range opts {
		opt(options)
	}

	return &PGStorage{pool: pool, backoff: options.backoff}
}

const itemColumns = `id, user_id, template_key, notification_type, channel_type, recipient,
	content, variables, priority, status, retry_count, max_retries,
	COALESCE(last_error, ''), scheduled_at, created_at, updated_at`

func (s *PGStorage) Enqueue(ctx context.Context, item *Item) error {
	if item == nil {
		return ErrItemNotFound
	}
	if err := item.Validate(); err != nil {
		return err
	}

	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.MaxRetries == 0 {
		item.MaxRetries = DefaultMaxRetries
	}
	item.Status = StatusPending
	item.RetryCount = 0

	content, variables, err := marshalPayload(item)
	if err != nil {
		return err
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO notification_queue
			(id, user_id, template_key, notification_type, channel_type, recipient,
			 content, variables, priority, status, retry_count, max_retries,
			 scheduled_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now(), now())
		RETURNING created_at, updated_at`,
		item.ID, item.UserID, item.TemplateKey, string(item.Kind), string(item.Channel),
		item.Recipient, content, variables, string(item.Priority), string(item.Status),
		item.RetryCount, item.MaxRetries, item.ScheduledAt)
	if err := row.Scan(&item.CreatedAt, &item.UpdatedAt); err != nil {
		return fmt.Errorf("insert queue item: %w", err)
	}
	return nil
}

func (s *PGStorage) Get(ctx context.Context, id uuid.UUID) (*Item, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+itemColumns+`
		FROM notification_queue
		WHERE id = $1`, id)

	item, err := scanItem(row)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("select queue item: %w", err)
	}
	return item, nil
}

func (s *PGStorage) ClaimDue(ctx context.Context, limit int, now time.Time) ([]Item, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx, `
		UPDATE notification_queue SET
			status = $1,
			updated_at = now()
		WHERE id IN (
			SELECT id FROM notification_queue
			WHERE status = $2 AND scheduled_at <= $3
			ORDER BY scheduled_at ASC
			LIMIT $4
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+itemColumns,
		string(StatusProcessing), string(StatusPending), now, limit)
	if err != nil {
		return nil, fmt.Errorf("claim due queue items: %w", err)
	}
	defer rows.Close()

	var claimed []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan queue item: %w", err)
		}
		claimed = append(claimed, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// The UPDATE returns rows in storage order, the contract is earliest due
	// first.
	sortByScheduledAt(claimed)
	return claimed, nil
}

func (s *PGStorage) MarkSent(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE notification_queue SET
			status = $2,
			updated_at = now()
		WHERE id = $1 AND status = $3`,
		id, string(StatusSent), string(StatusProcessing))
	if err != nil {
		return fmt.Errorf("mark queue item sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.transitionError(ctx, id)
	}
	return nil
}

func (s *PGStorage) MarkFailed(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin mark failed: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var status string
	var retryCount, maxRetries int
	var scheduledAt time.Time
	err = tx.QueryRow(ctx, `
		SELECT status, retry_count, max_retries, scheduled_at
		FROM notification_queue
		WHERE id = $1
		FOR UPDATE`, id).Scan(&status, &retryCount, &maxRetries, &scheduledAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return false, ErrItemNotFound
		}
		return false, fmt.Errorf("lock queue item: %w", err)
	}
	if Status(status) != StatusProcessing {
		return false, ErrInvalidTransition
	}

	retryCount++
	next := StatusPending
	retried := true
	if retryCount >= maxRetries {
		next = StatusFailed
		retried = false
	} else if s.backoff != nil {
		scheduledAt = time.Now().Add(s.backoff(retryCount))
	}

	_, err = tx.Exec(ctx, `
		UPDATE notification_queue SET
			status = $2,
			retry_count = $3,
			last_error = $4,
			scheduled_at = $5,
			updated_at = now()
		WHERE id = $1`,
		id, string(next), retryCount, reason, scheduledAt)
	if err != nil {
		return false, fmt.Errorf("mark queue item failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit mark failed: %w", err)
	}
	return retried, nil
}

func (s *PGStorage) FailPermanently(ctx context.Context, id uuid.UUID, reason string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE notification_queue SET
			status = $2,
			last_error = $3,
			updated_at = now()
		WHERE id = $1 AND status = $4`,
		id, string(StatusFailed), reason, string(StatusProcessing))
	if err != nil {
		return fmt.Errorf("fail queue item permanently: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.transitionError(ctx, id)
	}
	return nil
}

func (s *PGStorage) Cancel(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE notification_queue SET
			status = $2,
			updated_at = now()
		WHERE id = $1 AND status = $3`,
		id, string(StatusCancelled), string(StatusPending))
	if err != nil {
		return fmt.Errorf("cancel queue item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.transitionError(ctx, id)
	}
	return nil
}

// transitionError distinguishes a missing row from an illegal status change
// after a guarded UPDATE matched nothing.
func (s *PGStorage) transitionError(ctx context.Context, id uuid.UUID) error {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM notification_queue WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check queue item: %w", err)
	}
	if !exists {
		return ErrItemNotFound
	}
	return ErrInvalidTransition
}

func marshalPayload(item *Item) (content, variables []byte, err error) {
	if item.Override != nil {
		content, err = json.Marshal(item.Override)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal queue item content: %w", err)
		}
	}
	if item.Variables != nil {
		variables, err = json.Marshal(item.Variables)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal queue item variables: %w", err)
		}
	}
	return content, variables, nil
}

func scanItem(row pgx.Row) (*Item, error) {
	var item Item
	var kind, channel, priority, status string
	var content, variables []byte
	if err := row.Scan(&item.ID, &item.UserID, &item.TemplateKey, &kind, &channel,
		&item.Recipient, &content, &variables, &priority, &status,
		&item.RetryCount, &item.MaxRetries, &item.LastError,
		&item.ScheduledAt, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return nil, err
	}

	item.Kind = notification.Kind(kind)
	item.Channel = notification.Channel(channel)
	item.Priority = notification.Priority(priority)
	item.Status = Status(status)

	if len(content) > 0 {
		item.Override = &notification.ContentOverride{}
		if err := json.Unmarshal(content, item.Override); err != nil {
			return nil, fmt.Errorf("unmarshal queue item content: %w", err)
		}
	}
	if len(variables) > 0 {
		if err := json.Unmarshal(variables, &item.Variables); err != nil {
			return nil, fmt.Errorf("unmarshal queue item variables: %w", err)
		}
	}
	return &item, nil
}

func sortByScheduledAt(items []Item) {
	sort.Slice(items, func(i, j int) bool {
		return items[i].ScheduledAt.Before(items[j].ScheduledAt)
	})
}
