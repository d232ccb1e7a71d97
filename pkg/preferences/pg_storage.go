package preferences

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/subtrackhq/notify/pkg/notification"
	"github.com/subtrackhq/notify/pkg/pg"
)

// PGStorage is the PostgreSQL implementation of the Storage interface.
type PGStorage struct {
	pool *pgxpool.Pool
}

// NewPGStorage creates a Postgres-backed preference storage.
func NewPGStorage(pool *pgxpool.Pool) *PGStorage {
	return &PGStorage{pool: pool}
}

const prefColumns = `user_id, notification_type, channel_type, enabled, frequency,
	COALESCE(quiet_hours_start, ''), COALESCE(quiet_hours_end, ''), created_at, updated_at`

func (s *PGStorage) Get(ctx context.Context, userID string, kind notification.Kind, channel notification.Channel) (*Preference, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+prefColumns+`
		FROM preferences
		WHERE user_id = $1 AND notification_type = $2 AND channel_type = $3`,
		userID, string(kind), string(channel))

	pref, err := scanPreference(row)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrPreferenceNotFound
		}
		return nil, fmt.Errorf("select preference: %w", err)
	}
	return pref, nil
}

func (s *PGStorage) Upsert(ctx context.Context, pref Preference) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO preferences
			(user_id, notification_type, channel_type, enabled, frequency,
			 quiet_hours_start, quiet_hours_end, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), now(), now())
		ON CONFLICT (user_id, notification_type, channel_type) DO UPDATE SET
			enabled = EXCLUDED.enabled,
			frequency = EXCLUDED.frequency,
			quiet_hours_start = EXCLUDED.quiet_hours_start,
			quiet_hours_end = EXCLUDED.quiet_hours_end,
			updated_at = now()`,
		pref.UserID, string(pref.Kind), string(pref.Channel), pref.Enabled,
		string(pref.Frequency), pref.QuietHoursStart, pref.QuietHoursEnd)
	if err != nil {
		return fmt.Errorf("upsert preference: %w", err)
	}
	return nil
}

func (s *PGStorage) Delete(ctx context.Context, userID string, kind notification.Kind, channel notification.Channel) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM preferences
		WHERE user_id = $1 AND notification_type = $2 AND channel_type = $3`,
		userID, string(kind), string(channel))
	if err != nil {
		return fmt.Errorf("delete preference: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPreferenceNotFound
	}
	return nil
}

func (s *PGStorage) ListByUser(ctx context.Context, userID string) ([]Preference, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+prefColumns+`
		FROM preferences
		WHERE user_id = $1
		ORDER BY notification_type, channel_type`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list preferences: %w", err)
	}
	defer rows.Close()

	var out []Preference
	for rows.Next() {
		pref, err := scanPreference(rows)
		if err != nil {
			return nil, fmt.Errorf("scan preference: %w", err)
		}
		out = append(out, *pref)
	}
	return out, rows.Err()
}

func scanPreference(row pgx.Row) (*Preference, error) {
	var pref Preference
	var kind, channel, frequency string
	if err := row.Scan(&pref.UserID, &kind, &channel, &pref.Enabled, &frequency,
		&pref.QuietHoursStart, &pref.QuietHoursEnd, &pref.CreatedAt, &pref.UpdatedAt); err != nil {
		return nil, err
	}
	pref.Kind = notification.Kind(kind)
	pref.Channel = notification.Channel(channel)
	pref.Frequency = Frequency(frequency)
	return &pref, nil
}
