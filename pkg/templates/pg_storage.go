package templates

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

// NewPGStorage creates a Postgres-backed template storage.
func NewPGStorage(pool *pgxpool.Pool) *PGStorage {
	return &PGStorage{pool: pool}
}

const templateColumns = `template_key, notification_type, channel_type, COALESCE(priority, ''),
	COALESCE(subject_template, ''), COALESCE(html_template, ''), COALESCE(text_template, ''),
	COALESCE(push_title, ''), COALESCE(push_body, ''), variables, is_active, created_at, updated_at`

func (s *PGStorage) GetActive(ctx context.Context, key string, channel notification.Channel) (*Template, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+templateColumns+`
		FROM templates
		WHERE template_key = $1 AND channel_type = $2 AND is_active`,
		key, string(channel))

	tpl, err := scanTemplate(row)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("select template: %w", err)
	}
	return tpl, nil
}

func (s *PGStorage) Upsert(ctx context.Context, tpl Template) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO templates
			(template_key, notification_type, channel_type, priority,
			 subject_template, html_template, text_template, push_title, push_body,
			 variables, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''),
			NULLIF($8, ''), NULLIF($9, ''), $10, $11, now(), now())
		ON CONFLICT (template_key) DO UPDATE SET
			notification_type = EXCLUDED.notification_type,
			channel_type = EXCLUDED.channel_type,
			priority = EXCLUDED.priority,
			subject_template = EXCLUDED.subject_template,
			html_template = EXCLUDED.html_template,
			text_template = EXCLUDED.text_template,
			push_title = EXCLUDED.push_title,
			push_body = EXCLUDED.push_body,
			variables = EXCLUDED.variables,
			is_active = EXCLUDED.is_active,
			updated_at = now()`,
		tpl.Key, string(tpl.Kind), string(tpl.Channel), string(tpl.Priority),
		tpl.Subject, tpl.HTML, tpl.Text, tpl.PushTitle, tpl.PushBody,
		tpl.Variables, tpl.Active)
	if err != nil {
		return fmt.Errorf("upsert template: %w", err)
	}
	return nil
}

func (s *PGStorage) SetActive(ctx context.Context, key string, active bool) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE templates SET is_active = $2, updated_at = now()
		WHERE template_key = $1`,
		key, active)
	if err != nil {
		return fmt.Errorf("set template active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

func (s *PGStorage) List(ctx context.Context) ([]Template, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+templateColumns+`
		FROM templates
		ORDER BY template_key`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var out []Template
	for rows.Next() {
		tpl, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		out = append(out, *tpl)
	}
	return out, rows.Err()
}

func scanTemplate(row pgx.Row) (*Template, error) {
	var tpl Template
	var kind, channel, priority string
	if err := row.Scan(&tpl.Key, &kind, &channel, &priority,
		&tpl.Subject, &tpl.HTML, &tpl.Text, &tpl.PushTitle, &tpl.PushBody,
		&tpl.Variables, &tpl.Active, &tpl.CreatedAt, &tpl.UpdatedAt); err != nil {
		return nil, err
	}
	tpl.Kind = notification.Kind(kind)
	tpl.Channel = notification.Channel(channel)
	tpl.Priority = notification.Priority(priority)
	return &tpl, nil
}
