package templates

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/subtrackhq/notify/pkg/cache"
	"github.com/subtrackhq/notify/pkg/notification"
)

// variablePattern matches {{name}} tokens, tolerating inner whitespace.
// Substitution is one linear scan per field; there are no conditionals,
// loops, or nested templates in this content model.
var variablePattern = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+)\s*\}\}`)

// Substitute replaces every {{name}} token in s with the string form of the
// matching variable. Absent variables render as the empty string, so
// rendering is total: it never fails on caller data.
func Substitute(s string, vars map[string]any) string {
	if s == "" {
		return ""
	}
	return variablePattern.ReplaceAllStringFunc(s, func(token string) string {
		name := variablePattern.FindStringSubmatch(token)[1]
		value, ok := vars[name]
		if !ok || value == nil {
			return ""
		}
		return fmt.Sprint(value)
	})
}

type cacheKey struct {
	key     string
	channel notification.Channel
}

// Renderer resolves templates and produces channel-shaped content.
type Renderer struct {
	storage Storage
	rows    *cache.TTLCache[cacheKey, Template]
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithTemplateCache enables read-through caching of resolved templates.
// Template mutations through Store invalidate the affected keys, so the TTL
// only bounds staleness for rows edited outside this process.
func WithTemplateCache(capacity int, ttl time.Duration) RendererOption {
	return func(r *Renderer) {
		r.rows = cache.NewTTL[cacheKey, Template](capacity, ttl)
	}
}

// NewRenderer creates a template renderer over the given storage.
func NewRenderer(storage Storage, opts ...RendererOption) (*Renderer, error) {
	if storage == nil {
		return nil, ErrStorageNil
	}

	r := &Renderer{storage: storage}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Render resolves the active template for (key, channel) and substitutes the
// variables into the channel-appropriate content slots. Rendering is
// deterministic: the same template and variables always produce the same
// output.
func (r *Renderer) Render(ctx context.Context, key string, channel notification.Channel, vars map[string]any) (notification.RenderedContent, error) {
	tpl, err := r.resolve(ctx, key, channel)
	if err != nil {
		return notification.RenderedContent{}, err
	}

	var content notification.RenderedContent
	switch channel {
	case notification.ChannelPush:
		content.PushTitle = Substitute(tpl.PushTitle, vars)
		content.PushBody = Substitute(tpl.PushBody, vars)
	case notification.ChannelSMS:
		content.Text = Substitute(tpl.Text, vars)
	default: // email and in_app share the subject/html/text shape
		content.Subject = Substitute(tpl.Subject, vars)
		content.HTML = Substitute(tpl.HTML, vars)
		content.Text = Substitute(tpl.Text, vars)
	}
	return content, nil
}

func (r *Renderer) resolve(ctx context.Context, key string, channel notification.Channel) (*Template, error) {
	ck := cacheKey{key: key, channel: channel}

	if r.rows != nil {
		if tpl, ok := r.rows.Get(ck); ok {
			return &tpl, nil
		}
	}

	tpl, err := r.storage.GetActive(ctx, key, channel)
	if err != nil {
		return nil, err
	}

	if r.rows != nil {
		r.rows.Put(ck, *tpl)
	}
	return tpl, nil
}

// invalidate drops every cached channel variant for the key. Template keys
// already encode the channel, but invalidating all variants keeps this
// correct even if an operator re-targets a key.
func (r *Renderer) invalidate(key string) {
	if r.rows == nil {
		return
	}
	for _, ch := range []notification.Channel{
		notification.ChannelEmail,
		notification.ChannelSMS,
		notification.ChannelPush,
		notification.ChannelInApp,
	} {
		r.rows.Invalidate(cacheKey{key: key, channel: ch})
	}
}

// Store is the operator-facing mutation surface. Writes go through the same
// Renderer so its cache is invalidated in the same call that changes the row.
type Store struct {
	renderer *Renderer
}

// NewStore wraps a renderer with the template mutation API.
func NewStore(renderer *Renderer) *Store {
	return &Store{renderer: renderer}
}

// Save validates and persists a template, then invalidates its cache entries.
func (s *Store) Save(ctx context.Context, tpl Template) error {
	if err := tpl.Validate(); err != nil {
		return err
	}
	if err := s.renderer.storage.Upsert(ctx, tpl); err != nil {
		return err
	}
	s.renderer.invalidate(tpl.Key)
	return nil
}

// SetActive flips a template's active flag and invalidates its cache entries.
// Deactivating the only template for a (kind, channel) makes the engine fail
// closed for that combination.
func (s *Store) SetActive(ctx context.Context, key string, active bool) error {
	if err := s.renderer.storage.SetActive(ctx, key, active); err != nil {
		return err
	}
	s.renderer.invalidate(key)
	return nil
}

// List returns all templates for the admin console.
func (s *Store) List(ctx context.Context) ([]Template, error) {
	return s.renderer.storage.List(ctx)
}
