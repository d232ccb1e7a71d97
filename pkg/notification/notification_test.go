package notification_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subtrackhq/notify/pkg/notification"
)

func TestRequest_Validate(t *testing.T) {
	t.Parallel()

	valid := notification.Request{
		UserID:    "u1",
		Recipient: "a@x.com",
		Kind:      notification.KindPaymentFailed,
		Channel:   notification.ChannelEmail,
	}

	t.Run("valid request", func(t *testing.T) {
		t.Parallel()
		require.NoError(t, valid.Validate())
	})

	t.Run("missing user id", func(t *testing.T) {
		t.Parallel()
		req := valid
		req.UserID = ""
		assert.ErrorIs(t, req.Validate(), notification.ErrUserIDRequired)
	})

	t.Run("missing recipient", func(t *testing.T) {
		t.Parallel()
		req := valid
		req.Recipient = ""
		assert.ErrorIs(t, req.Validate(), notification.ErrRecipientRequired)
	})

	t.Run("unknown kind", func(t *testing.T) {
		t.Parallel()
		req := valid
		req.Kind = "marketing_blast"
		assert.ErrorIs(t, req.Validate(), notification.ErrInvalidKind)
	})

	t.Run("unknown channel", func(t *testing.T) {
		t.Parallel()
		req := valid
		req.Channel = "carrier_pigeon"
		assert.ErrorIs(t, req.Validate(), notification.ErrInvalidChannel)
	})

	t.Run("unknown priority", func(t *testing.T) {
		t.Parallel()
		req := valid
		req.Priority = "asap"
		assert.ErrorIs(t, req.Validate(), notification.ErrInvalidPriority)
	})

	t.Run("empty priority falls back to default", func(t *testing.T) {
		t.Parallel()
		req := valid
		require.NoError(t, req.Validate())
		assert.Equal(t, notification.PriorityNormal, req.EffectivePriority())

		req.Priority = notification.PriorityUrgent
		assert.Equal(t, notification.PriorityUrgent, req.EffectivePriority())
	})

	t.Run("scheduled request validates like immediate", func(t *testing.T) {
		t.Parallel()
		req := valid
		at := time.Now().Add(time.Hour)
		req.ScheduledAt = &at
		require.NoError(t, req.Validate())
	})
}

func TestRenderedContent_Preview(t *testing.T) {
	t.Parallel()

	t.Run("prefers text body", func(t *testing.T) {
		t.Parallel()
		c := notification.RenderedContent{Text: "plain", HTML: "<b>html</b>", PushBody: "push"}
		assert.Equal(t, "plain", c.Preview(200))
	})

	t.Run("falls back to html then push body", func(t *testing.T) {
		t.Parallel()
		c := notification.RenderedContent{HTML: "<b>html</b>"}
		assert.Equal(t, "<b>html</b>", c.Preview(200))

		c = notification.RenderedContent{PushBody: "push body"}
		assert.Equal(t, "push body", c.Preview(200))
	})

	t.Run("truncates by runes, not bytes", func(t *testing.T) {
		t.Parallel()
		c := notification.RenderedContent{Text: strings.Repeat("é", 10)}
		assert.Equal(t, strings.Repeat("é", 4), c.Preview(4))
	})

	t.Run("zero max means unbounded", func(t *testing.T) {
		t.Parallel()
		c := notification.RenderedContent{Text: "hello"}
		assert.Equal(t, "hello", c.Preview(0))
	})
}

func TestEnums_Valid(t *testing.T) {
	t.Parallel()

	assert.True(t, notification.KindSecurityAlert.Valid())
	assert.False(t, notification.Kind("newsletter").Valid())

	assert.True(t, notification.ChannelInApp.Valid())
	assert.False(t, notification.Channel("fax").Valid())

	assert.True(t, notification.PriorityLow.Valid())
	assert.False(t, notification.Priority("").Valid())
}
