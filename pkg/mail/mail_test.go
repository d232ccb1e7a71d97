package mail_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subtrackhq/notify/pkg/mail"
)

func TestMessage_Validate(t *testing.T) {
	t.Parallel()

	valid := mail.Message{
		To:       "user@example.com",
		Subject:  "Payment failed",
		BodyHTML: "<p>Your payment failed</p>",
	}

	t.Run("valid message", func(t *testing.T) {
		t.Parallel()
		require.NoError(t, valid.Validate())
	})

	t.Run("missing recipient", func(t *testing.T) {
		t.Parallel()
		msg := valid
		msg.To = ""
		assert.ErrorIs(t, msg.Validate(), mail.ErrRecipientRequired)
	})

	t.Run("malformed recipient", func(t *testing.T) {
		t.Parallel()
		msg := valid
		msg.To = "not-an-email"
		assert.ErrorIs(t, msg.Validate(), mail.ErrInvalidRecipient)
	})

	t.Run("missing subject", func(t *testing.T) {
		t.Parallel()
		msg := valid
		msg.Subject = ""
		assert.ErrorIs(t, msg.Validate(), mail.ErrSubjectRequired)
	})

	t.Run("missing body", func(t *testing.T) {
		t.Parallel()
		msg := valid
		msg.BodyHTML = ""
		msg.BodyText = ""
		assert.ErrorIs(t, msg.Validate(), mail.ErrBodyRequired)
	})

	t.Run("text-only body is enough", func(t *testing.T) {
		t.Parallel()
		msg := valid
		msg.BodyHTML = ""
		msg.BodyText = "Your payment failed"
		require.NoError(t, msg.Validate())
	})
}

func TestNewPostmarkSender_ConfigValidation(t *testing.T) {
	t.Parallel()

	valid := mail.Config{
		PostmarkServerToken:  "server-token",
		PostmarkAccountToken: "account-token",
		SenderEmail:          "no-reply@subtrackhq.com",
		SupportEmail:         "support@subtrackhq.com",
	}

	t.Run("valid config", func(t *testing.T) {
		t.Parallel()
		sender, err := mail.NewPostmarkSender(valid)
		require.NoError(t, err)
		require.NotNil(t, sender)
	})

	t.Run("missing tokens", func(t *testing.T) {
		t.Parallel()
		cfg := valid
		cfg.PostmarkServerToken = ""
		_, err := mail.NewPostmarkSender(cfg)
		assert.ErrorIs(t, err, mail.ErrInvalidConfig)

		cfg = valid
		cfg.PostmarkAccountToken = ""
		_, err = mail.NewPostmarkSender(cfg)
		assert.ErrorIs(t, err, mail.ErrInvalidConfig)
	})

	t.Run("invalid sender email", func(t *testing.T) {
		t.Parallel()
		cfg := valid
		cfg.SenderEmail = "nope"
		_, err := mail.NewPostmarkSender(cfg)
		assert.ErrorIs(t, err, mail.ErrInvalidConfig)
	})
}

func TestDevSender_Send(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sender := mail.NewDevSender(dir)

	id, err := sender.Send(context.Background(), mail.Message{
		To:       "user@example.com",
		Subject:  "Welcome aboard",
		BodyHTML: "<h1>Welcome</h1>",
		Tag:      "welcome",
	})
	require.NoError(t, err)
	require.NotEmpty(t, id, "dev sender must mint a message id")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	var htmlFile, jsonFile string
	for _, e := range entries {
		switch filepath.Ext(e.Name()) {
		case ".html":
			htmlFile = filepath.Join(dir, e.Name())
		case ".json":
			jsonFile = filepath.Join(dir, e.Name())
		}
	}
	require.NotEmpty(t, htmlFile)
	require.NotEmpty(t, jsonFile)

	body, err := os.ReadFile(htmlFile)
	require.NoError(t, err)
	assert.Equal(t, "<h1>Welcome</h1>", string(body))

	raw, err := os.ReadFile(jsonFile)
	require.NoError(t, err)

	var meta map[string]any
	require.NoError(t, json.Unmarshal(raw, &meta))
	assert.Equal(t, id, meta["message_id"])
	assert.Equal(t, "user@example.com", meta["to"])
	assert.True(t, strings.Contains(filepath.Base(htmlFile), "welcome"))
}

func TestDevSender_RejectsInvalidMessage(t *testing.T) {
	t.Parallel()

	sender := mail.NewDevSender(t.TempDir())
	_, err := sender.Send(context.Background(), mail.Message{To: "user@example.com"})
	assert.ErrorIs(t, err, mail.ErrSubjectRequired)
}
