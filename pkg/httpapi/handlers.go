package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/subtrackhq/notify/pkg/delivlog"
	"github.com/subtrackhq/notify/pkg/inbox"
	"github.com/subtrackhq/notify/pkg/logger"
	"github.com/subtrackhq/notify/pkg/notification"
	"github.com/subtrackhq/notify/pkg/queue"
)

// handleSend runs one request through the engine. The engine always returns
// a structured result; HTTP status only distinguishes accepted from failed.
func (a *API) handleSend(w http.ResponseWriter, r *http.Request) {
	var req notification.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	result := a.engine.Send(r.Context(), req)

	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	respondJSON(w, status, result)
}

func (a *API) handleSendBatch(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Notifications []notification.Request `json:"notifications"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if len(body.Notifications) == 0 {
		respondError(w, http.StatusBadRequest, "notifications array is empty", nil)
		return
	}

	// Per-item failures land in the per-item results, never abort the batch.
	respondJSON(w, http.StatusOK, a.engine.SendBatch(r.Context(), body.Notifications))
}

func (a *API) handleCancel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid queue id", err)
		return
	}

	switch err := a.engine.CancelScheduled(r.Context(), id); {
	case err == nil:
		respondJSON(w, http.StatusOK, map[string]any{
			"success":  true,
			"queue_id": id,
		})
	case errors.Is(err, queue.ErrItemNotFound):
		respondError(w, http.StatusNotFound, "queue item not found", nil)
	case errors.Is(err, queue.ErrInvalidTransition):
		respondError(w, http.StatusConflict, "queue item is no longer cancellable", nil)
	default:
		a.log.Error("failed to cancel queue item", logger.QueueID(id.String()), logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to cancel queue item", nil)
	}
}

// callbackPayload is the transport webhook body. The notification id is our
// delivery log entry id, echoed back by the provider from message metadata.
type callbackPayload struct {
	NotificationID uuid.UUID  `json:"notification_id"`
	Event          string     `json:"event"`
	Timestamp      *time.Time `json:"timestamp,omitempty"`
}

func (a *API) handleCallback(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")

	var payload callbackPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid callback body", err)
		return
	}
	if payload.NotificationID == uuid.Nil {
		respondError(w, http.StatusBadRequest, "notification_id is required", nil)
		return
	}

	event := delivlog.Event(payload.Event)
	if !event.Valid() {
		respondError(w, http.StatusBadRequest, "unknown lifecycle event", nil)
		return
	}

	at := time.Now()
	if payload.Timestamp != nil {
		at = *payload.Timestamp
	}

	switch err := a.recorder.AppendEvent(r.Context(), payload.NotificationID, event, at); {
	case err == nil:
		a.log.Info("delivery callback recorded",
			logger.NotificationID(payload.NotificationID.String()),
			logger.Channel(provider),
			logger.Kind(string(event)))
		respondJSON(w, http.StatusOK, map[string]any{"success": true})
	case errors.Is(err, delivlog.ErrEntryNotFound):
		respondError(w, http.StatusNotFound, "delivery log entry not found", nil)
	default:
		a.log.Error("failed to record delivery callback",
			logger.NotificationID(payload.NotificationID.String()), logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to record callback", nil)
	}
}

func (a *API) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	limit, offset := pagination(r, 50)

	entries, err := a.recorder.History(r.Context(), userID, limit, offset)
	if err != nil {
		a.log.Error("failed to list delivery history", logger.UserID(userID), logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to list delivery history", nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (a *API) handleInboxList(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	limit, offset := pagination(r, 20)

	entries, err := a.inbox.List(r.Context(), userID, inbox.ListOptions{
		Limit:      limit,
		Offset:     offset,
		OnlyUnread: r.URL.Query().Get("unread") == "true",
	})
	if err != nil {
		a.log.Error("failed to list inbox", logger.UserID(userID), logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to list inbox", nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (a *API) handleInboxUnreadCount(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	count, err := a.inbox.CountUnread(r.Context(), userID)
	if err != nil {
		a.log.Error("failed to count unread inbox entries", logger.UserID(userID), logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to count unread entries", nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"unread": count})
}

func (a *API) handleInboxMarkRead(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var body struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if len(body.IDs) == 0 {
		respondError(w, http.StatusBadRequest, "ids array is empty", nil)
		return
	}

	switch err := a.inbox.MarkRead(r.Context(), userID, body.IDs...); {
	case err == nil:
		respondJSON(w, http.StatusOK, map[string]any{"success": true})
	case errors.Is(err, inbox.ErrEntryNotFound):
		respondError(w, http.StatusNotFound, "inbox entry not found", nil)
	default:
		a.log.Error("failed to mark inbox entries read", logger.UserID(userID), logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to mark entries read", nil)
	}
}

func pagination(r *http.Request, defaultLimit int) (limit, offset int) {
	limit = defaultLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}
