// Package httpapi exposes the notification engine over HTTP.
//
// The surface mirrors the engine's structured results: POST /v1/notifications
// and /v1/notifications/batch accept the send request shapes and return
// SendResult / BatchResult JSON, DELETE /v1/queue/{id} cancels a pending
// scheduled item, and POST /v1/callbacks/{provider} appends transport
// lifecycle events (delivered, opened, clicked, bounced, complained) to the
// delivery log. Per-user read endpoints serve the delivery history and the
// in-app inbox feed.
package httpapi
