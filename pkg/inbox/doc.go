// Package inbox stores the in-app notification feed the product UI reads.
//
// The engine's in_app channel sender writes entries here; "sent" for that
// channel means the insert succeeded, nothing more. The rest of the API
// (listing, unread counting, read marking) exists for the UI endpoints.
package inbox
