// Package dispatch routes rendered notifications to channel-specific
// senders behind one uniform contract.
//
// Each channel has exactly one Sender implementation registered in a
// Registry; the orchestration layer never branches on the channel itself.
// Email delegates to the mail transport, in_app inserts into the inbox,
// and sms/push are deterministic permanent failures until their gateways
// are integrated.
//
// Failure classification lives with the senders: wrapping an error with
// Permanent tells the queue the item is not worth retrying.
package dispatch
