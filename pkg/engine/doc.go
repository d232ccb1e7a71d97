// Package engine orchestrates the notification pipeline.
//
// An immediate send runs synchronously end to end: the preference resolver
// gates the request, the renderer produces channel-shaped content from the
// active template or a caller override, the sender registry dispatches it,
// and the delivery recorder logs the outcome. A request with a future send
// time is persisted as a queue item instead and processed later through the
// exact same path by the queue worker, with the engine as its processor.
//
//	eng, err := engine.New(resolver, renderer, registry, queueStorage, recorder)
//	if err != nil {
//		return err
//	}
//
//	result := eng.Send(ctx, notification.Request{
//		UserID:    "u1",
//		Recipient: "a@x.com",
//		Kind:      notification.KindPaymentFailed,
//		Channel:   notification.ChannelEmail,
//		Data:      map[string]any{"amount": "9.99"},
//	})
//
// Results are always structured: a policy block is success with the block
// reason, a scheduled request is success with the queue id, and batch sends
// report per-item results plus aggregate totals without ever aborting the
// remaining items on a failure.
package engine
