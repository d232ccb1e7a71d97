// Package delivlog records delivery outcomes for audit and analytics.
//
// Every send attempt produces exactly one Entry holding a bounded content
// preview, never the full rendered body. Out-of-band transport callbacks
// (delivered, opened, clicked, bounced, complained) append lifecycle
// timestamps to the existing entry: each timestamp is written once, and the
// entry status only ever advances to the highest ranked event observed.
//
//	recorder, err := delivlog.NewRecorder(delivlog.NewMemoryStorage())
//	if err != nil {
//		return err
//	}
//
//	id, err := recorder.Record(ctx, req, content, delivlog.Outcome{
//		Sent:       true,
//		ExternalID: "pm-123",
//	})
package delivlog
