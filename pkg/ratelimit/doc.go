// Package ratelimit provides a token bucket rate limiter with an
// in-memory store and an HTTP middleware, used to throttle notification
// submission endpoints per client.
//
// A Limit of {Burst: 20, Refill: 10, Interval: time.Minute} allows a
// burst of 20 requests and sustains 10 per minute after that.
package ratelimit
