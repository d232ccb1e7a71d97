// Package mail provides the outbound email transport consumed by the
// notification engine's email channel.
//
// TransportSender is deliberately minimal: one Send call, one provider
// message id back. The engine treats the transport as opaque — policy,
// templating, retries and logging all live upstream. Two implementations
// ship with the package: a Postmark client for production and a DevSender
// that writes messages to disk for local development.
package mail
