package relay

import ferrors "git.home.luguber.info/inful/screenstore/internal/foundation/errors"

var (
	// ErrConnectFailed reports that the NATS connection could not be established.
	ErrConnectFailed = ferrors.RelayError("failed to connect to NATS").Build()
	// ErrPublishFailed reports that a snapshot could not be published.
	ErrPublishFailed = ferrors.RelayError("failed to publish snapshot").Build()
	// ErrRelayClosed is returned when publishing after Close.
	ErrRelayClosed = ferrors.LifecycleError("relay is closed").Build()
)
