// Package waveflow is the client session gateway for the WaveFlow Studio
// service.
//
// A Gateway owns one credential and one base address. Construction resolves
// the credential: service-issued keys (prefix "AAAI") are trusted as-is and
// any other token is checked once against GET /user. After that every
// request goes through Gateway.Do, which performs a single HTTP exchange and
// normalizes the outcome:
//
//   - 2xx with a JSON body returns the decoded payload untouched.
//   - non-2xx with a JSON body returns an ErrAPI error whose message is taken
//     from detail, error or message, in that order.
//   - a body that is not JSON returns ErrTransport for non-2xx statuses and
//     ErrDecode for 2xx statuses.
//   - connection failures and timeouts return ErrTransport.
//
// Validation failures (ErrValidation) are raised before any network
// activity. Nothing is retried.
//
// The gateway also holds the current session identifier. It is replaced
// whenever a successful response carries session_id or workflow_id and is
// sent as the Sessionid header on calls that set Call.Session.
//
// Per-domain helpers live in package studio and only depend on the Do method.
package waveflow
