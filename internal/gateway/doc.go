// Package gateway is the single path through which the client talks to the
// EntrenaPro API.
//
// Every call goes through Client.Request, which resolves the URL against the
// configured base, attaches the bearer token unless the call opts out with
// SkipAuth, and applies one authorization-failure policy for the whole process:
//
//   - PolicyNotifyOnly (default): a 401/403 shows a notice and leaves the
//     session alone; the caller decides what to do.
//   - PolicyForceLogout: a 401/403 shows a notice, clears the session and
//     schedules a redirect to the landing route after a short delay.
//
// Concurrent failures are collapsed: while a redirect is pending, or while the
// notice is still visible, further failures are not reported again.
//
// Transport failures never surface as Go errors. Request returns a synthetic
// Response with Status 0 and Err set, so callers use one success check for
// every outcome. The error return is reserved for local problems: a bad
// method, an unreadable session, or a cancelled context.
package gateway
