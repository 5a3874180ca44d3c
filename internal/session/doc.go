// Package session keeps the signed-in user's identity and bearer token in a
// persistent key/value backend.
//
// The session is stored as four independent string keys (user_id, user_role,
// user_nombre, auth_token). Readers always query the backend; no component holds
// a copy. A session is either empty (logged out) or complete: user id, role and
// token all present. The display name is optional.
package session
