// Package api provides typed calls for the EntrenaPro endpoints on top of the
// gateway. Non-2xx outcomes are returned as *StatusError; a request that never
// reached the server matches ErrNetwork.
package api
