// Package session resolves and establishes the authenticated identity for a
// request across interchangeable carrying mechanisms.
//
// Two carriers exist: a long-lived signed cookie written at login, and a
// bearer token verified per-request for native clients. The manager
// multiplexes them so handlers see one logical logged-in-email concept.
package session
