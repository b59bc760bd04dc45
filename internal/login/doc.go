// Package login implements the login orchestrator: the HTTP surface that
// sequences state tokens, provider dispatch, account reconciliation, and
// session establishment to answer whether a request is authenticated and
// where it goes next.
package login
