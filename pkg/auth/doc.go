// Package auth provides pluggable authentication and rate limiting for the
// gateway's HTTP surface.
//
// Authentication uses a chain-of-responsibility pattern with three-outcome
// voting: each authenticator returns Yes (identity found), No (credentials
// invalid), or Abstain (can't handle). A configurable default voter decides
// when all authenticators abstain.
//
// Auth is implemented as HTTP middleware, keeping it decoupled from request
// translation. Rejected requests receive the regular {"error","code","details"}
// envelope so Ollama clients surface them like any other failure.
package auth
