// Package session owns the current token pair and keeps it usable.
//
// A Session is the process-local token cache, seeded from the env file and
// written through to it. A Lifecycle decides whether the cached access token
// can be used and otherwise drives the fallback chain:
//
//	Absent ─────────────────────────────────────────────► ErrMissingToken
//	Valid ──────────────────────────────────────────────► token
//	Expired ─► RefreshPending ─ok─► persist ─────────────► Valid
//	                         └fail► ReloginPending ─ok─► persist ─► Valid
//	                                               └fail─────────► Fatal
//
// Tokens that are not three dot-separated segments are opaque and never
// expire. Tokens whose claims cannot be read are accepted as they are.
package session
