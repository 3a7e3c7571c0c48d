// Package credstore persists the login identifier and secret in encrypted form.
//
// The stored credentials are the fallback used to log in again when a session
// can no longer be refreshed. Each save derives a fresh ChaCha20-Poly1305 key
// from the installation master key (see package keystore) with HKDF and a
// random salt. The file is obfuscated against casual reading; it does not
// resist an attacker who can read both the file and the master key.
package credstore
