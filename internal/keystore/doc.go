// Package keystore holds the master key that protects the stored login credentials.
//
// Supports three backends with different security and deployment tradeoffs:
//   - Keyring: OS-native credential storage (macOS Keychain, Windows Credential Manager, Secret Service)
//   - File: Local key file with atomic writes and 0600 permissions
//   - Env: Read-only environment variable (the key must be provisioned externally)
//
// Keys are exactly KeySize bytes and are stored base64 encoded.
package keystore
