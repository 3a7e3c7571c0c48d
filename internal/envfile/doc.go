// Package envfile reads and updates a flat KEY=VALUE configuration file.
//
// The file is the durable home of the session token pair. Updates are
// line-preserving: only the line for the updated key changes, every other
// line (comments, blank lines, unrelated keys) keeps its content and order.
//
// No locking is performed. Two processes updating the same file at once
// race, and the last rename wins.
package envfile
