// Package stacie implements the STACIE password-based key hierarchy.
//
// A password is stretched into a chain of 64-byte values:
//
//	seed -> master key -> password key -> verification token -> login token
//
// Every stage is a pure function of the previous stage plus the account's
// username, password and 64-byte salt, or a per-login nonce for the final
// token. The cost of the first three stages is set by [RoundsCalculate], which
// charges short passwords more rounds than long ones and lets an operator add
// a bonus without forcing a password change.
//
// Realm keys scope a master key to one named purpose. They also need a
// server-held shard, so neither the user's password nor the server's shard is
// enough on its own.
package stacie
