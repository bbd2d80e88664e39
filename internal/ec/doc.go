// Package ec wraps the two key pairs a PRIME key carries: an Ed25519 signing
// pair and a secp256k1 encryption pair used for ECDH key agreement.
//
// Private encryption scalars are validated against the curve order and public
// encryption keys are accepted in compressed form only.
package ec
