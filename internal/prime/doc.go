// Package prime implements the PRIME object model on top of the codec:
// key pairs, signets and signing requests, password-wrapped keys, and
// messages sealed from ephemeral, encrypted and signature chunks.
//
// Every object keeps the ordered field list it was built or parsed from, so
// encoding a parsed object reproduces its input byte for byte, including
// fields this package does not understand.
package prime
