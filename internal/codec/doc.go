// Package codec reads and writes the PRIME object envelope.
//
// A binary object is a header followed by a field stream:
//
//	tag (2 bytes) || payload size (3 or 4 bytes) || field*
//	field = type (1 byte) || length (1 or 3 bytes) || data
//
// All integers are big-endian. Widths, minimum sizes and field rules come
// from a per-kind [Schema]; adding an object kind means adding a table row.
//
// The armored form wraps the binary object in a PEM block whose label names
// the object kind.
package codec
