// Package history journals the outcome of fingerprinting passes.
//
// Each settled pass becomes a [Record] holding its code and metadata. No
// audio is stored. Records are msgpack-encoded in a [kv.Store]:
//
//	pass:{YYYYMMDD}:{ts_ns}:{id}  → msgpack-encoded Record
//	pid:{id}                      → record key suffix (reverse index)
//
// The timestamp is the pass start, zero-padded so lexicographic order is
// chronological. [Journal.List] walks the keys backwards to return the
// newest records first.
package history
