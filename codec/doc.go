// Package codec encodes record sets into a compact bit stream and decodes them back.
//
// A Plan fixes, per column, the universal code and the ordinal offset to use. Each record
// is written column by column as one symbol per value, followed by the raw bytes of string
// and byte values. The stream carries no lengths or delimiters, so decoding needs the same
// Plan and the record count.
//
// Writer implements pipeline.Consumer and Reader implements pipeline.Producer. Both run
// an explicit state machine:
//
//	Writer: New -> Prepared -> InPass -> PassDone -> Complete
//	Reader: New -> Prepared -> InPass (sequence open) -> Prepared -> Complete
//
// Any call out of order returns an *errs.StateError. Any I/O or domain error moves the job
// to StateFailed and releases its file handles. Both also implement pipeline.Aborter:
// pipeline.Run aborts them when another participant fails, which closes their files,
// removes a partial data file and leaves them in StateAborted.
//
// Alongside the data file the Writer records a small stats file holding the record count
// and per-column bit counters. A later run with the same plan validates it and skips the
// encode pass unless the context asks for a clean run.
package codec
