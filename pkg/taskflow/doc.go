// Package taskflow provides a public façade over the tracker: a Runtime
// that owns the live board, its undo history and the archiver, plus
// re-exports of the entity and calendar types so callers need not import
// internal packages.
package taskflow
