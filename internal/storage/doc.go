// Package storage implements the host persistence contracts.
//
// Two contracts are exposed:
//   - Settings: flat string-keyed settings store (Get with default, Set,
//     Remove, Contains) used for widget identities, pin flags, and
//     permission decisions
//   - BlobStore: named blob persistence (GetFile/SetFile/DeleteFile) used
//     for larger cached records
//
// Backends:
//   - FileSettings: single JSON document with atomic rename on write
//   - SQLiteSettings: modernc.org/sqlite key-value table
//   - FileBlobs: blob-per-file directory store
package storage
