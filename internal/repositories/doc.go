// Package repositories implements SQLite persistence for the media catalog.
//
// [DocumentStore] is a schemaless document database over a single `documents` table: each row holds a
// JSON body keyed by (collection, id). It implements [models.DocumentStore], the contract the upload
// pipelines write through, including server timestamps and dotted-path partial updates.
//
// Typed repositories decode documents into catalog entities:
//   - [ReleaseRepository] : singles, EPs and albums
//   - [SongRepository] : featured songs, newest first
//   - [VideoRepository] : gallery videos, newest first
//   - [SettingsRepository] : the homepage settings document, created on first load
//
// Sequence numbers provide stable insertion ordering independent of generated ids and timestamps.
// The [NextSequence] function atomically increments the counter in the documents_sequence table.
package repositories
