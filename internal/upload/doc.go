// package upload implements the admin upload pipelines for releases, top songs and videos.
//
// # Pipeline
//
// A submission is validated up front (first violation wins, nothing is uploaded), then every asset is
// uploaded to a [storage.BlobStore] strictly in order: the cover first, then each media file. Only when
// every asset has a remote URL is one record written to the [models.DocumentStore].
//
// # Progress
//
// Each asset carries an equal weight; a cover with N media files gives every asset a 1/(N+1) share and a
// single song with its cover splits 50/50. [Tracker] folds byte progress into one overall percentage that
// never decreases. Updates are sent on a channel without blocking, like the rest of the CLI's long-running
// operations.
//
// # Failures
//
// Errors are typed: [*ValidationError], [*AssetUploadError] and [*RecordWriteError]. A failed pipeline
// still returns its [Result], listing the blobs left behind in Orphans. With [Options.Cleanup] those blobs
// are deleted by a small rate-limited worker pool before returning.
package upload
