// Package tasks runs long catalog operations with real-time progress reporting.
//
// # Bulk Export
//
// [CatalogExporter.BulkExport] writes the whole catalog below one directory:
//
//	{dir}/songs.{ext}                  top songs in the requested format
//	{dir}/videos.json                  gallery videos
//	{dir}/{collection}/{id}/README.md  one directory per release, cover saved next to it
//	{dir}/export_manifest.json         per-release outcome
//
// Releases are exported by a worker pool. Cover downloads are paced by a rate limiter,
// and a release that fails to export is recorded in the manifest without stopping the others.
//
// # Progress Reporting
//
// Operations send [ProgressUpdate] values on a caller-owned channel. Sends never block;
// updates are dropped when the channel is full. The channel is not closed by the exporter.
package tasks
