// Package tasks orchestrates prepare and download jobs with real-time progress reporting.
//
// # Core Operations
//
// The [Engine] interface defines three groups of operations:
//
//  1. Prepare : [Engine.PreparePlaylist], [Engine.PrepareAlbum], [Engine.PrepareUserPlaylists],
//     [Engine.PrepareArtistAlbums] and [Engine.PrepareTracks]
//     - Normalizes catalog metadata into ordered track references
//     - Persists one track list per collection under a fresh file name
//     - Returns a summary with a download id per collection, plus an aggregate id for batches
//
//  2. Download : [Engine.Download] and [Engine.DownloadSong]
//     - Decodes the id and resolves every named track list before fetching anything
//     - Fetches tracks sequentially, list by list, in stored order
//     - Records per-track failures in a [models.FetchReport] and keeps going
//
//  3. Inspect : [Engine.Inspect] and [Engine.Missing]
//     - Decodes an id for diagnostics and reports names without a stored list
//
// # Progress Reporting
//
// Downloads send [ProgressUpdate] values over a caller-owned channel.
// Updates use select with default to prevent blocking, so slow readers miss updates instead of stalling the run.
//
// # Failure Semantics
//
// Batch prepares gather all metadata before writing, so a catalog failure leaves nothing behind.
// A store failure partway through a batch leaves the lists written so far in place; no id is returned.
// Nothing is retried.
//
// # Implementation
//
// [JobEngine] implements [Engine] with dependencies on:
//   - [services.Catalog] : Spotify metadata client
//   - [services.Fetcher] : spotdl media fetcher
//   - [TrackStore] : flat-file track lists ([tracklists.Store])
//   - [codec.Codec] : download id encoding
package tasks
