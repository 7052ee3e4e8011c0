// Package models defines the data shapes shared by the job-ticket subsystem.
//
// The package contains three categories of types:
//
// 1. Catalog shapes: normalized metadata produced by the catalog client
//   - [FullCollection] : playlist or album with display name, safe name, count, link and tracks
//   - [TrackReference] : the minimum needed to fetch one track later
//
// 2. Ticket shapes: what a download id carries
//   - [JobDescriptor] : ordered track-list file names
//
// 3. Caller-facing projections
//   - [CollectionSummary] : one collection plus its own download id
//   - [PreparedBatch] : a user's playlists or an artist's albums plus an aggregate id
//   - [FetchReport] : per-track outcome of a resolve-and-fetch run
package models
