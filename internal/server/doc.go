// Package server exposes the job engine over HTTP with gin.
//
// # Routes
//
//	GET  /health
//	POST /api/playlists                  {"link": "..."}
//	POST /api/albums                     {"link": "..."}
//	POST /api/users/:user_id/playlists
//	POST /api/artists                    {"link": "..."}
//	POST /api/tracks                     {"name": "...", "tracks": ["..."]}
//	GET  /api/downloads/:download_id     decoded track-list names and any missing ones
//	POST /api/downloads/:download_id     resolves and fetches, returns the report
//	POST /api/songs                      {"query": "..."}
//
// Handlers are thin: each parses input, calls one [tasks.Engine] operation and writes JSON.
//
// # Errors
//
// Failures are written as {"error": "..."}. Status codes follow the error taxonomy in package shared:
// client errors are 400, missing resources 404, catalog and fetch failures 502, missing collaborators 503,
// and everything else (including store failures) 500.
//
// # Middleware
//
// [CORS] restricts browser origins to the configured list.
// [RequestLogger] tags each request with a uuid, echoed in the X-Request-ID header, and logs it on completion.
package server
