package models

import (
	"fmt"
	"strings"
)

// Kind identifies the shape of a catalog collection.
type Kind string

const (
	KindPlaylist Kind = "playlist"
	KindAlbum    Kind = "album"
	KindArtist   Kind = "artist"
	KindUser     Kind = "user"
	KindTrack    Kind = "track"
	KindAdHoc    Kind = "tracks"
)

// TrackReference is the minimal data the media fetcher needs to retrieve one track.
type TrackReference struct {
	Link  string `json:"link,omitempty"`  // Canonical track link, when the catalog has one
	Query string `json:"query,omitempty"` // "Artist - Title" search text
}

// NewTrackReference builds a reference from a link and the track's artists and title.
func NewTrackReference(link, title string, artists ...string) TrackReference {
	query := clean(title)
	if joined := clean(strings.Join(artists, ", ")); joined != "" && query != "" {
		query = joined + " - " + query
	}
	return TrackReference{Link: clean(link), Query: query}
}

// Target returns what the media fetcher should be given: the link when known, the query otherwise.
func (t TrackReference) Target() string {
	if t.Link != "" {
		return t.Link
	}
	return t.Query
}

// IsZero reports whether the reference carries nothing fetchable.
func (t TrackReference) IsZero() bool {
	return t.Link == "" && t.Query == ""
}

func (t TrackReference) String() string {
	if t.Link != "" && t.Query != "" {
		return fmt.Sprintf("%s (%s)", t.Query, t.Link)
	}
	return t.Target()
}

// Record encodes the reference as one track-list line (without the newline).
func (t TrackReference) Record() string {
	return clean(t.Link) + "\t" + clean(t.Query)
}

// ParseRecord decodes one track-list line.
//
// Lines without a tab are treated as a bare link when they look like one and
// as a search query otherwise.
func ParseRecord(line string) (TrackReference, error) {
	line = strings.TrimRight(line, "\r")
	if strings.TrimSpace(line) == "" {
		return TrackReference{}, fmt.Errorf("empty record")
	}

	link, query, found := strings.Cut(line, "\t")
	if !found {
		s := strings.TrimSpace(line)
		if IsLink(s) {
			return TrackReference{Link: s}, nil
		}
		return TrackReference{Query: s}, nil
	}

	if strings.Contains(query, "\t") {
		return TrackReference{}, fmt.Errorf("record has more than two fields")
	}

	ref := TrackReference{Link: strings.TrimSpace(link), Query: strings.TrimSpace(query)}
	if ref.IsZero() {
		return TrackReference{}, fmt.Errorf("record has no link or query")
	}
	return ref, nil
}

// ParseTrackInput interprets raw caller input (a link or free text) as a reference.
func ParseTrackInput(s string) TrackReference {
	s = clean(s)
	if IsLink(s) {
		return TrackReference{Link: s}
	}
	return TrackReference{Query: s}
}

// IsLink reports whether s looks like an http(s) URL or a spotify URI.
func IsLink(s string) bool {
	return strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "spotify:")
}

// clean collapses characters that would break the line-oriented record format.
func clean(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == '\t' || r == '\n' || r == '\r' {
			return ' '
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

// FullCollection is a normalized playlist or album.
type FullCollection struct {
	ID         string           `json:"id"`
	Kind       Kind             `json:"kind"`
	Name       string           `json:"name"`      // Display name as the catalog reports it
	SafeName   string           `json:"safe_name"` // Sanitized name used in track-list file names
	OwnerID    string           `json:"owner_id,omitempty"`
	TrackCount int              `json:"count"` // Total the catalog reports
	Link       string           `json:"link"`
	Tracks     []TrackReference `json:"tracks"`
}

// JobDescriptor is the plaintext behind a download id: the ordered track-list file names to resolve.
type JobDescriptor struct {
	FileNames []string `json:"filenames"`
}

// NewJobDescriptor builds a descriptor over the given file names.
func NewJobDescriptor(names ...string) JobDescriptor {
	out := make([]string, len(names))
	copy(out, names)
	return JobDescriptor{FileNames: out}
}

// CollectionSummary is the caller-facing projection of a prepared collection.
type CollectionSummary struct {
	Name       string `json:"name"`
	TrackCount int    `json:"count"`
	Link       string `json:"link"`
	DownloadID string `json:"download_id"`
	FileName   string `json:"-"`
}

// PreparedBatch is the response for multi-collection requests.
type PreparedBatch struct {
	Owner       string              `json:"owner"`
	Kind        Kind                `json:"kind"`
	Collections []CollectionSummary `json:"collections"`
	DownloadID  string              `json:"download_id"` // Spans every collection, in catalog order
}

// FileNames lists the track-list names behind the batch, in order.
func (b *PreparedBatch) FileNames() []string {
	names := make([]string, 0, len(b.Collections))
	for _, c := range b.Collections {
		names = append(names, c.FileName)
	}
	return names
}

// TrackResult is the outcome of fetching one track.
type TrackResult struct {
	Reference TrackReference `json:"reference"`
	Err       error          `json:"-"`
	Error     string         `json:"error,omitempty"`
}

// OK reports whether the track was fetched.
func (r TrackResult) OK() bool { return r.Err == nil }

// ListReport holds the results for one track list, in track order.
type ListReport struct {
	FileName string        `json:"file_name"`
	Tracks   []TrackResult `json:"tracks"`
}

// FetchReport summarizes a resolve-and-fetch run.
type FetchReport struct {
	ID        string       `json:"id"`
	Lists     []ListReport `json:"lists"`
	Total     int          `json:"total"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
}

// StartList opens a new list section; following Record calls append to it.
func (r *FetchReport) StartList(fileName string) {
	r.Lists = append(r.Lists, ListReport{FileName: fileName, Tracks: []TrackResult{}})
}

// Record appends a track outcome to the current list.
func (r *FetchReport) Record(ref TrackReference, err error) {
	if len(r.Lists) == 0 {
		r.StartList("")
	}

	r.Total++
	res := TrackResult{Reference: ref, Err: err}
	if err != nil {
		res.Error = err.Error()
		r.Failed++
	} else {
		r.Succeeded++
	}

	last := &r.Lists[len(r.Lists)-1]
	last.Tracks = append(last.Tracks, res)
}

// Failures returns every failed track across lists.
func (r *FetchReport) Failures() []TrackResult {
	var out []TrackResult
	for _, l := range r.Lists {
		for _, t := range l.Tracks {
			if !t.OK() {
				out = append(out, t)
			}
		}
	}
	return out
}
