package tracklists

import (
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"
)

// Untitled replaces names that sanitize to nothing.
const Untitled = "untitled"

// Namer issues track-list file names in the form "[owner_]name_token".
//
// The token is a Unix-nanosecond timestamp. When the clock has not moved past
// the last issued token, the previous token plus one is used, so names are
// unique for the life of the Namer even under concurrent callers.
type Namer struct {
	mu    sync.Mutex
	clock func() time.Time
	last  int64
}

// NewNamer creates a Namer reading time from clock, or [time.Now] when nil.
func NewNamer(clock func() time.Time) *Namer {
	if clock == nil {
		clock = time.Now
	}
	return &Namer{clock: clock}
}

// Next returns a fresh file name for a collection. safeName should already be
// sanitized; it is sanitized again if it contains disallowed characters.
func (n *Namer) Next(safeName, owner string) string {
	token := n.token()

	var b strings.Builder
	if owner != "" {
		if o := Sanitize(owner); o != Untitled {
			b.WriteString(o)
			b.WriteByte('_')
		}
	}
	b.WriteString(Sanitize(safeName))
	b.WriteByte('_')
	b.WriteString(strconv.FormatInt(token, 10))
	return b.String()
}

func (n *Namer) token() int64 {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := n.clock().UnixNano()
	if now <= n.last {
		now = n.last + 1
	}
	n.last = now
	return now
}

// Sanitize reduces a display name to characters that are safe in a file name.
//
// Letters, digits and "-_()[]{}" are kept, whitespace runs become a single
// underscore and everything else is dropped. Case is preserved.
func Sanitize(name string) string {
	var b strings.Builder
	pendingSpace := false

	for _, r := range name {
		switch {
		case unicode.IsSpace(r):
			pendingSpace = true
			continue
		case unicode.IsLetter(r), unicode.IsDigit(r), strings.ContainsRune("-_()[]{}", r):
		default:
			continue
		}

		if pendingSpace && b.Len() > 0 {
			b.WriteByte('_')
		}
		pendingSpace = false
		b.WriteRune(r)
	}

	out := strings.Trim(b.String(), "_")
	if out == "" {
		return Untitled
	}
	return out
}
