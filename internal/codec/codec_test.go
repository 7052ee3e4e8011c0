package codec

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/desertthunder/mandolin/internal/models"
	"github.com/desertthunder/mandolin/internal/shared"
	"github.com/klauspost/compress/zlib"
)

var urlSafe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func deflate(t *testing.T, data string) string {
	t.Helper()

	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write([]byte(data)); err != nil {
		t.Fatalf("failed to compress: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to compress: %v", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf.Bytes())
}

func TestRoundTrip(t *testing.T) {
	many := make([]string, 200)
	for i := range many {
		many[i] = fmt.Sprintf("Playlist_%03d_1718000000%09d", i, i)
	}

	tc := []struct {
		name  string
		names []string
	}{
		{name: "single", names: []string{"Road_Trip_1718000000000000000"}},
		{name: "owner prefixed", names: []string{"artist1_A_1", "artist1_B_2"}},
		{name: "repeated", names: []string{"x_1", "x_1", "y_2"}},
		{name: "unicode", names: []string{"Café_del_Mar_1", "東京_2"}},
		{name: "empty", names: []string{}},
		{name: "many", names: many},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			id, err := Encode(models.NewJobDescriptor(tt.names...))
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}

			if !urlSafe.MatchString(id) {
				t.Errorf("id %q contains characters outside the URL-safe alphabet", id)
			}

			got, err := Decode(id)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}

			if len(got.FileNames) != len(tt.names) {
				t.Fatalf("expected %d names, got %d", len(tt.names), len(got.FileNames))
			}
			for i := range tt.names {
				if got.FileNames[i] != tt.names[i] {
					t.Errorf("name %d = %q, want %q", i, got.FileNames[i], tt.names[i])
				}
			}
		})
	}
}

func TestEncodeDeterministic(t *testing.T) {
	d := models.NewJobDescriptor("a_1", "b_2")

	first, err := Encode(d)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	second, err := Encode(d)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	if first != second {
		t.Errorf("expected identical ids, got %q and %q", first, second)
	}
}

func TestDecodeToleratesPadding(t *testing.T) {
	id, err := Encode(models.NewJobDescriptor("Road_Trip_1"))
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	got, err := Decode(id + "==")
	if err != nil {
		t.Fatalf("Decode() with padding error = %v", err)
	}
	if len(got.FileNames) != 1 || got.FileNames[0] != "Road_Trip_1" {
		t.Errorf("unexpected descriptor %+v", got)
	}
}

func TestDecodeErrors(t *testing.T) {
	tc := []struct {
		name string
		id   string
		want error
	}{
		{name: "empty", id: "", want: shared.ErrMalformedIdentifier},
		{name: "only padding", id: "===", want: shared.ErrMalformedIdentifier},
		{name: "bad alphabet", id: "not-valid-base64!!", want: shared.ErrMalformedIdentifier},
		{name: "standard alphabet", id: "ab+/cd", want: shared.ErrMalformedIdentifier},
		{name: "not zlib", id: base64.RawURLEncoding.EncodeToString([]byte("plain bytes")), want: shared.ErrDecompression},
		{name: "not json", id: deflate(t, "not json"), want: shared.ErrPayloadParse},
		{name: "wrong shape", id: deflate(t, `{"filenames":"x"}`), want: shared.ErrPayloadParse},
		{name: "unknown field", id: deflate(t, `{"filenames":[],"extra":1}`), want: shared.ErrPayloadParse},
		{name: "missing filenames", id: deflate(t, `{}`), want: shared.ErrPayloadParse},
		{name: "trailing data", id: deflate(t, `{"filenames":[]}{}`), want: shared.ErrPayloadParse},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.id)
			if !errors.Is(err, tt.want) {
				t.Errorf("Decode(%q) error = %v, want %v", tt.id, err, tt.want)
			}
			if !shared.IsClientError(err) {
				t.Errorf("decode failures should be client errors, got %v", err)
			}
		})
	}
}

func TestEncodeRejectsInvalidUTF8(t *testing.T) {
	tc := []models.JobDescriptor{
		models.NewJobDescriptor("list_\xff_1"),
		models.NewJobDescriptor("ok_1", "bad_\xc3_2"),
	}

	for _, d := range tc {
		id, err := Encode(d)
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("Encode(%q) = %q, %v, want ErrInvalidInput", d.FileNames, id, err)
		}
		if id != "" {
			t.Errorf("Encode(%q) should return no id, got %q", d.FileNames, id)
		}
	}
}

func TestDecodePayloadLimit(t *testing.T) {
	c, err := New(0, 64)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	id, err := c.Encode(models.NewJobDescriptor(strings.Repeat("a", 100)))
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	if _, err := c.Decode(id); !errors.Is(err, shared.ErrDecompression) {
		t.Errorf("expected ErrDecompression for oversized payload, got %v", err)
	}

	if _, err := Decode(id); err != nil {
		t.Errorf("default codec should accept the payload, got %v", err)
	}
}

func TestNewRejectsBadLevel(t *testing.T) {
	if _, err := New(42, 0); !errors.Is(err, shared.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
