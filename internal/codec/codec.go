// Package codec turns job descriptors into compact, URL-safe download ids and back.
//
// An id is the unpadded URL-safe base64 encoding of the zlib-compressed JSON
// form of a [models.JobDescriptor]:
//
//	{"filenames":["Road_Trip_1718000000000000000"]}
//
// Decoding is a strict JSON parse. Ids carry no server-side state, but they are
// only promised to decode within the deployment that issued them since the
// compressed bytes depend on the zlib implementation.
package codec

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/desertthunder/mandolin/internal/models"
	"github.com/desertthunder/mandolin/internal/shared"
	"github.com/klauspost/compress/zlib"
)

// DefaultMaxPayload caps the inflated payload size accepted by Decode.
const DefaultMaxPayload = 1 << 20

var encoding = base64.RawURLEncoding

// Codec encodes and decodes download ids.
type Codec struct {
	level      int
	maxPayload int64
}

// New creates a Codec with the given zlib level and inflated size cap.
// Zero values select best compression and [DefaultMaxPayload].
func New(level int, maxPayload int64) (*Codec, error) {
	if level == 0 {
		level = zlib.BestCompression
	}
	if level < zlib.HuffmanOnly || level > zlib.BestCompression {
		return nil, fmt.Errorf("%w: compression level %d", shared.ErrInvalidInput, level)
	}
	if maxPayload <= 0 {
		maxPayload = DefaultMaxPayload
	}
	return &Codec{level: level, maxPayload: maxPayload}, nil
}

// Default returns a Codec using best compression.
func Default() *Codec {
	return &Codec{level: zlib.BestCompression, maxPayload: DefaultMaxPayload}
}

// Encode serializes, compresses and base64-encodes d.
//
// Names must be valid UTF-8; anything else is [shared.ErrInvalidInput].
func (c *Codec) Encode(d models.JobDescriptor) (string, error) {
	for i, name := range d.FileNames {
		if !utf8.ValidString(name) {
			return "", fmt.Errorf("%w: file name %d is not valid UTF-8", shared.ErrInvalidInput, i)
		}
	}

	payload := models.NewJobDescriptor(d.FileNames...)

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to serialize descriptor: %w", err)
	}

	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, c.level)
	if err != nil {
		return "", fmt.Errorf("failed to create compressor: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return "", fmt.Errorf("failed to compress descriptor: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to compress descriptor: %w", err)
	}

	return encoding.EncodeToString(buf.Bytes()), nil
}

// Decode reverses Encode.
//
// Returns [shared.ErrMalformedIdentifier] for input outside the base64 alphabet,
// [shared.ErrDecompression] when inflation fails and [shared.ErrPayloadParse]
// when the inflated bytes are not a descriptor.
func (c *Codec) Decode(id string) (models.JobDescriptor, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(id), "=")
	if trimmed == "" {
		return models.JobDescriptor{}, fmt.Errorf("%w: empty id", shared.ErrMalformedIdentifier)
	}

	compressed, err := encoding.DecodeString(trimmed)
	if err != nil {
		return models.JobDescriptor{}, fmt.Errorf("%w: %v", shared.ErrMalformedIdentifier, err)
	}

	data, err := c.inflate(compressed)
	if err != nil {
		return models.JobDescriptor{}, err
	}

	return parse(data)
}

func (c *Codec) inflate(compressed []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrDecompression, err)
	}
	defer r.Close()

	data, err := io.ReadAll(io.LimitReader(r, c.maxPayload+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrDecompression, err)
	}
	if int64(len(data)) > c.maxPayload {
		return nil, fmt.Errorf("%w: payload exceeds %d bytes", shared.ErrDecompression, c.maxPayload)
	}
	return data, nil
}

type wirePayload struct {
	FileNames *[]string `json:"filenames"`
}

func parse(data []byte) (models.JobDescriptor, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var p wirePayload
	if err := dec.Decode(&p); err != nil {
		return models.JobDescriptor{}, fmt.Errorf("%w: %v", shared.ErrPayloadParse, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return models.JobDescriptor{}, fmt.Errorf("%w: trailing data after descriptor", shared.ErrPayloadParse)
	}
	if p.FileNames == nil {
		return models.JobDescriptor{}, fmt.Errorf("%w: missing filenames", shared.ErrPayloadParse)
	}

	return models.NewJobDescriptor(*p.FileNames...), nil
}

// Encode encodes d with the default codec.
func Encode(d models.JobDescriptor) (string, error) {
	return Default().Encode(d)
}

// Decode decodes id with the default codec.
func Decode(id string) (models.JobDescriptor, error) {
	return Default().Decode(id)
}
