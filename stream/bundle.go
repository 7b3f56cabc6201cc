// Package stream reads terminology resources out of large FHIR Bundles
// without decoding the whole bundle at once.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/gofhir/fhir/r4"
)

const resourceTypeCodeSystem = "CodeSystem"

// Entry is one bundle entry.
type Entry struct {
	// Index is the position of the entry in the bundle, or -1 for a
	// bundle-level error.
	Index int

	// FullURL is the fullUrl of the entry (if present)
	FullURL string

	// ResourceType is the type of resource in the entry
	ResourceType string

	// ResourceID is the id of the resource (if present)
	ResourceID string

	// CodeSystem is set when the entry holds a CodeSystem.
	CodeSystem *r4.CodeSystem

	// Error is set if the entry could not be decoded
	Error error
}

// BundleReader streams bundle entries.
type BundleReader struct {
	bufferSize int
}

// NewBundleReader creates a bundle reader.
func NewBundleReader() *BundleReader {
	return &BundleReader{bufferSize: 16}
}

// WithBufferSize sets the channel buffer size.
func (b *BundleReader) WithBufferSize(size int) *BundleReader {
	if size > 0 {
		b.bufferSize = size
	}
	return b
}

// Read emits the entries of the bundle in r in order. The channel is closed
// when the bundle ends, decoding fails or ctx is done. Once ctx is done no
// send blocks, so a caller may cancel and stop reading.
func (b *BundleReader) Read(ctx context.Context, r io.Reader) <-chan *Entry {
	entries := make(chan *Entry, b.bufferSize)

	go func() {
		defer close(entries)

		decoder := json.NewDecoder(r)
		if err := expectDelim(decoder, '{'); err != nil {
			send(ctx, entries, &Entry{Index: -1, Error: fmt.Errorf("read bundle: %w", err)})
			return
		}

		for decoder.More() {
			if ctx.Err() != nil {
				send(ctx, entries, &Entry{Index: -1, Error: ctx.Err()})
				return
			}

			token, err := decoder.Token()
			if err != nil {
				send(ctx, entries, &Entry{Index: -1, Error: fmt.Errorf("read field: %w", err)})
				return
			}
			if field, _ := token.(string); field == "entry" {
				readEntries(ctx, decoder, entries)
				return
			}

			var skip json.RawMessage
			if err := decoder.Decode(&skip); err != nil {
				send(ctx, entries, &Entry{Index: -1, Error: fmt.Errorf("skip field %v: %w", token, err)})
				return
			}
		}
	}()

	return entries
}

func send(ctx context.Context, entries chan<- *Entry, e *Entry) bool {
	select {
	case entries <- e:
		return true
	case <-ctx.Done():
		return false
	}
}

func expectDelim(decoder *json.Decoder, want json.Delim) error {
	token, err := decoder.Token()
	if err != nil {
		return err
	}
	if delim, ok := token.(json.Delim); !ok || delim != want {
		return fmt.Errorf("expected %v, got %v", want, token)
	}
	return nil
}

type rawEntry struct {
	FullURL  string          `json:"fullUrl"`
	Resource json.RawMessage `json:"resource"`
}

type resourceHeader struct {
	ResourceType string `json:"resourceType"`
	ID           string `json:"id"`
}

func readEntries(ctx context.Context, decoder *json.Decoder, entries chan<- *Entry) {
	if err := expectDelim(decoder, '['); err != nil {
		send(ctx, entries, &Entry{Index: -1, Error: fmt.Errorf("read entry array: %w", err)})
		return
	}

	for index := 0; decoder.More(); index++ {
		select {
		case <-ctx.Done():
			send(ctx, entries, &Entry{Index: index, Error: ctx.Err()})
			return
		default:
		}

		var raw rawEntry
		if err := decoder.Decode(&raw); err != nil {
			// The decoder cannot resync after a syntax error.
			send(ctx, entries, &Entry{Index: index, Error: fmt.Errorf("decode entry %d: %w", index, err)})
			return
		}
		if !send(ctx, entries, decodeEntry(raw, index)) {
			return
		}
	}
}

func decodeEntry(raw rawEntry, index int) *Entry {
	e := &Entry{Index: index, FullURL: raw.FullURL}
	if len(raw.Resource) == 0 {
		return e
	}

	var header resourceHeader
	if err := json.Unmarshal(raw.Resource, &header); err != nil {
		e.Error = fmt.Errorf("entry %d: %w", index, err)
		return e
	}
	e.ResourceType, e.ResourceID = header.ResourceType, header.ID

	if header.ResourceType == resourceTypeCodeSystem {
		var cs r4.CodeSystem
		if err := json.Unmarshal(raw.Resource, &cs); err != nil {
			e.Error = fmt.Errorf("entry %d: decode CodeSystem: %w", index, err)
			return e
		}
		e.CodeSystem = &cs
	}
	return e
}

// Result aggregates a streamed bundle.
type Result struct {
	// TotalEntries is the number of entries read
	TotalEntries int

	// CodeSystems holds every CodeSystem in bundle order.
	CodeSystems []*r4.CodeSystem

	// Skipped counts entries holding other resource types or none.
	Skipped int

	// Errors are decoding failures, bundle-level ones included.
	Errors []error
}

// Collect drains entries.
func Collect(entries <-chan *Entry) *Result {
	res := &Result{}
	for e := range entries {
		if e.Error != nil {
			res.Errors = append(res.Errors, e.Error)
			continue
		}
		res.TotalEntries++
		if e.CodeSystem == nil {
			res.Skipped++
			continue
		}
		res.CodeSystems = append(res.CodeSystems, e.CodeSystem)
	}
	return res
}

// HasErrors reports whether any entry or the bundle itself failed to decode.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// Summary returns a human-readable summary.
func (r *Result) Summary() string {
	return fmt.Sprintf("Read %d entries: %d code systems, %d skipped, %d errors",
		r.TotalEntries, len(r.CodeSystems), r.Skipped, len(r.Errors))
}
