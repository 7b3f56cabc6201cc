package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	tx "github.com/gofhir/terminology"
	"github.com/gofhir/terminology/display"
	"github.com/gofhir/terminology/internal/validate"
	"github.com/gofhir/terminology/reference"
	"github.com/gofhir/terminology/resolve"
	"github.com/gofhir/terminology/service"
	"github.com/gofhir/terminology/worker"
)

// Expand resolves the requested collection version and expands it.
func (e *Engine) Expand(ctx context.Context, req ExpandRequest) (res *tx.ExpansionResult, err error) {
	defer e.observe(tx.OpExpand, time.Now(), &err)

	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	col, err := e.collections.Resolve(ctx, sourceQuery(req.Owner, req.URL, req.ID), req.Version)
	if err != nil {
		return nil, err
	}
	res, err = e.ExpandCollection(ctx, col, ExpandParams{
		SystemVersion: req.SystemVersion,
		Offset:        req.Offset,
		Count:         req.Count,
		Owner:         req.Owner,
	})
	if err != nil {
		return nil, err
	}
	res.Collection = col
	return res, nil
}

// ExpandCollection lists the concepts referenced by col, grouped by source
// version in first-seen order and sorted by code within each group.
//
// References that are malformed or point at a missing source or concept are
// skipped. Any other repository failure aborts the expansion.
func (e *Engine) ExpandCollection(ctx context.Context, col *tx.Collection, p ExpandParams) (*tx.ExpansionResult, error) {
	count := e.options.DefaultPageSize
	if p.Count != nil {
		if *p.Count < 0 {
			return nil, tx.BadRequest("count must be >= 0, got %d", *p.Count)
		}
		count = *p.Count
	}
	offset := max(p.Offset, 0)

	refs := e.parseReferences(col)

	var (
		entries []tx.ExpansionEntry
		err     error
	)
	if p.SystemVersion == "" {
		entries, err = e.expandReferences(ctx, refs, nil)
	} else {
		entries, err = e.expandPinned(ctx, refs, p.SystemVersion, p.Owner)
	}
	if err != nil {
		return nil, err
	}

	entries = groupEntries(entries)
	return &tx.ExpansionResult{
		Total:   len(entries),
		Offset:  offset,
		Entries: window(entries, offset, count),
	}, nil
}

func (e *Engine) parseReferences(col *tx.Collection) []reference.Reference {
	refs := make([]reference.Reference, 0, len(col.References))
	for _, expr := range reference.Expressions(col.References) {
		ref, ok := reference.Parse(expr)
		if !ok {
			e.options.Metrics.RecordDroppedReference(tx.DropReasonMalformed)
			continue
		}
		refs = append(refs, ref)
	}
	return refs
}

// expandPinned resolves every eligible reference against the single source
// named by systemVersion, restricted to owner when set.
func (e *Engine) expandPinned(ctx context.Context, refs []reference.Reference, systemVersion string, owner *tx.Owner) ([]tx.ExpansionEntry, error) {
	sv, err := tx.ParseSystemVersion(systemVersion)
	if err != nil {
		return nil, err
	}
	src, err := e.sources.Exact(ctx, service.Query{Owner: owner, URL: sv.URL}, sv.Version)
	if err != nil {
		return nil, err
	}

	eligible := refs[:0:0]
	for _, ref := range refs {
		if ref.HasVersion() || ref.Source != src.Mnemonic || ref.Owner != src.Owner {
			e.options.Metrics.RecordDroppedReference(tx.DropReasonIneligible)
			continue
		}
		eligible = append(eligible, ref)
	}
	return e.expandReferences(ctx, eligible, src)
}

// expandReferences resolves refs to entries. With a nil pinned source each
// reference resolves its own source.
func (e *Engine) expandReferences(ctx context.Context, refs []reference.Reference, pinned *tx.Source) ([]tx.ExpansionEntry, error) {
	results := worker.Map(ctx, e.options.Workers, refs, func(ctx context.Context, ref reference.Reference) (tx.ExpansionEntry, error) {
		src := pinned
		if src == nil {
			var err error
			if src, err = resolve.ReferenceSource(ctx, e.sources, ref); err != nil {
				return tx.ExpansionEntry{}, err
			}
		}
		return e.entry(ctx, src, ref.Code)
	})

	entries := make([]tx.ExpansionEntry, 0, len(results))
	for _, r := range results {
		if tx.IsNotFound(r.Err) {
			e.options.Metrics.RecordDroppedReference(tx.DropReasonUnresolved)
			continue
		}
		if r.Err != nil {
			return nil, fmt.Errorf("expand reference %s: %w", refs[r.Index], r.Err)
		}
		entries = append(entries, r.Value)
	}
	return entries, nil
}

func (e *Engine) entry(ctx context.Context, src *tx.Source, code string) (tx.ExpansionEntry, error) {
	current, err := e.currentConcept(ctx, src, code)
	if err != nil {
		return tx.ExpansionEntry{}, err
	}
	d, _ := display.Resolve(current.Concept.Names, "", src.DefaultLocale)
	return tx.ExpansionEntry{
		System:  src.CanonicalURL,
		Version: src.Version,
		Code:    current.Code(),
		Display: d,
		Source:  src.Mnemonic,
	}, nil
}

// groupEntries orders entries by (source, version) group in first-seen
// order, then by code within each group.
func groupEntries(entries []tx.ExpansionEntry) []tx.ExpansionEntry {
	type groupKey struct{ source, version string }

	rank := make(map[groupKey]int)
	for _, en := range entries {
		k := groupKey{en.Source, en.Version}
		if _, ok := rank[k]; !ok {
			rank[k] = len(rank)
		}
	}

	out := make([]tx.ExpansionEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		ri := rank[groupKey{out[i].Source, out[i].Version}]
		rj := rank[groupKey{out[j].Source, out[j].Version}]
		if ri != rj {
			return ri < rj
		}
		return out[i].Code < out[j].Code
	})
	return out
}

func window(entries []tx.ExpansionEntry, offset, count int) []tx.ExpansionEntry {
	if offset >= len(entries) {
		return nil
	}
	end := min(offset+count, len(entries))
	return entries[offset:end]
}
