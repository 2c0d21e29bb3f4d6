package api

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Page is the single normalized list envelope used everywhere downstream of
// the client. The upstream API answers list requests with either
// {"Data":{"Items":[...],"TotalCount":n}} or the unwrapped
// {"items":[...],"totalCount":n}; both are adapted into Page at receipt.
type Page struct {
	Items      []json.RawMessage `json:"items"`
	TotalCount int               `json:"totalCount"`
}

// NormalizePage adapts either wire shape into a Page. A body carrying
// neither shape is a malformed envelope.
func NormalizePage(body []byte) (*Page, error) {
	var w struct {
		Data *struct {
			Items      []json.RawMessage `json:"items"`
			TotalCount *int              `json:"totalCount"`
		} `json:"data"`
		Items      []json.RawMessage `json:"items"`
		TotalCount *int              `json:"totalCount"`
	}
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, fmt.Errorf("decode list envelope: %w", err)
	}

	items := w.Items
	total := w.TotalCount
	if w.Data != nil && w.Data.Items != nil {
		items = w.Data.Items
		total = w.Data.TotalCount
	}
	if items == nil {
		return nil, fmt.Errorf("list envelope carries no items")
	}

	p := &Page{Items: items, TotalCount: len(items)}
	if total != nil {
		p.TotalCount = *total
	}
	return p, nil
}

// Clone returns a deep copy. Cached pages are replaced, never edited in
// place, so optimistic rewrites operate on a clone while readers keep the
// page they were handed.
func (p *Page) Clone() *Page {
	cp := &Page{TotalCount: p.TotalCount, Items: make([]json.RawMessage, len(p.Items))}
	for i, item := range p.Items {
		cp.Items[i] = append(json.RawMessage(nil), item...)
	}
	return cp
}

// RowID extracts the unique identifier of a row record. Both string and
// numeric ids appear upstream; numeric ids are canonicalized to their
// decimal text.
func RowID(raw json.RawMessage) string {
	var row struct {
		ID json.Number `json:"id"`
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&row); err == nil && row.ID != "" {
		return row.ID.String()
	}
	var alt struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &alt); err == nil {
		return alt.ID
	}
	return ""
}

// RemoveRow filters out the row with the given id and decrements
// TotalCount, floored at 0. TotalCount spans the whole filtered dataset,
// not just this page, so it drops even when the row lives on another page.
// Reports whether a row was removed from this page.
func (p *Page) RemoveRow(id string) bool {
	kept := p.Items[:0]
	removed := false
	for _, item := range p.Items {
		if !removed && RowID(item) == id {
			removed = true
			continue
		}
		kept = append(kept, item)
	}
	p.Items = kept
	if p.TotalCount > 0 {
		p.TotalCount--
	}
	return removed
}

// DecodeItems unmarshals every raw row of a page into T.
func DecodeItems[T any](p *Page) ([]T, error) {
	out := make([]T, 0, len(p.Items))
	for i, item := range p.Items {
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			return nil, fmt.Errorf("decode row %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}
