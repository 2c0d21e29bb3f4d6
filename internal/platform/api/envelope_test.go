package api

import (
	"encoding/json"
	"testing"
)

func TestNormalizePage_WrappedShape(t *testing.T) {
	body := []byte(`{"Data":{"Items":[{"id":1},{"id":2}],"TotalCount":42}}`)
	p, err := NormalizePage(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Items) != 2 {
		t.Errorf("expected 2 items, got %d", len(p.Items))
	}
	if p.TotalCount != 42 {
		t.Errorf("expected totalCount 42, got %d", p.TotalCount)
	}
}

func TestNormalizePage_UnwrappedShape(t *testing.T) {
	body := []byte(`{"items":[{"id":"a"}],"totalCount":7}`)
	p, err := NormalizePage(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Items) != 1 {
		t.Errorf("expected 1 item, got %d", len(p.Items))
	}
	if p.TotalCount != 7 {
		t.Errorf("expected totalCount 7, got %d", p.TotalCount)
	}
}

func TestNormalizePage_MissingTotalCount(t *testing.T) {
	body := []byte(`{"items":[{"id":1},{"id":2},{"id":3}]}`)
	p, err := NormalizePage(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.TotalCount != 3 {
		t.Errorf("expected totalCount to fall back to item count, got %d", p.TotalCount)
	}
}

func TestNormalizePage_Malformed(t *testing.T) {
	if _, err := NormalizePage([]byte(`{"unrelated":true}`)); err == nil {
		t.Error("expected error for envelope without items")
	}
	if _, err := NormalizePage([]byte(`not json`)); err == nil {
		t.Error("expected error for invalid json")
	}
}

func TestRowID(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"numeric id", `{"id":17,"name":"x"}`, "17"},
		{"string id", `{"id":"room-4"}`, "room-4"},
		{"missing id", `{"name":"x"}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RowID(json.RawMessage(tt.raw)); got != tt.want {
				t.Errorf("RowID(%s) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestPage_RemoveRow(t *testing.T) {
	p := &Page{
		Items: []json.RawMessage{
			json.RawMessage(`{"id":1}`),
			json.RawMessage(`{"id":2}`),
			json.RawMessage(`{"id":3}`),
		},
		TotalCount: 30,
	}

	if !p.RemoveRow("2") {
		t.Fatal("expected row 2 to be removed")
	}
	if len(p.Items) != 2 {
		t.Errorf("expected 2 items left, got %d", len(p.Items))
	}
	if p.TotalCount != 29 {
		t.Errorf("expected totalCount 29, got %d", p.TotalCount)
	}

	if p.RemoveRow("99") {
		t.Error("removing an absent row must report false")
	}
	if p.TotalCount != 28 {
		t.Errorf("totalCount spans all pages and must still drop, got %d", p.TotalCount)
	}
	if len(p.Items) != 2 {
		t.Errorf("rows must be untouched for an absent id, got %d items", len(p.Items))
	}
}

func TestPage_RemoveRow_TotalCountFloor(t *testing.T) {
	p := &Page{
		Items:      []json.RawMessage{json.RawMessage(`{"id":1}`)},
		TotalCount: 0,
	}
	p.RemoveRow("1")
	if p.TotalCount != 0 {
		t.Errorf("totalCount must floor at 0, got %d", p.TotalCount)
	}
}

func TestPage_Clone_Independent(t *testing.T) {
	p := &Page{
		Items:      []json.RawMessage{json.RawMessage(`{"id":1}`)},
		TotalCount: 1,
	}
	cp := p.Clone()
	p.RemoveRow("1")

	if len(cp.Items) != 1 || cp.TotalCount != 1 {
		t.Error("clone must be unaffected by mutations of the original")
	}
}

func TestDecodeItems(t *testing.T) {
	type row struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}
	p := &Page{Items: []json.RawMessage{
		json.RawMessage(`{"id":1,"name":"a"}`),
		json.RawMessage(`{"id":2,"name":"b"}`),
	}}

	rows, err := DecodeItems[row](p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 || rows[1].Name != "b" {
		t.Errorf("unexpected rows: %+v", rows)
	}
}
