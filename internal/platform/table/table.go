// Package table renders ordered row records into a tabular view model given
// static column definitions, optional per-column cell functions and a row
// actions menu. It is purely presentational and performs no I/O.
package table

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Row is any record the renderer can identify uniquely.
type Row interface {
	RowID() string
}

// Kind discriminates what a column displays.
type Kind int

const (
	// KindField renders a row field, either struct-mapped by Key or through
	// a registered cell function.
	KindField Kind = iota
	// KindIndex renders the row's 0-based position within the current page,
	// not a running total across pages.
	KindIndex
	// KindActions renders the row actions menu.
	KindActions
)

// Column is one static column definition. Defined per view, never mutated
// at runtime.
type Column struct {
	Kind  Kind
	Key   string
	Label string
	Align string
	Width string
}

// Action is one entry of the row actions menu. Hide is evaluated per row at
// render time; a hidden action is omitted from that row's menu.
type Action[T Row] struct {
	Name  string
	Label string
	Icon  string
	Style string
	Hide  func(T) bool
}

// CellFunc produces the display text of one cell from the full row.
type CellFunc[T Row] func(T) string

// DefaultPlaceholder is shown when a table has no rows.
const DefaultPlaceholder = "No data available"

// Renderer turns typed rows into a Table. Configure with Cell and Actions,
// then Validate once before use.
type Renderer[T Row] struct {
	columns     []Column
	actions     []Action[T]
	cells       map[string]CellFunc[T]
	fields      map[string]int
	placeholder string
}

// NewRenderer creates a Renderer over the given columns.
func NewRenderer[T Row](columns []Column) *Renderer[T] {
	return &Renderer[T]{
		columns:     columns,
		cells:       make(map[string]CellFunc[T]),
		placeholder: DefaultPlaceholder,
	}
}

// Cell registers a custom cell function for the field column with the given
// key, replacing the struct-mapped value.
func (r *Renderer[T]) Cell(key string, fn CellFunc[T]) *Renderer[T] {
	r.cells[key] = fn
	return r
}

// Actions sets the row actions menu. A trailing actions column is appended
// at render time if the column definitions do not already carry one.
func (r *Renderer[T]) Actions(actions ...Action[T]) *Renderer[T] {
	r.actions = actions
	return r
}

// Placeholder overrides the empty-state text.
func (r *Renderer[T]) Placeholder(text string) *Renderer[T] {
	r.placeholder = text
	return r
}

// Validate checks that every field column resolves to either a registered
// cell function or a struct field of T. Call once after configuration;
// rendering an unresolvable column is a programming error, not a runtime
// condition.
func (r *Renderer[T]) Validate() error {
	r.fields = structFields[T]()
	for i, col := range r.columns {
		switch col.Kind {
		case KindField:
			if col.Key == "" {
				return fmt.Errorf("column %d: field column without a key", i)
			}
			if _, ok := r.cells[col.Key]; ok {
				continue
			}
			if _, ok := r.fields[col.Key]; !ok {
				return fmt.Errorf("column %q: no struct field and no cell function", col.Key)
			}
		case KindIndex, KindActions:
			if col.Key != "" {
				return fmt.Errorf("column %d: %q key on a non-field column", i, col.Key)
			}
		default:
			return fmt.Errorf("column %d: unknown kind %d", i, col.Kind)
		}
	}
	return nil
}

// Header is one rendered column header.
type Header struct {
	Label string `json:"label"`
	Align string `json:"align,omitempty"`
	Width string `json:"width,omitempty"`
}

// ActionRef is one visible action of a row's menu.
type ActionRef struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Icon  string `json:"icon,omitempty"`
	Style string `json:"style,omitempty"`
}

// Cell is one rendered table cell. Span is set only on the empty-state
// placeholder cell.
type Cell struct {
	Value   string      `json:"value,omitempty"`
	Span    int         `json:"span,omitempty"`
	Actions []ActionRef `json:"actions,omitempty"`
}

// TableRow is one rendered row.
type TableRow struct {
	ID          string `json:"id,omitempty"`
	Cells       []Cell `json:"cells"`
	Placeholder bool   `json:"placeholder,omitempty"`
}

// Table is the rendered view model.
type Table struct {
	Headers []Header   `json:"headers"`
	Rows    []TableRow `json:"rows"`
}

// Render produces one table row per data item. Index cells are scoped to
// the current page. Empty data yields a single placeholder row spanning all
// columns.
func (r *Renderer[T]) Render(data []T) Table {
	cols := r.columns
	if len(r.actions) > 0 && !hasActionsColumn(cols) {
		cols = append(append([]Column(nil), cols...), Column{Kind: KindActions})
	}

	t := Table{Headers: make([]Header, len(cols))}
	for i, col := range cols {
		t.Headers[i] = Header{Label: col.Label, Align: col.Align, Width: col.Width}
	}

	if len(data) == 0 {
		t.Rows = []TableRow{{
			Placeholder: true,
			Cells:       []Cell{{Value: r.placeholder, Span: len(cols)}},
		}}
		return t
	}

	t.Rows = make([]TableRow, 0, len(data))
	for i, row := range data {
		tr := TableRow{ID: row.RowID(), Cells: make([]Cell, 0, len(cols))}
		for _, col := range cols {
			switch col.Kind {
			case KindIndex:
				tr.Cells = append(tr.Cells, Cell{Value: strconv.Itoa(i)})
			case KindActions:
				tr.Cells = append(tr.Cells, Cell{Actions: r.visibleActions(row)})
			default:
				tr.Cells = append(tr.Cells, Cell{Value: r.fieldValue(col.Key, row)})
			}
		}
		t.Rows = append(t.Rows, tr)
	}
	return t
}

func (r *Renderer[T]) visibleActions(row T) []ActionRef {
	refs := make([]ActionRef, 0, len(r.actions))
	for _, a := range r.actions {
		if a.Hide != nil && a.Hide(row) {
			continue
		}
		refs = append(refs, ActionRef{Name: a.Name, Label: a.Label, Icon: a.Icon, Style: a.Style})
	}
	return refs
}

func (r *Renderer[T]) fieldValue(key string, row T) string {
	if fn, ok := r.cells[key]; ok {
		return fn(row)
	}
	idx, ok := r.fields[key]
	if !ok {
		return ""
	}
	return displayText(reflect.ValueOf(row).Field(idx))
}

func hasActionsColumn(cols []Column) bool {
	for _, col := range cols {
		if col.Kind == KindActions {
			return true
		}
	}
	return false
}

// structFields maps column keys to struct field indexes of T, preferring
// json tag names over Go field names.
func structFields[T Row]() map[string]int {
	fields := make(map[string]int)
	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Kind() != reflect.Struct {
		return fields
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Name
		if tag, ok := f.Tag.Lookup("json"); ok {
			if comma := strings.IndexByte(tag, ','); comma >= 0 {
				tag = tag[:comma]
			}
			if tag == "-" {
				continue
			}
			if tag != "" {
				name = tag
			}
		}
		fields[name] = i
	}
	return fields
}

func displayText(v reflect.Value) string {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}
	if s, ok := v.Interface().(fmt.Stringer); ok {
		return s.String()
	}
	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	default:
		return fmt.Sprintf("%v", v.Interface())
	}
}
