// Package forms implements the shared dialog lifecycle of the entity
// forms: closed, open for create with empty defaults, open for edit with
// every field repopulated from the selected entity. Validation runs before
// any network call and collects per-field messages.
package forms

import (
	"fmt"
	"strings"
	"unicode"
)

// Mode is the dialog lifecycle state.
type Mode int

const (
	Closed Mode = iota
	Create
	Edit
)

func (m Mode) String() string {
	switch m {
	case Create:
		return "create"
	case Edit:
		return "edit"
	default:
		return "closed"
	}
}

// RuleFunc checks one field value and returns an error message, or "" when
// the value passes.
type RuleFunc func(value string) string

// Required rejects empty values.
func Required(label string) RuleFunc {
	return func(v string) string {
		if strings.TrimSpace(v) == "" {
			return label + " is required"
		}
		return ""
	}
}

// Digits rejects values containing anything but decimal digits. Empty
// values pass; combine with Required when the field is mandatory.
func Digits(label string) RuleFunc {
	return func(v string) string {
		for _, r := range v {
			if !unicode.IsDigit(r) {
				return label + " must contain only digits"
			}
		}
		return ""
	}
}

// Decimal rejects values that are not plain decimal numbers with an
// optional fractional part. Empty values pass.
func Decimal(label string) RuleFunc {
	return func(v string) string {
		if v == "" {
			return ""
		}
		intPart, fracPart, dotted := strings.Cut(v, ".")
		if intPart == "" || (dotted && fracPart == "") {
			return label + " must be a number"
		}
		for _, r := range intPart + fracPart {
			if !unicode.IsDigit(r) {
				return label + " must be a number"
			}
		}
		return ""
	}
}

// MinLen rejects non-empty values shorter than n characters.
func MinLen(label string, n int) RuleFunc {
	return func(v string) string {
		if v != "" && len([]rune(v)) < n {
			return fmt.Sprintf("%s must be at least %d characters", label, n)
		}
		return ""
	}
}

// MaxLen rejects values longer than n characters.
func MaxLen(label string, n int) RuleFunc {
	return func(v string) string {
		if len([]rune(v)) > n {
			return fmt.Sprintf("%s must be at most %d characters", label, n)
		}
		return ""
	}
}

// Email rejects values that are not plausible email addresses. Empty values
// pass.
func Email(label string) RuleFunc {
	return func(v string) string {
		if v == "" {
			return ""
		}
		at := strings.IndexByte(v, '@')
		if at <= 0 || at == len(v)-1 || !strings.Contains(v[at+1:], ".") {
			return label + " must be a valid email address"
		}
		return ""
	}
}

// OneOf rejects non-empty values outside the allowed set.
func OneOf(label string, allowed ...string) RuleFunc {
	return func(v string) string {
		if v == "" {
			return ""
		}
		for _, a := range allowed {
			if v == a {
				return ""
			}
		}
		return label + " has an invalid value"
	}
}

// ValidationError carries per-field messages for a rejected submission.
// Submissions failing validation never reach the network layer.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %d field(s)", len(e.Fields))
}

// Form is one entity dialog.
type Form struct {
	mode     Mode
	defaults map[string]string
	values   map[string]string
	rules    map[string][]RuleFunc
	order    []string
}

// New creates a closed Form with the given create defaults.
func New(defaults map[string]string) *Form {
	f := &Form{
		mode:     Closed,
		defaults: make(map[string]string, len(defaults)),
		values:   make(map[string]string),
		rules:    make(map[string][]RuleFunc),
	}
	for k, v := range defaults {
		f.defaults[k] = v
	}
	return f
}

// Rules attaches validation rules to a field, keeping declaration order for
// stable error reporting.
func (f *Form) Rules(field string, rules ...RuleFunc) *Form {
	if _, ok := f.rules[field]; !ok {
		f.order = append(f.order, field)
	}
	f.rules[field] = append(f.rules[field], rules...)
	return f
}

// Mode returns the dialog state.
func (f *Form) Mode() Mode { return f.mode }

// OpenCreate opens the dialog with empty defaults.
func (f *Form) OpenCreate() {
	f.reset()
	f.mode = Create
}

// OpenEdit opens the dialog with every field repopulated from the target
// entity. Fields absent from values fall back to their defaults.
func (f *Form) OpenEdit(values map[string]string) {
	f.reset()
	for k, v := range values {
		f.values[k] = v
	}
	f.mode = Edit
}

// Close resets the form to empty defaults.
func (f *Form) Close() {
	f.reset()
	f.mode = Closed
}

func (f *Form) reset() {
	f.values = make(map[string]string, len(f.defaults))
	for k, v := range f.defaults {
		f.values[k] = v
	}
}

// Set writes one field value.
func (f *Form) Set(field, value string) { f.values[field] = value }

// Value reads one field value.
func (f *Form) Value(field string) string { return f.values[field] }

// Values returns a copy of all current field values.
func (f *Form) Values() map[string]string {
	cp := make(map[string]string, len(f.values))
	for k, v := range f.values {
		cp[k] = v
	}
	return cp
}

// Validate runs every field's rules and returns the collected per-field
// messages. The first failing rule per field wins.
func (f *Form) Validate() map[string]string {
	errs := make(map[string]string)
	for _, field := range f.order {
		for _, rule := range f.rules[field] {
			if msg := rule(f.values[field]); msg != "" {
				errs[field] = msg
				break
			}
		}
	}
	return errs
}

// Submit validates and, on success, calls submit with the field values. A
// validation failure aborts with a *ValidationError before submit runs. A
// successful submission closes the dialog and resets it to defaults; list
// refresh is the mutation layer's job, never the dialog's.
func (f *Form) Submit(submit func(values map[string]string) error) error {
	if errs := f.Validate(); len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	if err := submit(f.Values()); err != nil {
		return err
	}
	f.Close()
	return nil
}

// SplitPhone strips a fixed country-code prefix off a stored phone number,
// leaving the local digits for editing.
func SplitPhone(full, prefix string) string {
	return strings.TrimPrefix(full, prefix)
}

// JoinPhone re-prefixes the local digits on submit. Already prefixed input
// is left untouched.
func JoinPhone(local, prefix string) string {
	if local == "" || strings.HasPrefix(local, prefix) {
		return local
	}
	return prefix + local
}
