package validation

import (
	"bytes"
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/deppfellow/errfmt/internal/errs"
)

var (
	textUnmarshaler = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
	jsonUnmarshaler = reflect.TypeOf((*json.Unmarshaler)(nil)).Elem()
)

// ErrNotObject is returned by Scan when a struct payload is not a JSON object.
var ErrNotObject = errors.New("request body must be a JSON object")

// Scan walks a JSON document against the Go type it will be decoded into and
// reports, in document order:
//   - object.allowUnknown for keys the type has no field for
//   - <kind>.base for values whose JSON type cannot be decoded into the field
//
// Values of a mismatched type are skipped, not descended into. Types that
// decode themselves (json.Unmarshaler, encoding.TextUnmarshaler) and
// interfaces accept anything.
//
// An error is returned only for malformed JSON or when a struct payload is
// not an object.
func Scan(body []byte, t reflect.Type) ([]errs.Detail, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	s := &scanner{dec: dec}

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	root := deref(t)
	if root != nil && root.Kind() == reflect.Struct && tok != json.Delim('{') {
		return nil, ErrNotObject
	}

	if err := s.value(tok, t, errs.Path{}); err != nil {
		return nil, err
	}

	if _, err := dec.Token(); err == nil {
		return nil, errors.New("unexpected data after top-level value")
	}

	return s.details, nil
}

type scanner struct {
	dec     *json.Decoder
	details []errs.Detail
}

func (s *scanner) value(tok json.Token, t reflect.Type, path errs.Path) error {
	t = deref(t)
	if t == nil || t.Kind() == reflect.Interface || decodesItself(t) {
		return s.skip(tok)
	}

	switch v := tok.(type) {
	case nil:
		return nil
	case json.Delim:
		switch {
		case v == '{' && t.Kind() == reflect.Struct:
			return s.object(t, path)
		case v == '{' && t.Kind() == reflect.Map:
			return s.mapping(t, path)
		case v == '[' && (t.Kind() == reflect.Slice || t.Kind() == reflect.Array):
			return s.array(t, path)
		}
		s.mismatch(t, path)
		return s.skip(tok)
	case string:
		if t.Kind() != reflect.String && !isBytes(t) {
			s.mismatch(t, path)
		}
	case json.Number:
		if !isNumber(t.Kind()) {
			s.mismatch(t, path)
		}
	case bool:
		if t.Kind() != reflect.Bool {
			s.mismatch(t, path)
		}
	}

	return nil
}

func (s *scanner) object(t reflect.Type, path errs.Path) error {
	fields := fieldsOf(t)

	for s.dec.More() {
		key, err := s.key()
		if err != nil {
			return err
		}

		tok, err := s.dec.Token()
		if err != nil {
			return err
		}

		field, ok := fields.lookup(key)
		if !ok {
			s.unknown(path.Append(key), key)
			if err := s.skip(tok); err != nil {
				return err
			}
			continue
		}

		if err := s.value(tok, field, path.Append(key)); err != nil {
			return err
		}
	}

	_, err := s.dec.Token()
	return err
}

func (s *scanner) mapping(t reflect.Type, path errs.Path) error {
	for s.dec.More() {
		key, err := s.key()
		if err != nil {
			return err
		}

		tok, err := s.dec.Token()
		if err != nil {
			return err
		}

		if err := s.value(tok, t.Elem(), path.Append(key)); err != nil {
			return err
		}
	}

	_, err := s.dec.Token()
	return err
}

func (s *scanner) array(t reflect.Type, path errs.Path) error {
	for i := 0; s.dec.More(); i++ {
		tok, err := s.dec.Token()
		if err != nil {
			return err
		}

		if err := s.value(tok, t.Elem(), path.Append(i)); err != nil {
			return err
		}
	}

	_, err := s.dec.Token()
	return err
}

func (s *scanner) key() (string, error) {
	tok, err := s.dec.Token()
	if err != nil {
		return "", err
	}

	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key, got %v", tok)
	}
	return key, nil
}

// skip consumes the rest of a value whose first token was already read.
func (s *scanner) skip(tok json.Token) error {
	delim, ok := tok.(json.Delim)
	if !ok || delim == '}' || delim == ']' {
		return nil
	}

	for depth := 1; depth > 0; {
		next, err := s.dec.Token()
		if err != nil {
			return err
		}

		if d, ok := next.(json.Delim); ok {
			switch d {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
	}

	return nil
}

func (s *scanner) unknown(path errs.Path, key string) {
	s.details = append(s.details, errs.Detail{
		Path:    path,
		Type:    "object.allowUnknown",
		Message: fmt.Sprintf("%q is not allowed", key),
		Context: map[string]any{"child": key, "label": key, "key": key},
	})
}

func (s *scanner) mismatch(t reflect.Type, path errs.Path) {
	kind, expected := baseKind(t)
	name := label(path)

	s.details = append(s.details, errs.Detail{
		Path:    path,
		Type:    kind + ".base",
		Message: fmt.Sprintf("%q must be %s", name, expected),
		Context: map[string]any{"label": name, "key": name},
	})
}

func baseKind(t reflect.Type) (kind, expected string) {
	switch {
	case isNumber(t.Kind()):
		return "number", "a number"
	case t.Kind() == reflect.String || isBytes(t):
		return "string", "a string"
	case t.Kind() == reflect.Bool:
		return "boolean", "a boolean"
	case t.Kind() == reflect.Slice || t.Kind() == reflect.Array:
		return "array", "an array"
	default:
		return "object", "of type object"
	}
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// isBytes reports []byte, which encoding/json decodes from a base64 string.
func isBytes(t reflect.Type) bool {
	return t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8
}

func decodesItself(t reflect.Type) bool {
	pt := reflect.PointerTo(t)
	return t.Implements(jsonUnmarshaler) || pt.Implements(jsonUnmarshaler) ||
		t.Implements(textUnmarshaler) || pt.Implements(textUnmarshaler)
}

func deref(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// fieldSet maps json names to field types, embedded structs flattened.
type fieldSet map[string]reflect.Type

func fieldsOf(t reflect.Type) fieldSet {
	fields := make(fieldSet)
	collectFields(t, fields)
	return fields
}

func collectFields(t reflect.Type, into fieldSet) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)

		if f.Anonymous && f.Tag.Get("json") == "" {
			if et := deref(f.Type); et != nil && et.Kind() == reflect.Struct {
				collectFields(et, into)
				continue
			}
		}

		if !f.IsExported() {
			continue
		}

		name := jsonName(f)
		if name == "" {
			continue
		}
		if _, exists := into[name]; !exists {
			into[name] = f.Type
		}
	}
}

// lookup matches keys the way encoding/json does: exact name first, then
// case-insensitively.
func (fs fieldSet) lookup(key string) (reflect.Type, bool) {
	if t, ok := fs[key]; ok {
		return t, true
	}
	for name, t := range fs {
		if strings.EqualFold(name, key) {
			return t, true
		}
	}
	return nil, false
}
