package auth

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
)

// ErrDuplicateKey reports a JSON object containing the same key twice. Such
// bodies have no canonical form and are refused rather than silently folded.
var ErrDuplicateKey = errors.New("duplicate object key")

// CanonicalJSON re-encodes a JSON document into its canonical byte form:
// object keys sorted lexicographically at every depth, no insignificant
// whitespace, number literals preserved exactly as sent. Two requests whose
// bodies differ only in key order or whitespace hash identically.
func CanonicalJSON(body []byte) ([]byte, error) {
	_, canonical, err := ParseCanonical(body)
	return canonical, err
}

// ParseCanonical decodes a JSON document once, returning both the parsed
// value and its canonical encoding. Handlers receive the parsed value so the
// structure they act on is exactly the structure that was hashed. Numbers
// decode as json.Number, objects as map[string]any.
func ParseCanonical(body []byte) (any, []byte, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	value, err := decodeValue(dec)
	if err != nil {
		return nil, nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, nil, errors.New("trailing data after JSON value")
	}
	var buf bytes.Buffer
	if err := encodeCanonical(&buf, value); err != nil {
		return nil, nil, err
	}
	return exportValue(value), buf.Bytes(), nil
}

// exportValue unwraps the internal object type so callers see plain maps.
func exportValue(value any) any {
	switch v := value.(type) {
	case jsonObject:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = exportValue(item)
		}
		return out
	case []any:
		for i, item := range v {
			v[i] = exportValue(item)
		}
		return v
	default:
		return value
	}
}

// jsonObject keeps insertion-independent access while remembering which keys
// were seen, so duplicates surface during decode instead of during emit.
type jsonObject map[string]any

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("decode JSON: %w", err)
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		}
		return nil, fmt.Errorf("unexpected delimiter %q", t)
	default:
		return tok, nil
	}
}

func decodeObject(dec *json.Decoder) (jsonObject, error) {
	obj := make(jsonObject)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode object key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("object key is %T, want string", keyTok)
		}
		if _, seen := obj[key]; seen {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateKey, key)
		}
		value, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		obj[key] = value
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("close object: %w", err)
	}
	return obj, nil
}

func decodeArray(dec *json.Decoder) ([]any, error) {
	arr := []any{}
	for dec.More() {
		value, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		arr = append(arr, value)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("close array: %w", err)
	}
	return arr, nil
}

func encodeCanonical(buf *bytes.Buffer, value any) error {
	switch v := value.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if v {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case json.Number:
		buf.WriteString(v.String())
	case string:
		return encodeString(buf, v)
	case []any:
		buf.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeCanonical(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case jsonObject:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeString(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := encodeCanonical(buf, v[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unsupported JSON value %T", value)
	}
	return nil
}

// encodeString emits a JSON string without HTML escaping so that & < > survive
// byte for byte on both sides of the wire.
func encodeString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encode appends a newline; canonical output has none.
	buf.Truncate(buf.Len() - 1)
	return nil
}
