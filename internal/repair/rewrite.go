package repair

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/refmend-dev/refmend/internal/refs"
)

// spliceValue replaces the string value at ptr with newValue and returns
// the new document bytes. Every byte outside the value's own span is
// preserved exactly: no reformatting, no key reordering.
func spliceValue(data []byte, ptr refs.Pointer, newValue string) ([]byte, error) {
	start, end, err := locateString(data, ptr)
	if err != nil {
		return nil, err
	}
	quoted, err := json.Marshal(newValue)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(data)-(end-start)+len(quoted))
	out = append(out, data[:start]...)
	out = append(out, quoted...)
	out = append(out, data[end:]...)
	return out, nil
}

// locateString finds the byte span [start,end) of the string value at ptr,
// including its quotes, by walking the document's token stream. The
// decoder's input offset lands just past each token, so the value's opening
// quote is the first quote after the preceding token.
func locateString(data []byte, ptr refs.Pointer) (int, int, error) {
	if len(ptr) == 0 {
		return 0, 0, fmt.Errorf("empty pointer")
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	start, end, err := descend(dec, data, ptr)
	if err != nil {
		return 0, 0, fmt.Errorf("locating %s: %w", ptr, err)
	}
	return start, end, nil
}

func descend(dec *json.Decoder, data []byte, ptr refs.Pointer) (int, int, error) {
	if len(ptr) == 0 {
		before := dec.InputOffset()
		tok, err := dec.Token()
		if err != nil {
			return 0, 0, err
		}
		if _, ok := tok.(string); !ok {
			return 0, 0, fmt.Errorf("target is not a string value")
		}
		after := dec.InputOffset()
		quote := bytes.IndexByte(data[before:after], '"')
		if quote < 0 {
			return 0, 0, fmt.Errorf("string literal not found in token span")
		}
		return int(before) + quote, int(after), nil
	}

	step := ptr[0]
	tok, err := dec.Token()
	if err != nil {
		return 0, 0, err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return 0, 0, fmt.Errorf("expected container at step %+v", step)
	}

	switch delim {
	case '{':
		if step.Array {
			return 0, 0, fmt.Errorf("pointer indexes an object with %d", step.Index)
		}
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return 0, 0, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return 0, 0, fmt.Errorf("object key is not a string")
			}
			if key == step.Key {
				return descend(dec, data, ptr[1:])
			}
			if err := skipValue(dec); err != nil {
				return 0, 0, err
			}
		}
		return 0, 0, fmt.Errorf("key %q not found", step.Key)
	case '[':
		if !step.Array {
			return 0, 0, fmt.Errorf("pointer names key %q in an array", step.Key)
		}
		for i := 0; dec.More(); i++ {
			if i == step.Index {
				return descend(dec, data, ptr[1:])
			}
			if err := skipValue(dec); err != nil {
				return 0, 0, err
			}
		}
		return 0, 0, fmt.Errorf("index %d out of range", step.Index)
	default:
		return 0, 0, fmt.Errorf("unexpected delimiter %v", delim)
	}
}

// skipValue consumes exactly one JSON value from the token stream.
func skipValue(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	delim, ok := tok.(json.Delim)
	if !ok || (delim != '{' && delim != '[') {
		return nil
	}
	for dec.More() {
		if delim == '{' {
			if _, err := dec.Token(); err != nil { // key
				return err
			}
		}
		if err := skipValue(dec); err != nil {
			return err
		}
	}
	_, err = dec.Token() // closing delimiter
	return err
}

// rewriteDocument applies a batch of value edits to one document's bytes.
// Actions address values structurally, so each splice re-locates against
// the current bytes and edit order cannot matter.
func rewriteDocument(data []byte, actions []Action) ([]byte, error) {
	out := data
	for _, action := range actions {
		next, err := spliceValue(out, action.ptr, action.New)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", action.File, err)
		}
		out = next
	}
	return out, nil
}
