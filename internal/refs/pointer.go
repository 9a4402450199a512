package refs

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Step is one hop in a Pointer: an object key or an array index.
type Step struct {
	Key   string
	Index int
	Array bool
}

// Pointer identifies the structural location of a reference inside its
// document, in JSON Pointer notation (RFC 6901) when rendered.
type Pointer []Step

// Child returns p extended by an object key. The receiver is never aliased.
func (p Pointer) Child(key string) Pointer {
	out := make(Pointer, len(p), len(p)+1)
	copy(out, p)
	return append(out, Step{Key: key})
}

// Element returns p extended by an array index.
func (p Pointer) Element(index int) Pointer {
	out := make(Pointer, len(p), len(p)+1)
	copy(out, p)
	return append(out, Step{Index: index, Array: true})
}

func (p Pointer) String() string {
	if len(p) == 0 {
		return ""
	}
	var b strings.Builder
	for _, step := range p {
		b.WriteByte('/')
		if step.Array {
			fmt.Fprintf(&b, "%d", step.Index)
		} else {
			b.WriteString(escapeToken(step.Key))
		}
	}
	return b.String()
}

func (p Pointer) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func escapeToken(token string) string {
	token = strings.ReplaceAll(token, "~", "~0")
	return strings.ReplaceAll(token, "/", "~1")
}
