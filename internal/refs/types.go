// Package refs extracts embedded $ref fields from schema documents and
// resolves them to concrete document identities.
package refs

// RefKey is the embedded pointer field name.
const RefKey = "$ref"

// Kind classifies a resolved reference.
type Kind string

const (
	// Internal references name another document in the tree by relative
	// path. A missing target leaves Target empty (the broken case).
	Internal Kind = "internal"
	// External references carry a URI scheme and are never checked
	// against the filesystem.
	External Kind = "external"
	// Malformed references cannot be interpreted as a path at all.
	Malformed Kind = "malformed"
)

// EdgeKind records the structural context a reference was found in.
type EdgeKind string

const (
	EdgeProperty             EdgeKind = "property"
	EdgeItems                EdgeKind = "items"
	EdgeAllOf                EdgeKind = "allOf"
	EdgeAnyOf                EdgeKind = "anyOf"
	EdgeOneOf                EdgeKind = "oneOf"
	EdgeAdditionalProperties EdgeKind = "additionalProperties"
	EdgeOther                EdgeKind = "other"
)

// Record is one occurrence of the reference field inside a document.
// Records are created fresh on every extraction pass and never persisted.
type Record struct {
	Doc     string   `json:"doc"`
	Pointer Pointer  `json:"pointer"`
	Raw     string   `json:"raw"`
	Context EdgeKind `json:"context"`
}

// Resolved is a Record plus its classification.
type Resolved struct {
	Record
	Kind Kind `json:"kind"`
	// Target is the tree-relative path of the referenced document. Empty
	// for External and Malformed, and for Internal references whose
	// normalized path names no existing document.
	Target string `json:"target,omitempty"`
	// Attempted is the normalized path that was checked for existence,
	// kept even when the target is missing so the failure is actionable.
	Attempted string `json:"attempted,omitempty"`
	// Fragment is the sub-document suffix after '#', recorded but not
	// validated here.
	Fragment string `json:"fragment,omitempty"`
	// Reason explains a Malformed classification.
	Reason string `json:"reason,omitempty"`
}

// Broken reports whether the reference needs repair: malformed, or internal
// with no existing target. External references are never broken.
func (r Resolved) Broken() bool {
	switch r.Kind {
	case Malformed:
		return true
	case Internal:
		return r.Target == ""
	default:
		return false
	}
}
