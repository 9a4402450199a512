package refs

import (
	"sort"

	"github.com/refmend-dev/refmend/internal/document"
)

// Extract walks a document's structure and returns every occurrence of the
// reference field, at any nesting depth and in any container shape. Object
// keys are visited in sorted order so record order is deterministic.
func Extract(doc *document.Document) []Record {
	var records []Record
	walk(doc.Path, doc.Body, nil, &records)
	return records
}

// ExtractAll extracts from every document in a tree, in tree order.
func ExtractAll(tree *document.Tree) []Record {
	var records []Record
	for i := range tree.Documents {
		records = append(records, Extract(&tree.Documents[i])...)
	}
	return records
}

func walk(doc string, value any, ptr Pointer, out *[]Record) {
	switch v := value.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			child := v[key]
			childPtr := ptr.Child(key)
			if key == RefKey {
				if raw, ok := child.(string); ok {
					*out = append(*out, Record{
						Doc:     doc,
						Pointer: childPtr,
						Raw:     raw,
						Context: contextOf(childPtr),
					})
					continue
				}
			}
			walk(doc, child, childPtr, out)
		}
	case []any:
		for i, item := range v {
			walk(doc, item, ptr.Element(i), out)
		}
	}
}

// contextOf derives the structural edge kind from the steps leading to the
// $ref member: properties/<name>, items (optionally indexed), the
// allOf/anyOf/oneOf combinators, or additionalProperties. Anything else is
// "other".
func contextOf(ptr Pointer) EdgeKind {
	// ptr ends with the $ref step itself; combinator entries may sit
	// behind one or more array indices.
	steps := ptr[:len(ptr)-1]
	j := len(steps) - 1
	for j >= 0 && steps[j].Array {
		j--
	}
	if j < 0 {
		return EdgeOther
	}
	switch steps[j].Key {
	case "items":
		return EdgeItems
	case "allOf":
		return EdgeAllOf
	case "anyOf":
		return EdgeAnyOf
	case "oneOf":
		return EdgeOneOf
	case "additionalProperties":
		return EdgeAdditionalProperties
	}
	if j >= 1 && !steps[j-1].Array && steps[j-1].Key == "properties" {
		return EdgeProperty
	}
	return EdgeOther
}
