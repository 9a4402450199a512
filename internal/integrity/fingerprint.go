package integrity

import (
	"encoding/hex"

	"lukechampine.com/blake3"

	"github.com/refmend-dev/refmend/internal/document"
)

// Fingerprint hashes every document path and its raw content in sorted
// order. Two scans of byte-identical trees produce the same digest, which
// is how audits prove they touched nothing.
func Fingerprint(tree *document.Tree) string {
	hasher := blake3.New(32, nil)
	for _, doc := range tree.Documents {
		hasher.Write([]byte(doc.Path))
		hasher.Write([]byte{'\n'})
		hasher.Write(doc.Raw)
		hasher.Write([]byte{'\n'})
	}
	return hex.EncodeToString(hasher.Sum(nil))
}
