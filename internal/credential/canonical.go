package credential

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Canonicalize serializes a JSON document into its canonical string form:
// top-level keys sorted bytewise ascending, values compacted but otherwise
// byte-preserved. Two documents with the same top-level key/value pairs
// canonicalize identically regardless of the order the keys arrived in.
//
// Only the top level is normalized. Key order inside nested objects is kept
// as submitted, so documents that differ only in nested key order are
// distinct credentials. The same goes for representational differences the
// serializer keeps, such as 1 versus 1.0.
func Canonicalize(doc map[string]json.RawMessage) (string, error) {
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return "", fmt.Errorf("marshal key %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		if err := json.Compact(&buf, doc[k]); err != nil {
			return "", fmt.Errorf("compact value of %q: %w", k, err)
		}
	}
	buf.WriteByte('}')
	return buf.String(), nil
}
