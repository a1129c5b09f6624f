package target

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// replaceTopLevelKey rewrites a JSON object document so that key holds
// value, preserving every other key and the document's key order. A
// missing key is appended last. The result is compact; run it through
// prettyJSON before writing.
func replaceTopLevelKey(doc []byte, key string, value json.RawMessage) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(doc))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("top level must be a JSON object")
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	replaced := false

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		k, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected key token %v", keyTok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}

		if !first {
			buf.WriteByte(',')
		}
		first = false

		encKey, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(encKey)
		buf.WriteByte(':')
		if k == key {
			buf.Write(value)
			replaced = true
		} else {
			buf.Write(raw)
		}
	}

	if !replaced {
		if !first {
			buf.WriteByte(',')
		}
		encKey, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(encKey)
		buf.WriteByte(':')
		buf.Write(value)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// objectKeys returns the keys of a raw JSON object in document order.
// A nil or null value yields no keys.
func objectKeys(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		if tok == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("expected a JSON object")
	}

	var keys []string
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		k, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected key token %v", keyTok)
		}
		keys = append(keys, k)

		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

// prettyJSON indents a compact document with two spaces and terminates it
// with a newline. Key order is preserved; json.Indent never reorders.
func prettyJSON(compact []byte) ([]byte, error) {
	var out bytes.Buffer
	if err := json.Indent(&out, compact, "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}
