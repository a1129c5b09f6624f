// Package frontmatter provides parsing and formatting of YAML frontmatter
// blocks in markdown documents, as used by Cursor .mdc rules files.
package frontmatter

import (
	"bytes"
	"strings"

	"gopkg.in/yaml.v3"
)

var delim = []byte("---")

// Parse extracts a YAML frontmatter header and the remaining body from data.
// If no frontmatter is present, matter is left untouched and the full
// content is returned as the body.
func Parse[T any](data []byte, matter *T) (body []byte, err error) {
	rest, ok := cutDelimiter(data)
	if !ok {
		return data, nil
	}

	header, body, found := splitAtClose(rest)
	if !found {
		// Opening delimiter with no close: treat the whole thing as body.
		return data, nil
	}

	if err := yaml.Unmarshal(header, matter); err != nil {
		return nil, err
	}
	return body, nil
}

// cutDelimiter strips a leading "---" line. ok is false when data does not
// start with a frontmatter delimiter.
func cutDelimiter(data []byte) (rest []byte, ok bool) {
	if !bytes.HasPrefix(data, delim) {
		return nil, false
	}
	rest = data[len(delim):]
	rest = bytes.TrimPrefix(rest, []byte("\r"))
	if !bytes.HasPrefix(rest, []byte("\n")) {
		return nil, false
	}
	return rest[1:], true
}

// splitAtClose splits rest at the closing "---" line.
func splitAtClose(rest []byte) (header, body []byte, found bool) {
	for _, sep := range [][]byte{[]byte("\n---"), []byte("\r\n---")} {
		if header, body, found = bytes.Cut(rest, sep); found {
			break
		}
	}
	if !found {
		// The header may be empty, putting the close delimiter on the very
		// first line.
		if bytes.HasPrefix(rest, delim) {
			header, body, found = nil, rest[len(delim):], true
		}
	}
	if !found {
		return nil, nil, false
	}

	// Trim the line break left over from the split.
	body = bytes.TrimPrefix(body, []byte("\r"))
	body = bytes.TrimPrefix(body, []byte("\n"))
	return header, body, true
}

// Format renders matter as a YAML frontmatter block followed by body.
// The body is separated from the header by a blank line and is terminated
// with a newline.
func Format(matter any, body string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("---\n")

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(matter); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}

	buf.WriteString("---\n")
	if body != "" {
		buf.WriteString("\n")
		buf.WriteString(body)
		if !strings.HasSuffix(body, "\n") {
			buf.WriteString("\n")
		}
	}

	return buf.Bytes(), nil
}
