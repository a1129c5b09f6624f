package rules

import "strings"

// Section is one heading-delimited block of a rules document.
type Section struct {
	// Title is the heading text with the marker and surrounding space removed.
	Title string

	// Level is the heading depth: 2 for ##, 3 for ###.
	Level int

	// Body is the raw text of the section including its heading line,
	// preserved byte-for-byte.
	Body string

	// Ordinal is the section's position in the source document, starting
	// at zero. Document order is significant and preserved end-to-end.
	Ordinal int
}

// Document is an ordered sequence of sections.
type Document struct {
	Sections []Section
}

// Parse splits content into sections at ## and ### headings.
// The preamble before the first heading is discarded.
func Parse(content string) *Document {
	doc := &Document{}

	var current *Section
	flush := func() {
		if current != nil {
			// Lines are joined as we go; strip the trailing separator that
			// accumulation adds after the final line.
			current.Body = strings.TrimSuffix(current.Body, "\n")
			doc.Sections = append(doc.Sections, *current)
		}
	}

	for _, line := range strings.SplitAfter(content, "\n") {
		trimmed := strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")

		level := 0
		switch {
		case strings.HasPrefix(trimmed, "### "):
			level = 3
		case strings.HasPrefix(trimmed, "## "):
			level = 2
		}

		if level > 0 {
			flush()
			current = &Section{
				Title: strings.TrimSpace(trimmed[level+1:]),
				Level: level,
				Body:  line,
			}
			continue
		}

		if current != nil {
			current.Body += line
		}
	}
	flush()

	for i := range doc.Sections {
		doc.Sections[i].Ordinal = i
	}

	return doc
}

// Filter returns a new document without the sections whose exact titles
// appear in exclude. Excluding a level-2 section also removes the level-3
// sections that follow it, until the next level-2 heading. A level-3
// section named explicitly is removed on its own.
//
// Ordinals in the result refer to positions in the source document, so
// surviving sections keep their original relative order and identity.
func Filter(doc *Document, exclude []string) *Document {
	if doc == nil {
		return &Document{}
	}

	excluded := make(map[string]bool, len(exclude))
	for _, title := range exclude {
		excluded[title] = true
	}

	out := &Document{}
	skipChildren := false

	for _, s := range doc.Sections {
		if s.Level == 2 {
			skipChildren = excluded[s.Title]
			if skipChildren {
				continue
			}
		}
		if s.Level == 3 && skipChildren {
			continue
		}
		if excluded[s.Title] {
			continue
		}
		out.Sections = append(out.Sections, s)
	}

	return out
}

// Render reassembles the document body by concatenating section bodies in
// ordinal order, separated by blank lines. An empty document renders as
// the empty string; otherwise the output is newline-terminated.
func Render(doc *Document) string {
	if doc == nil || len(doc.Sections) == 0 {
		return ""
	}

	bodies := make([]string, len(doc.Sections))
	for i, s := range doc.Sections {
		bodies[i] = strings.TrimRight(s.Body, "\n")
	}
	return strings.Join(bodies, "\n\n") + "\n"
}
