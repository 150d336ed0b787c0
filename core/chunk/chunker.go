// Package chunk splits a Markdown document into word-bounded chunks for
// embedding. Chunks never span two sections: a heading line always starts a
// new chunk, and the heading text is kept at the front of every chunk cut
// from its section so each vector carries its context.
package chunk

import "strings"

// DefaultSize is the chunk size used when none is given.
const DefaultSize = 512

// Chunker splits text into chunks of at most Size words.
type Chunker struct {
	Size int // words per chunk, heading included
}

// New creates a Chunker with the given chunk size.
// Defaults to DefaultSize if size <= 0.
func New(size int) *Chunker {
	if size <= 0 {
		size = DefaultSize
	}
	return &Chunker{Size: size}
}

type section struct {
	heading []string
	words   []string
}

// Chunk splits the document into section-aligned chunks.
func (c *Chunker) Chunk(text string) []string {
	var chunks []string
	for _, s := range sections(text) {
		chunks = append(chunks, c.split(s)...)
	}
	return chunks
}

func (c *Chunker) split(s section) []string {
	if len(s.words) == 0 {
		return nil
	}
	// Long headings must still leave room for content.
	room := c.Size - len(s.heading)
	if room < 1 {
		room = 1
	}

	var out []string
	for i := 0; i < len(s.words); i += room {
		end := i + room
		if end > len(s.words) {
			end = len(s.words)
		}
		parts := append(append([]string{}, s.heading...), s.words[i:end]...)
		out = append(out, strings.Join(parts, " "))
	}
	return out
}

func sections(text string) []section {
	var (
		out     []section
		current section
	)
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			if len(current.words) > 0 {
				out = append(out, current)
			}
			current = section{heading: strings.Fields(strings.TrimLeft(trimmed, "# "))}
			continue
		}
		current.words = append(current.words, strings.Fields(line)...)
	}
	if len(current.words) > 0 {
		out = append(out, current)
	}
	return out
}
