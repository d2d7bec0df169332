package text

import "strings"

// Split breaks a document into passages of at most maxChars characters.
// Boundaries are chosen recursively: paragraphs first, then lines, then
// words, so a passage rarely cuts mid-sentence. Blank input yields no
// passages. The boundary preference is a quality heuristic; the only hard
// guarantee is the length bound and that no content is dropped.
func Split(text string, maxChars int) []string {
	text = strings.TrimSpace(text)
	if text == "" || maxChars <= 0 {
		return nil
	}

	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}

	appendPiece := func(piece, sep string) bool {
		need := len(piece)
		if current.Len() > 0 {
			need += len(sep)
		}
		if current.Len()+need > maxChars {
			return false
		}
		if current.Len() > 0 {
			current.WriteString(sep)
		}
		current.WriteString(piece)
		return true
	}

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if appendPiece(para, "\n\n") {
			continue
		}
		flush()
		if appendPiece(para, "\n\n") {
			continue
		}

		for _, line := range strings.Split(para, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if appendPiece(line, "\n") {
				continue
			}
			flush()
			if appendPiece(line, "\n") {
				continue
			}

			for _, word := range strings.Fields(line) {
				if appendPiece(word, " ") {
					continue
				}
				flush()
				// Fallback for a single token longer than a whole chunk.
				// Cut on rune boundaries so no chunk holds invalid UTF-8.
				runes := []rune(word)
				for len(runes) > maxChars {
					chunks = append(chunks, string(runes[:maxChars]))
					runes = runes[maxChars:]
				}
				if len(runes) > 0 {
					current.WriteString(string(runes))
				}
			}
		}
	}
	flush()

	return chunks
}
