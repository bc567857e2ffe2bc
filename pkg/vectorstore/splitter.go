package vectorstore

import "strings"

// defaultSeparators is the separator hierarchy for recursive splitting:
// paragraph breaks first, then lines, then words, then single characters.
var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// Splitter breaks documents into overlapping chunks of bounded size using
// recursive character splitting. Split is deterministic for a given input.
type Splitter struct {
	chunkSize    int
	chunkOverlap int
}

func NewSplitter(chunkSize, chunkOverlap int) *Splitter {
	return &Splitter{chunkSize: chunkSize, chunkOverlap: chunkOverlap}
}

// SplitDocuments splits every document and assigns each chunk a global
// position in document order.
func (s *Splitter) SplitDocuments(docs []Document) []Chunk {
	var chunks []Chunk
	for _, doc := range docs {
		for _, piece := range s.splitText(doc.Content, defaultSeparators) {
			piece = strings.TrimSpace(piece)
			if piece == "" {
				continue
			}
			chunks = append(chunks, Chunk{
				Source:   doc.Source,
				Content:  piece,
				Position: len(chunks),
			})
		}
	}
	return chunks
}

// splitText splits text on the first separator in the hierarchy, merging the
// resulting pieces into chunks up to chunkSize. Pieces that are still too
// large recurse with the remaining separators.
func (s *Splitter) splitText(text string, separators []string) []string {
	if len(text) <= s.chunkSize {
		return []string{text}
	}
	if len(separators) == 0 {
		return s.hardSplit(text)
	}

	sep := separators[0]
	rest := separators[1:]
	if sep == "" {
		return s.hardSplit(text)
	}

	parts := strings.Split(text, sep)

	var (
		result  []string
		pending []string
	)
	flush := func() {
		if len(pending) == 0 {
			return
		}
		result = append(result, strings.Join(pending, sep))
		pending = s.carryOverlap(pending, sep)
	}

	pendingLen := func() int {
		n := 0
		for i, p := range pending {
			if i > 0 {
				n += len(sep)
			}
			n += len(p)
		}
		return n
	}

	for _, part := range parts {
		if len(part) > s.chunkSize {
			flush()
			pending = nil
			result = append(result, s.splitText(part, rest)...)
			continue
		}
		extra := len(part)
		if len(pending) > 0 {
			extra += len(sep)
		}
		if pendingLen()+extra > s.chunkSize {
			flush()
			// The carried overlap may still leave no room for the piece.
			// Trim it from the front rather than flushing it on its own,
			// which would emit a chunk that only repeats the previous tail.
			for len(pending) > 0 && pendingLen()+len(sep)+len(part) > s.chunkSize {
				pending = pending[1:]
			}
		}
		pending = append(pending, part)
	}
	if len(pending) > 0 {
		result = append(result, strings.Join(pending, sep))
	}

	return result
}

// carryOverlap keeps the trailing pieces of a flushed chunk whose combined
// length fits within chunkOverlap, seeding the next chunk with them.
func (s *Splitter) carryOverlap(pieces []string, sep string) []string {
	if s.chunkOverlap <= 0 {
		return nil
	}
	var (
		kept []string
		size int
	)
	for i := len(pieces) - 1; i >= 0; i-- {
		extra := len(pieces[i])
		if len(kept) > 0 {
			extra += len(sep)
		}
		if size+extra > s.chunkOverlap {
			break
		}
		size += extra
		kept = append([]string{pieces[i]}, kept...)
	}
	return kept
}

// hardSplit cuts text at fixed offsets with overlap, the terminal fallback
// when no separator can produce fitting pieces.
func (s *Splitter) hardSplit(text string) []string {
	var result []string
	step := s.chunkSize - s.chunkOverlap
	if step <= 0 {
		step = s.chunkSize
	}
	for start := 0; start < len(text); start += step {
		end := start + s.chunkSize
		if end > len(text) {
			end = len(text)
		}
		result = append(result, text[start:end])
		if end == len(text) {
			break
		}
	}
	return result
}
