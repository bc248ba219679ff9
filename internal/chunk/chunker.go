// Package chunk splits note text into overlapping, sentence-aware pieces
// bounded by an approximate token budget. Token counts are approximated
// as character length divided by four, rounded up; no exact tokenizer is
// involved.
package chunk

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	recallerrors "github.com/notewell/recall/internal/errors"
)

// CharsPerToken is the character-to-token approximation factor.
const CharsPerToken = 4

// Piece is one chunk of a source text. StartOffset and EndOffset index
// into the original input; Text == input[StartOffset:EndOffset].
type Piece struct {
	Text        string
	ChunkIndex  int
	TokenCount  int
	StartOffset int
	EndOffset   int
}

// Chunker splits text into sentence-aware pieces. Construct with
// NewChunker; the zero value is not usable.
type Chunker struct {
	sizeTokens    int
	overlapTokens int
}

// boundaryRe matches a sentence boundary: terminal punctuation followed
// by whitespace or end of input.
var boundaryRe = regexp.MustCompile(`[.!?](\s|$)`)

// NewChunker validates the chunking parameters and returns a chunker.
// Violations fail with a config error before any chunking work begins.
func NewChunker(sizeTokens, overlapTokens int) (*Chunker, error) {
	if sizeTokens <= 0 {
		return nil, recallerrors.ChunkParamsError(
			fmt.Sprintf("chunk size must be positive, got %d tokens", sizeTokens))
	}
	if overlapTokens < 0 {
		return nil, recallerrors.ChunkParamsError(
			fmt.Sprintf("chunk overlap must not be negative, got %d tokens", overlapTokens))
	}
	if overlapTokens >= sizeTokens {
		return nil, recallerrors.ChunkParamsError(
			fmt.Sprintf("chunk overlap (%d tokens) must be smaller than chunk size (%d tokens)",
				overlapTokens, sizeTokens))
	}
	return &Chunker{sizeTokens: sizeTokens, overlapTokens: overlapTokens}, nil
}

// Chunk is a convenience wrapper: validate parameters, then split.
func Chunk(text string, sizeTokens, overlapTokens int) ([]Piece, error) {
	c, err := NewChunker(sizeTokens, overlapTokens)
	if err != nil {
		return nil, err
	}
	return c.Split(text), nil
}

// Split divides text into pieces. Empty or whitespace-only input yields
// an empty sequence. Split is deterministic and never fails on content.
func (c *Chunker) Split(text string) []Piece {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	sentences := sentenceSpans(text)
	if len(sentences) == 0 {
		return nil
	}

	budget := c.sizeTokens * CharsPerToken
	overlapChars := c.overlapTokens * CharsPerToken

	var pieces []Piece
	bStart, bEnd := sentences[0].start, sentences[0].end

	for _, s := range sentences[1:] {
		// Emit before the buffer would exceed the character budget.
		if s.end-bStart > budget && bEnd > bStart {
			pieces = append(pieces, makePiece(text, bStart, bEnd, len(pieces)))
			bStart = overlapStart(text, bStart, bEnd, overlapChars)
			if bStart < 0 {
				bStart = s.start
			}
		}
		bEnd = s.end
	}

	if bEnd > bStart {
		pieces = append(pieces, makePiece(text, bStart, bEnd, len(pieces)))
	}
	return pieces
}

// TokenCount approximates the token count of text (ceil of length/4).
func TokenCount(text string) int {
	return (len(text) + CharsPerToken - 1) / CharsPerToken
}

func makePiece(text string, start, end, index int) Piece {
	t := text[start:end]
	return Piece{
		Text:        t,
		ChunkIndex:  index,
		TokenCount:  TokenCount(t),
		StartOffset: start,
		EndOffset:   end,
	}
}

// span is a half-open [start, end) range into the original text.
type span struct {
	start, end int
}

// sentenceSpans locates sentences as contiguous ranges of the input.
// A sentence runs from its first non-space character through its terminal
// punctuation. Input with no boundary at all is a single sentence.
func sentenceSpans(text string) []span {
	var spans []span
	pos := skipSpace(text, 0)

	for _, loc := range boundaryRe.FindAllStringIndex(text, -1) {
		end := loc[0] + 1 // include the punctuation mark
		if end <= pos {
			continue
		}
		spans = append(spans, span{start: pos, end: end})
		pos = skipSpace(text, end)
	}

	// Trailing text after the last boundary forms a final sentence.
	if pos < len(text) {
		end := trimSpaceEnd(text, len(text))
		if end > pos {
			spans = append(spans, span{start: pos, end: end})
		}
	}
	return spans
}

// overlapStart finds where the overlap suffix of the emitted buffer
// [bStart, bEnd) begins. The window is the trailing overlapChars of the
// buffer; when a sentence boundary exists inside it the suffix is trimmed
// forward to the following sentence start, otherwise the raw trailing
// slice is used. Returns -1 when there is no overlap to carry.
func overlapStart(text string, bStart, bEnd, overlapChars int) int {
	if overlapChars <= 0 {
		return -1
	}
	wStart := bEnd - overlapChars
	if wStart < bStart {
		wStart = bStart
	}
	window := text[wStart:bEnd]

	if loc := boundaryRe.FindStringIndex(window); loc != nil {
		start := skipSpace(text, wStart+loc[0]+1)
		if start < bEnd {
			return start
		}
	}
	return wStart
}

func skipSpace(text string, i int) int {
	for i < len(text) && unicode.IsSpace(rune(text[i])) {
		i++
	}
	return i
}

func trimSpaceEnd(text string, i int) int {
	for i > 0 && unicode.IsSpace(rune(text[i-1])) {
		i--
	}
	return i
}
