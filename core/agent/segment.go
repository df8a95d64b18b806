package agent

import (
	"strings"
	"unicode"
)

// segmenter turns a stream of text fragments into complete sentences.
// Fragment boundaries carry no meaning; a sentence can span many fragments
// and one fragment can close several sentences.
type segmenter struct {
	buf strings.Builder

	// pendingBreak is set after a terminator; the sentence is only closed
	// once the next rune shows the terminator was not mid-token.
	pendingBreak bool
}

func isSentenceTerminator(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '！', '？', '…', '\n':
		return true
	}
	return false
}

func isTrailingPunct(r rune) bool {
	switch r {
	case '"', '\'', ')', ']', '”', '’', '」', '』':
		return true
	}
	return false
}

// Feed appends fragment and returns any sentences it completed, raw and
// untrimmed so concatenating them reproduces the original text.
func (s *segmenter) Feed(fragment string) []string {
	var sentences []string
	for _, r := range fragment {
		if s.pendingBreak {
			switch {
			case isSentenceTerminator(r), isTrailingPunct(r):
				// "?!", closing quotes: still part of this sentence.
			case unicode.IsDigit(r):
				// Decimal point or numbered list, not a sentence end.
				s.pendingBreak = false
			default:
				if sentence, ok := s.take(); ok {
					sentences = append(sentences, sentence)
				}
			}
		}

		s.buf.WriteRune(r)
		if isSentenceTerminator(r) {
			s.pendingBreak = true
		}
	}
	return sentences
}

// Flush closes whatever is buffered, terminated or not.
func (s *segmenter) Flush() (string, bool) {
	return s.take()
}

func (s *segmenter) take() (string, bool) {
	sentence := s.buf.String()
	s.buf.Reset()
	s.pendingBreak = false
	if strings.TrimSpace(sentence) == "" {
		return "", false
	}
	return sentence, true
}
