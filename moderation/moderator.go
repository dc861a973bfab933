// Package moderation censors blocklisted words in message bodies before they
// reach any recipient, mailbox or transcript.
package moderation

import (
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

// Moderator matches blocklisted words with an Aho-Corasick automaton built
// over a normalized alphabet, so leet spellings and injected punctuation
// ("b.4.d word") still match. Matched spans are masked in the original text
// with the replacement rune, preserving length and spacing.
type Moderator struct {
	machine     *goahocorasick.Machine
	replacement rune
}

// NewModerator builds the automaton from the blocklist. Words are normalized
// the same way inputs are, so the two alphabets line up.
func NewModerator(words []string, replacement rune) (*Moderator, error) {
	patterns := make([][]rune, 0, len(words))
	for _, w := range words {
		if norm := normalize([]rune(w), nil); len(norm) > 0 {
			patterns = append(patterns, norm)
		}
	}

	machine := new(goahocorasick.Machine)
	if err := machine.Build(patterns); err != nil {
		return nil, err
	}
	return &Moderator{machine: machine, replacement: replacement}, nil
}

// Censor masks every blocklisted span of the input and returns the matched
// (normalized) words for diagnostics.
func (m *Moderator) Censor(original string) (string, []string) {
	origRunes := []rune(original)
	if len(origRunes) == 0 {
		return original, nil
	}

	// positions[i] is the index in origRunes that produced normalized rune i.
	var positions []int
	normalized := normalize(origRunes, func(origIdx int) {
		positions = append(positions, origIdx)
	})
	if len(normalized) == 0 {
		return original, nil
	}

	terms := m.machine.MultiPatternSearch(normalized, false)
	if len(terms) == 0 {
		return original, nil
	}

	matched := make([]string, 0, len(terms))
	for _, term := range terms {
		start := term.Pos
		end := start + len(term.Word)
		if start < 0 || end > len(positions) {
			continue
		}
		matched = append(matched, string(term.Word))

		// Mask the whole original span, including any noise characters the
		// normalization skipped inside the match.
		for i := positions[start]; i <= positions[end-1]; i++ {
			origRunes[i] = m.replacement
		}
	}
	return string(origRunes), matched
}

// normalize lowercases, folds leet substitutions and drops punctuation,
// spacing and symbols. visit, when non-nil, is called with the original index
// of every kept rune.
func normalize(input []rune, visit func(origIdx int)) []rune {
	out := make([]rune, 0, len(input))
	for i, r := range input {
		r = foldLeet(r)
		if unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r) {
			continue
		}
		out = append(out, unicode.ToLower(r))
		if visit != nil {
			visit(i)
		}
	}
	return out
}

var leet = map[rune]rune{
	'4': 'a', '@': 'a',
	'3': 'e', '€': 'e',
	'1': 'i', '!': 'i', '|': 'i',
	'0': 'o',
	'5': 's', '$': 's',
	'7': 't',
}

func foldLeet(r rune) rune {
	if folded, ok := leet[r]; ok {
		return folded
	}
	return r
}
