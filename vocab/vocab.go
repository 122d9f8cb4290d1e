// Package vocab builds and reads frequency-ranked token vocabularies.
package vocab

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Indices of the default special tokens.
const (
	PAD = 0
	UNK = 1
	BOS = 2
	EOS = 3
)

const (
	PadWord = "<blank>"
	UnkWord = "<unk>"
	BosWord = "<s>"
	EosWord = "</s>"
)

// DefaultSpecials returns a new copy of the default special token list.
func DefaultSpecials() []string {
	return []string{PadWord, UnkWord, BosWord, EosWord}
}

// Entry is one line of a vocabulary file.
type Entry struct {
	Token    string
	Index    int
	Count    int
	Coverage float64
	Special  bool
}

type Vocabulary struct {
	Entries []Entry
	// Total is the number of corpus tokens counted, specials included.
	Total int

	toID map[string]int
}

func newVocabulary(entries []Entry, total int) *Vocabulary {
	v := &Vocabulary{
		Entries: entries,
		Total:   total,
		toID:    make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		v.toID[e.Token] = e.Index
	}
	return v
}

// Size returns the number of entries.
func (v *Vocabulary) Size() int {
	return len(v.Entries)
}

func (v *Vocabulary) Index(token string) (int, bool) {
	id, ok := v.toID[token]
	return id, ok
}

func (v *Vocabulary) Token(id int) (string, bool) {
	if id < 0 || id >= len(v.Entries) {
		return "", false
	}
	return v.Entries[id].Token, true
}

// Specials returns the special tokens in index order.
func (v *Vocabulary) Specials() []string {
	specials := lo.Filter(v.Entries, func(e Entry, _ int) bool { return e.Special })
	return lo.Map(specials, func(e Entry, _ int) string { return e.Token })
}

// Encode converts tokens to indices. Unknown tokens map to <unk>; a
// vocabulary without <unk> rejects them.
func (v *Vocabulary) Encode(tokens []string, lower bool) ([]int64, error) {
	unk, hasUnk := v.toID[UnkWord]
	caser := lowerCaser()
	ids := make([]int64, 0, len(tokens))
	for _, tok := range tokens {
		if lower {
			tok = caser.String(tok)
		}
		id, ok := v.toID[tok]
		if !ok {
			if !hasUnk {
				return nil, errors.Errorf("token %q not in vocabulary and no %s entry", tok, UnkWord)
			}
			id = unk
		}
		ids = append(ids, int64(id))
	}
	return ids, nil
}

// Decode converts indices back to tokens, skipping padding.
func (v *Vocabulary) Decode(ids []int64) string {
	words := make([]string, 0, len(ids))
	for _, id := range ids {
		word, ok := v.Token(int(id))
		if !ok || word == PadWord {
			continue
		}
		words = append(words, word)
	}
	return strings.Join(words, " ")
}

// Caser is not safe for concurrent use, so each caller gets its own.
func lowerCaser() cases.Caser {
	return cases.Lower(language.Und)
}
