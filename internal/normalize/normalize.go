// Package normalize canonicalizes request text before pattern matching.
//
// Every downstream stage of the guard operates on normalized text only, so
// this pass is the single place where obfuscation is defeated: homoglyphs and
// accents fold to ASCII, separators become spaces, zero-width characters are
// dropped, and a small leetspeak table undoes digit substitution.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// separators are replaced with a single space so that token-splitting
// bypasses ("control_equipment", "control/equipment") collapse onto the
// plain-text form the rule tables expect.
var separators = strings.NewReplacer(
	"_", " ",
	"-", " ",
	".", " ",
	"/", " ",
	"\\", " ",
	"|", " ",
	"\t", " ",
	"\n", " ",
	"\r", " ",
)

// foldTransform builds the transform that applies Unicode compatibility
// decomposition and strips combining marks, so "contrôl" and full-width
// "ｃｏｎｔｒｏｌ" both become plain "control". A transform.Chain carries
// per-call buffers, so a fresh chain is built per Normalize call instead of
// being shared; the links themselves are stateless and cheap.
func foldTransform() transform.Transformer {
	return transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
}

var caseFolder = cases.Fold()

// Normalizer canonicalizes raw text. The zero value is not usable; construct
// with New.
type Normalizer struct {
	leetEnabled bool
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithLeet toggles the leetspeak substitution pass.
func WithLeet(enabled bool) Option {
	return func(n *Normalizer) {
		n.leetEnabled = enabled
	}
}

// New creates a Normalizer. Leetspeak substitution is enabled by default.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{leetEnabled: true}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize canonicalizes raw text. It is a total function: malformed byte
// sequences are replaced rather than rejected, and the result is always
// valid UTF-8. Normalize(Normalize(x)) == Normalize(x).
func (n *Normalizer) Normalize(raw string) string {
	text := strings.ToValidUTF8(raw, " ")

	// Zero-width characters are removed outright, not collapsed to space:
	// they are used to split tokens invisibly mid-word, and turning them
	// into spaces would hand the attacker exactly the split they wanted.
	text = strings.Map(dropZeroWidth, text)

	if folded, _, err := transform.String(foldTransform(), text); err == nil {
		text = folded
	}

	text = caseFolder.String(text)
	text = separators.Replace(text)

	// Collapse all remaining whitespace runs (including NBSP) to single
	// ASCII spaces and trim the ends.
	tokens := strings.FieldsFunc(text, unicode.IsSpace)
	text = strings.Join(rejoinSplitTokens(tokens), " ")

	// Leet runs last so that rejoined tokens ("c 0 n t r 0 l") still get
	// their digits folded.
	if n.leetEnabled {
		text = applyLeet(text)
	}

	return text
}

// rejoinSplitTokens concatenates runs of three or more single-character
// tokens. Spelling a word out one character at a time ("c-o-n-t-r-o-l",
// "c o n t r o l") is a separator-insertion bypass; after the separators
// became spaces the word has to be stitched back together or no phrase rule
// can ever see it.
func rejoinSplitTokens(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	i := 0
	for i < len(tokens) {
		j := i
		for j < len(tokens) && isSingleAlnum(tokens[j]) {
			j++
		}
		if j-i >= 3 {
			out = append(out, strings.Join(tokens[i:j], ""))
			i = j
			continue
		}
		out = append(out, tokens[i])
		i++
	}
	return out
}

func isSingleAlnum(tok string) bool {
	r := []rune(tok)
	return len(r) == 1 && (unicode.IsLetter(r[0]) || unicode.IsDigit(r[0]))
}

// dropZeroWidth removes zero-width and bidi-control code points.
func dropZeroWidth(r rune) rune {
	switch {
	case r >= 0x200b && r <= 0x200f, // ZWSP, ZWNJ, ZWJ, LRM, RLM
		r >= 0x202a && r <= 0x202e, // bidi embedding/override
		r >= 0x2060 && r <= 0x206f, // word joiner, invisible operators
		r == 0xfeff: // BOM / ZWNBSP
		return -1
	}
	return r
}

// applyLeet undoes a small fixed set of leetspeak substitutions. The table
// is intentionally conservative: digits are only folded when they touch a
// letter, and '1' (ambiguous between i and l) only when flanked by letters
// on both sides, so legitimate numbers like "port 8080" survive intact.
func applyLeet(text string) string {
	in := []rune(text)
	out := make([]rune, len(in))
	copy(out, in)

	for i, r := range in {
		sub, ok := leetTable[r]
		if !ok {
			continue
		}
		prevLetter := i > 0 && unicode.IsLetter(in[i-1])
		nextLetter := i+1 < len(in) && unicode.IsLetter(in[i+1])

		if r == '1' {
			if prevLetter && nextLetter {
				out[i] = sub
			}
			continue
		}
		if prevLetter || nextLetter {
			out[i] = sub
		}
	}

	return string(out)
}

var leetTable = map[rune]rune{
	'0': 'o',
	'1': 'i',
	'3': 'e',
	'4': 'a',
	'$': 's',
}
