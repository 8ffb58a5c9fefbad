package rules

import (
	"regexp"
	"unicode"
)

// Bypass technique names recorded in Evidence.BypassAttempts. These feed the
// confidence score even when no concrete rule fired.
const (
	BypassZeroWidth     = "zero-width-insertion"
	BypassHomoglyph     = "homoglyph-or-accent"
	BypassSeparator     = "separator-insertion"
	BypassLeet          = "leet-substitution"
	BypassCaseMixing    = "case-mixing"
	BypassMixedScript   = "mixed-script"
	BypassSymbolDensity = "symbol-density"
)

var (
	// Four or more word characters joined one at a time by separators,
	// e.g. "c-o-n-t-r-o-l" or "c o n t r o l".
	reSeparatorInsertion = regexp.MustCompile(`(?i)\b\w(?:[\s_\-./\\|]\w){3,}\b`)
	// A digit or $ wedged between letters, e.g. "h4ck", "pa$$word".
	reLeet = regexp.MustCompile(`(?i)[a-z][0134$]+[a-z]`)
)

// DetectBypass inspects the raw (pre-normalization) text for obfuscation
// techniques. Detection is independent of whether any rule matched: the
// techniques themselves are evidence that someone is trying to evade the
// rule tables.
func DetectBypass(raw string) []string {
	if raw == "" {
		return nil
	}

	var attempts []string
	add := func(name string, present bool) {
		if present {
			attempts = append(attempts, name)
		}
	}

	stats := scanRunes(raw)

	add(BypassZeroWidth, stats.zeroWidth)
	add(BypassHomoglyph, stats.foldableLetter)
	add(BypassSeparator, reSeparatorInsertion.MatchString(raw))
	add(BypassLeet, reLeet.MatchString(raw))
	add(BypassCaseMixing, stats.caseMixedWord)
	add(BypassMixedScript, stats.latinLetter && stats.otherLetter)
	add(BypassSymbolDensity, stats.symbolHeavy())

	return attempts
}

type runeStats struct {
	total          int
	symbols        int
	zeroWidth      bool
	foldableLetter bool
	latinLetter    bool
	otherLetter    bool
	caseMixedWord  bool
}

// symbolHeavy reports excessive non-alphanumeric density. Short strings are
// exempt so that punctuation-heavy fragments don't trip it.
func (s runeStats) symbolHeavy() bool {
	return s.total >= 8 && s.symbols*10 > s.total*3
}

func scanRunes(raw string) runeStats {
	var stats runeStats

	// Per-word case transitions; three or more flips inside one word
	// (e.g. "CoNtRoL") is deliberate case mixing, while ordinary
	// capitalization has at most one.
	transitions := 0
	lastUpper := false
	haveCase := false

	endWord := func() {
		if transitions >= 3 {
			stats.caseMixedWord = true
		}
		transitions = 0
		haveCase = false
	}

	for _, r := range raw {
		stats.total++

		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r) {
			stats.symbols++
		}
		if dropZeroWidthRune(r) {
			stats.zeroWidth = true
		}

		if unicode.IsLetter(r) {
			if r > unicode.MaxASCII {
				stats.foldableLetter = true
			}
			if unicode.Is(unicode.Latin, r) {
				stats.latinLetter = true
			} else {
				stats.otherLetter = true
			}

			upper := unicode.IsUpper(r)
			if haveCase && upper != lastUpper {
				transitions++
			}
			lastUpper = upper
			haveCase = true
			continue
		}

		endWord()
	}
	endWord()

	return stats
}

// dropZeroWidthRune mirrors the normalizer's zero-width set.
func dropZeroWidthRune(r rune) bool {
	switch {
	case r >= 0x200b && r <= 0x200f,
		r >= 0x202a && r <= 0x202e,
		r >= 0x2060 && r <= 0x206f,
		r == 0xfeff:
		return true
	}
	return false
}
