// Package kana folds search text into hiragana so romaji, katakana, and
// hiragana queries all match the same records.
package kana

import "strings"

// romajiTable maps romaji syllables to hiragana, longest key first at lookup
// time. Covers Hepburn spellings plus the common si/ti/tu/hu variants.
var romajiTable = map[string]string{
	"kya": "きゃ", "kyu": "きゅ", "kyo": "きょ",
	"gya": "ぎゃ", "gyu": "ぎゅ", "gyo": "ぎょ",
	"sha": "しゃ", "shu": "しゅ", "sho": "しょ", "shi": "し",
	"sya": "しゃ", "syu": "しゅ", "syo": "しょ",
	"ja": "じゃ", "ju": "じゅ", "jo": "じょ", "ji": "じ",
	"jya": "じゃ", "jyu": "じゅ", "jyo": "じょ",
	"zya": "じゃ", "zyu": "じゅ", "zyo": "じょ",
	"cha": "ちゃ", "chu": "ちゅ", "cho": "ちょ", "chi": "ち",
	"tya": "ちゃ", "tyu": "ちゅ", "tyo": "ちょ",
	"dya": "ぢゃ", "dyu": "ぢゅ", "dyo": "ぢょ",
	"nya": "にゃ", "nyu": "にゅ", "nyo": "にょ",
	"hya": "ひゃ", "hyu": "ひゅ", "hyo": "ひょ",
	"bya": "びゃ", "byu": "びゅ", "byo": "びょ",
	"pya": "ぴゃ", "pyu": "ぴゅ", "pyo": "ぴょ",
	"mya": "みゃ", "myu": "みゅ", "myo": "みょ",
	"rya": "りゃ", "ryu": "りゅ", "ryo": "りょ",
	"ka": "か", "ki": "き", "ku": "く", "ke": "け", "ko": "こ",
	"ga": "が", "gi": "ぎ", "gu": "ぐ", "ge": "げ", "go": "ご",
	"sa": "さ", "si": "し", "su": "す", "se": "せ", "so": "そ",
	"za": "ざ", "zi": "じ", "zu": "ず", "ze": "ぜ", "zo": "ぞ",
	"ta": "た", "ti": "ち", "tu": "つ", "te": "て", "to": "と",
	"tsu": "つ",
	"da": "だ", "di": "ぢ", "du": "づ", "de": "で", "do": "ど",
	"na": "な", "ni": "に", "nu": "ぬ", "ne": "ね", "no": "の",
	"ha": "は", "hi": "ひ", "hu": "ふ", "fu": "ふ", "he": "へ", "ho": "ほ",
	"ba": "ば", "bi": "び", "bu": "ぶ", "be": "べ", "bo": "ぼ",
	"pa": "ぱ", "pi": "ぴ", "pu": "ぷ", "pe": "ぺ", "po": "ぽ",
	"fa": "ふぁ", "fi": "ふぃ", "fe": "ふぇ", "fo": "ふぉ",
	"ma": "ま", "mi": "み", "mu": "む", "me": "め", "mo": "も",
	"ya": "や", "yu": "ゆ", "yo": "よ",
	"ra": "ら", "ri": "り", "ru": "る", "re": "れ", "ro": "ろ",
	"wa": "わ", "wi": "ゐ", "we": "ゑ", "wo": "を",
	"va": "ゔぁ", "vi": "ゔぃ", "vu": "ゔ", "ve": "ゔぇ", "vo": "ゔぉ",
	"a": "あ", "i": "い", "u": "う", "e": "え", "o": "お",
	"n": "ん", "-": "ー",
}

const maxSyllable = 3

// ToHiragana lowercases s and converts katakana and romaji runs to hiragana.
// Characters with no conversion (kanji, punctuation, digits) pass through
// unchanged, so folding is safe to apply to whole record text.
func ToHiragana(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(s))

	runes := []rune(s)
	for i := 0; i < len(runes); {
		r := runes[i]

		// Katakana block folds by codepoint offset; the prolonged sound
		// mark and small ヶ/ヵ stay as-is.
		if r >= 'ァ' && r <= 'ヶ' {
			b.WriteRune(r - 0x60)
			i++
			continue
		}

		if !isRomaji(r) {
			b.WriteRune(r)
			i++
			continue
		}

		// Doubled consonant becomes sokuon: kitte -> きって. A doubled n
		// is the syllabic n instead.
		if i+1 < len(runes) && r == runes[i+1] && isConsonant(r) && r != 'n' {
			b.WriteString("っ")
			i++
			continue
		}

		// Apostrophes only separate syllables (shin'ya); they produce
		// no output of their own.
		if r == '\'' {
			i++
			continue
		}

		matched := false
		for l := maxSyllable; l >= 1; l-- {
			if i+l > len(runes) {
				continue
			}
			if h, ok := romajiTable[string(runes[i:i+l])]; ok {
				b.WriteString(h)
				i += l
				matched = true
				break
			}
		}
		if !matched {
			b.WriteRune(r)
			i++
		}
	}
	return b.String()
}

func isRomaji(r rune) bool {
	return (r >= 'a' && r <= 'z') || r == '-' || r == '\''
}

func isConsonant(r rune) bool {
	switch r {
	case 'a', 'i', 'u', 'e', 'o', '-', '\'':
		return false
	}
	return r >= 'b' && r <= 'z'
}
