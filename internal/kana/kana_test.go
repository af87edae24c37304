package kana

import "testing"

func TestToHiragana(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain romaji", "taberu", "たべる"},
		{"uppercase folds", "TABERU", "たべる"},
		{"digraph", "janai", "じゃない"},
		{"sha shu sho", "shashusho", "しゃしゅしょ"},
		{"sokuon", "kitte", "きって"},
		{"syllabic n before consonant", "kondo", "こんど"},
		{"syllabic n at end", "mikan", "みかん"},
		{"apostrophe separator", "shin'ya", "しんや"},
		{"katakana folds", "テスト", "てすと"},
		{"hiragana passes through", "たべる", "たべる"},
		{"kanji passes through", "食べる", "食べる"},
		{"mixed text", "食べるdarou", "食べるだろう"},
		{"tsu spelling", "tsuki", "つき"},
		{"punctuation untouched", "te-form (te)", "てーふぉrm (て)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToHiragana(tt.in); got != tt.want {
				t.Errorf("ToHiragana(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
