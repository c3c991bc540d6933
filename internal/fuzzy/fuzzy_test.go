package fuzzy

import (
	"reflect"
	"testing"
)

func TestFold(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Björk", "bjork"},
		{"Sigur Rós", "sigur ros"},
		{"AC/DC", "ac dc"},
		{"Beyoncé (Deluxe)", "beyonce  deluxe "},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Fold(tt.in); got != tt.want {
				t.Errorf("Fold(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTokens(t *testing.T) {
	got := Tokens("the Wall  THE wall, Part II")
	want := []string{"ii", "part", "the", "wall"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokens() = %v, want %v", got, want)
	}

	if Tokens("  ... ") != nil {
		t.Error("expected nil tokens for punctuation only")
	}
}

func TestRatio(t *testing.T) {
	if got := Ratio("abc", "abc"); got != 100 {
		t.Errorf("identical strings = %d, want 100", got)
	}
	if got := Ratio("abc", "xyz"); got != 0 {
		t.Errorf("disjoint strings = %d, want 0", got)
	}
	// LCS("abcd", "abce") = 3, 2*3/8 = 75
	if got := Ratio("abcd", "abce"); got != 75 {
		t.Errorf("Ratio = %d, want 75", got)
	}
}

func TestTokenSetRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{name: "identical", a: "Album X", b: "Album X", want: 100},
		{name: "case and order", a: "artist y", b: "Y ARTIST", want: 100},
		{name: "extra words on one side", a: "Random Access Memories", b: "Random Access Memories (10th Anniversary Edition)", want: 100},
		{name: "feat credit", a: "Get Lucky", b: "Get Lucky (feat. Pharrell Williams)", want: 100},
		{name: "diacritics", a: "Bjork Homogenic", b: "Björk - Homogénic", want: 100},
		{name: "empty left", a: "", b: "Album", want: 0},
		{name: "punctuation only", a: "...", b: "Album", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TokenSetRatio(tt.a, tt.b); got != tt.want {
				t.Errorf("TokenSetRatio(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}

	t.Run("unrelated strings score low", func(t *testing.T) {
		if got := TokenSetRatio("Album X", "Unrelated"); got >= 50 {
			t.Errorf("expected low score, got %d", got)
		}
	})

	t.Run("symmetric", func(t *testing.T) {
		pairs := [][2]string{
			{"Kid A", "Kid A Mnesia"},
			{"OK Computer", "OK Computer OKNOTOK"},
			{"Dark Side of the Moon", "The Dark Side"},
			{"Blue", "Blue Lines"},
		}
		for _, p := range pairs {
			if TokenSetRatio(p[0], p[1]) != TokenSetRatio(p[1], p[0]) {
				t.Errorf("TokenSetRatio not symmetric for %q / %q", p[0], p[1])
			}
		}
	})

	t.Run("partial overlap stays between bounds", func(t *testing.T) {
		got := TokenSetRatio("Second Album Great", "Second Record Fine")
		if got <= 0 || got >= 100 {
			t.Errorf("expected score strictly between 0 and 100, got %d", got)
		}
	})
}
