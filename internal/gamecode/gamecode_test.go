package gamecode

import (
	"math/rand"
	"strings"
	"testing"
)

func TestGenerate(t *testing.T) {
	code := NewGenerator(nil).Generate()
	if len(code) != Length {
		t.Errorf("Expected %d characters, got %q", Length, code)
	}
	if !Valid(code) {
		t.Errorf("Generated code %q fails its own validation", code)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	g1 := NewGenerator(rand.New(rand.NewSource(42)))
	g2 := NewGenerator(rand.New(rand.NewSource(42)))

	if g1.Generate() != g2.Generate() {
		t.Error("Same seed should produce the same code")
	}
}

func TestGenerateAlphabet(t *testing.T) {
	g := NewGenerator(rand.New(rand.NewSource(1)))
	for i := 0; i < 100; i++ {
		code := g.Generate()
		for _, c := range code {
			if !strings.ContainsRune(alphabet, c) {
				t.Fatalf("Code %q contains %q outside the alphabet", code, c)
			}
		}
	}
}

func TestValid(t *testing.T) {
	cases := []struct {
		code string
		want bool
	}{
		{"ABC234", true},
		{"ZZZZZZ", true},
		{"abc234", false}, // lowercase
		{"ABC23", false},  // too short
		{"ABC2345", false},
		{"ABC10O", false}, // ambiguous characters excluded
		{"", false},
	}
	for _, tc := range cases {
		if got := Valid(tc.code); got != tc.want {
			t.Errorf("Valid(%q) = %v, want %v", tc.code, got, tc.want)
		}
	}
}
