package nlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "whitespace only", in: " \t\n ", want: ""},
		{name: "collapses runs", in: "Ages  18\tto\n65", want: "ages 18 to 65"},
		{name: "trims", in: "  Heart Failure  ", want: "heart failure"},
		{name: "lowercases", in: "Type 2 DIABETES", want: "type 2 diabetes"},
		{name: "already canonical", in: "metformin", want: "metformin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	in := "  Male   Only.\nMust have   diabetes. "
	once := Normalize(in)
	assert.Equal(t, once, Normalize(once))
}

func TestNormalizeAll(t *testing.T) {
	got := NormalizeAll([]string{" A  B ", ""})
	assert.Equal(t, []string{"a b", ""}, got)

	got = NormalizeAll(nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
