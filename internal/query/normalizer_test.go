package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizer_Normalize(t *testing.T) {
	n := NewNormalizer(ERPVocabulary, DefaultCutoff)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"corrects misspelling", "attendence", "attendance"},
		{"leaves unknown tokens", "xyz123", "xyz123"},
		{"lowercases and strips punctuation", "How do I apply for Leave?", "how do i apply for leave"},
		{"several corrections", "payrol and salry report", "payroll and salary report"},
		{"collapses whitespace", "  fees\t\tmodule \n", "fees module"},
		{"punctuation inside words splits them", "time-table", "time table"},
		{"underscore is a word character", "leave_type", "leave_type"},
		{"empty", "", ""},
		{"only punctuation", "?!...", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.in))
		})
	}
}

func TestNormalizer_Deterministic(t *testing.T) {
	n := NewNormalizer(ERPVocabulary, DefaultCutoff)
	in := "Can I downlod my examinaton certficate?"
	first := n.Normalize(in)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, n.Normalize(in))
	}
	assert.Equal(t, "can i downlod my examination certificate", first)
}

func TestNormalizer_Cutoff(t *testing.T) {
	strict := NewNormalizer([]string{"attendance"}, 0.95)
	assert.Equal(t, "attendence", strict.Normalize("attendence"))

	loose := NewNormalizer([]string{"attendance"}, 0.8)
	assert.Equal(t, "attendance", loose.Normalize("attendence"))
}

func TestNormalizer_BestMatchWins(t *testing.T) {
	n := NewNormalizer([]string{"reports", "report"}, DefaultCutoff)
	assert.Equal(t, "report", n.Normalize("reprt"))
}

func TestTokens(t *testing.T) {
	assert.Equal(t, []string{"fees", "à", "payer"}, Tokens("Fees: À payer!"))
	assert.Empty(t, Tokens("   "))
}
