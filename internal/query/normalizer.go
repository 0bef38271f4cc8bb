// Package query turns a user question into a grounded answer: it
// normalizes the wording, retrieves matching documentation and renders
// the generation prompt.
package query

import (
	"regexp"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// DefaultCutoff is the minimum similarity ratio for a spelling correction.
const DefaultCutoff = 0.8

// ERPVocabulary is the fixed list of domain terms misspellings are
// corrected towards.
var ERPVocabulary = []string{
	"attendance", "leave", "payroll", "salary", "employee", "student",
	"faculty", "examination", "timetable", "admission", "fees", "library",
	"hostel", "transport", "inventory", "purchase", "accounts", "department",
	"holiday", "report", "certificate", "result", "course", "semester",
	"syllabus", "assignment", "notice", "circular", "approval", "profile",
	"password", "login", "dashboard", "module", "attachment", "document",
}

var nonWord = regexp.MustCompile(`[^\p{L}\p{M}\p{N}_\s]`)

// Normalizer lowercases a question, strips punctuation and corrects
// tokens against a vocabulary. It holds no mutable state.
type Normalizer struct {
	vocabulary [][]string
	words      []string
	cutoff     float64
}

func NewNormalizer(vocabulary []string, cutoff float64) *Normalizer {
	n := &Normalizer{cutoff: cutoff}
	for _, w := range vocabulary {
		n.words = append(n.words, w)
		n.vocabulary = append(n.vocabulary, chars(w))
	}
	return n
}

// Normalize returns the search form of question. The output is only ever
// used for embedding; the prompt keeps the user's wording.
func (n *Normalizer) Normalize(question string) string {
	tokens := Tokens(question)
	for i, tok := range tokens {
		if match, ok := n.closest(tok); ok {
			tokens[i] = match
		}
	}
	return strings.Join(tokens, " ")
}

// Tokens lowercases s, replaces punctuation with spaces and splits it.
func Tokens(s string) []string {
	return strings.Fields(nonWord.ReplaceAllString(strings.ToLower(s), " "))
}

// closest picks the best vocabulary word scoring at least the cutoff.
// Equal ratios resolve to the lexically greater word so the choice does
// not depend on vocabulary order.
func (n *Normalizer) closest(token string) (string, bool) {
	m := difflib.NewMatcher(nil, chars(token))
	best, bestRatio := "", -1.0
	for i, cand := range n.vocabulary {
		m.SetSeq1(cand)
		if m.RealQuickRatio() < n.cutoff || m.QuickRatio() < n.cutoff {
			continue
		}
		r := m.Ratio()
		if r < n.cutoff {
			continue
		}
		if r > bestRatio || (r == bestRatio && n.words[i] > best) {
			best, bestRatio = n.words[i], r
		}
	}
	return best, bestRatio >= 0
}

func chars(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
