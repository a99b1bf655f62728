package rank

import "strings"

// phraseSwaps are applied one at a time; each produces at most one variant.
var phraseSwaps = [][2]string{
	{"unique", "distinct"},
	{"distinct", "unique"},
	{"how many", "count of"},
	{"how many", "number of"},
	{"rows", "records"},
	{"rows", "entries"},
	{"show", "list"},
	{"show", "display"},
	{"list", "show"},
	{"in", "within"},
	{"top", "first"},
	{"by", "ordered by"},
}

// Paraphrases generates lexical variants of a question, capped. The
// original question is not included. Swaps replace whole words only, and a
// variant equal to one already produced is skipped.
func Paraphrases(question string, cap int) []string {
	q := strings.ToLower(strings.TrimSpace(question))

	seen := map[string]struct{}{q: {}}

	var out []string

	add := func(v string) {
		if len(out) >= cap {
			return
		}

		if _, ok := seen[v]; ok {
			return
		}

		seen[v] = struct{}{}
		out = append(out, v)
	}

	for _, swap := range phraseSwaps {
		if len(out) >= cap {
			break
		}

		if v := swapWords(q, swap[0], swap[1]); v != q {
			add(v)
		}
	}

	// Pull a trailing "in <tail>" clause to the front, mimicking how
	// people restate scope-first questions.
	words := strings.Fields(q)
	for i := 1; i < len(words)-1; i++ {
		if words[i] == "in" {
			v := strings.Join(words[i:], " ") + " " + strings.Join(words[:i], " ")
			add(v)

			break
		}
	}

	return out
}

func swapWords(q, from, to string) string {
	fromWords := strings.Fields(from)

	words := strings.Fields(q)

	var out []string

	for i := 0; i < len(words); {
		if matchAt(words, i, fromWords) {
			out = append(out, strings.Fields(to)...)
			i += len(fromWords)

			continue
		}

		out = append(out, words[i])
		i++
	}

	return strings.Join(out, " ")
}

func matchAt(words []string, i int, want []string) bool {
	if i+len(want) > len(words) {
		return false
	}

	for j, w := range want {
		if words[i+j] != w {
			return false
		}
	}

	return true
}
