package rank

import (
	"math"
	"sort"

	"github.com/dwmorris/sqlpilot/internal/lexicon"
)

// Vector is a sparse term-weight map, L2-normalized at construction.
type Vector map[string]float64

// Vectorizer is a unigram+bigram TF-IDF model fit over a fixed document set.
type Vectorizer struct {
	analyzer *lexicon.Analyzer
	idf      map[string]float64
	docs     []Vector
}

// NewVectorizer fits a vectorizer over the documents. Terms are
// stop-filtered unigrams plus adjacent bigrams; idf is smoothed so unseen
// query terms never divide by zero.
func NewVectorizer(analyzer *lexicon.Analyzer, docs []string) *Vectorizer {
	v := &Vectorizer{
		analyzer: analyzer,
		idf:      make(map[string]float64),
	}

	counts := make([]map[string]int, len(docs))
	df := make(map[string]int)

	for i, doc := range docs {
		tf := termCounts(analyzer, doc)
		counts[i] = tf

		for term := range tf {
			df[term]++
		}
	}

	n := float64(len(docs))
	for term, d := range df {
		v.idf[term] = math.Log((1+n)/(1+float64(d))) + 1
	}

	v.docs = make([]Vector, len(docs))
	for i, tf := range counts {
		v.docs[i] = v.weigh(tf)
	}

	return v
}

// Transform vectorizes a query against the fitted vocabulary. Terms never
// seen at fit time get the maximum idf.
func (v *Vectorizer) Transform(text string) Vector {
	return v.weigh(termCounts(v.analyzer, text))
}

// Doc returns the fitted vector for document i.
func (v *Vectorizer) Doc(i int) Vector {
	return v.docs[i]
}

// Len returns the number of fitted documents.
func (v *Vectorizer) Len() int {
	return len(v.docs)
}

func (v *Vectorizer) weigh(tf map[string]int) Vector {
	unseen := math.Log(1+float64(len(v.docs))) + 1

	vec := make(Vector, len(tf))

	var norm float64

	for term, c := range tf {
		idf, ok := v.idf[term]
		if !ok {
			idf = unseen
		}

		w := float64(c) * idf
		vec[term] = w
		norm += w * w
	}

	if norm > 0 {
		norm = math.Sqrt(norm)
		for term := range vec {
			vec[term] /= norm
		}
	}

	return vec
}

// Cosine is the dot product of two normalized vectors.
func Cosine(a, b Vector) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}

	var dot float64

	for term, w := range a {
		dot += w * b[term]
	}

	return dot
}

// MaxCosine returns the best similarity between the query and any fitted
// document. Zero when the vectorizer is empty.
func (v *Vectorizer) MaxCosine(text string) float64 {
	q := v.Transform(text)

	best := 0.0

	for _, doc := range v.docs {
		if s := Cosine(q, doc); s > best {
			best = s
		}
	}

	return best
}

func termCounts(analyzer *lexicon.Analyzer, text string) map[string]int {
	tokens := analyzer.Tokens(text)

	tf := make(map[string]int, len(tokens)*2)

	for i, tok := range tokens {
		tf[tok]++

		if i+1 < len(tokens) {
			tf[tokens[i]+" "+tokens[i+1]]++
		}
	}

	return tf
}

// topIndices returns the indices of the k highest values, ties broken by
// lower index.
func topIndices(scores []float64, k int) []int {
	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}

	sort.SliceStable(idx, func(a, b int) bool {
		return scores[idx[a]] > scores[idx[b]]
	})

	if k > len(idx) {
		k = len(idx)
	}

	return idx[:k]
}
