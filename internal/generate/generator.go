// Package generate wires the candidate pipeline together: rule extraction
// and corpus retrieval feed one pool, which is deduplicated, sorted, and
// backstopped with a safe fallback so a question never comes back empty.
package generate

import (
	"fmt"
	"sort"

	"github.com/dwmorris/sqlpilot/internal/config"
	"github.com/dwmorris/sqlpilot/internal/corpus"
	"github.com/dwmorris/sqlpilot/internal/join"
	"github.com/dwmorris/sqlpilot/internal/lexicon"
	"github.com/dwmorris/sqlpilot/internal/logging"
	"github.com/dwmorris/sqlpilot/internal/pmi"
	"github.com/dwmorris/sqlpilot/internal/predict"
	"github.com/dwmorris/sqlpilot/internal/rank"
	"github.com/dwmorris/sqlpilot/internal/rules"
	"github.com/dwmorris/sqlpilot/internal/schema"
	"github.com/dwmorris/sqlpilot/internal/sqlgen"
	"github.com/dwmorris/sqlpilot/internal/types"
)

const pmiMinDF = 2

// Generator produces ranked SQL candidates for natural-language questions.
type Generator struct {
	cfg       *config.Config
	analyzer  *lexicon.Analyzer
	predictor *predict.Predictor
	extractor *rules.Extractor
	ranker    *rank.Ranker
	store     *corpus.Store
	logger    *logging.Logger
}

// New builds a generator over the persisted corpus store. Promoted learned
// synonyms are folded into the analyzer up front; a store that cannot be
// read degrades to the static vocabulary.
func New(cfg *config.Config, store *corpus.Store, logger *logging.Logger) *Generator {
	analyzer := lexicon.NewAnalyzer()

	learned, err := store.PromotedSynonyms(cfg.Generate.SynonymMinUses)
	if err != nil {
		logger.WithError(err).Warn("loading learned synonyms, continuing without")
	} else {
		analyzer.SetLearnedSynonyms(learned)
	}

	predictor := predict.New(analyzer)

	return &Generator{
		cfg:       cfg,
		analyzer:  analyzer,
		predictor: predictor,
		extractor: rules.New(analyzer, predictor),
		ranker:    rank.NewRanker(analyzer, cfg.Generate.RetrieverTopK, cfg.Generate.ParaphraseCap),
		store:     store,
		logger:    logger,
	}
}

// Analyzer exposes the generator's shared analyzer.
func (g *Generator) Analyzer() *lexicon.Analyzer {
	return g.analyzer
}

// Corpus assembles the full retrieval corpus: static seeds, entries derived
// from the live schema, accepted user pairs, and materialized induced
// patterns.
func (g *Generator) Corpus(m *schema.Model) []corpus.Entry {
	entries := append([]corpus.Entry{}, corpus.StaticTemplates...)
	entries = append(entries, corpus.SchemaDerived(m)...)

	userEntries, err := g.store.LoadUserCorpus()
	if err != nil {
		g.logger.WithError(err).Warn("loading user corpus, continuing without")
	}

	entries = append(entries, userEntries...)

	patterns, err := g.store.LoadPatterns()
	if err != nil {
		g.logger.WithError(err).Warn("loading induced patterns, continuing without")
	}

	entries = append(entries, corpus.MaterializePatterns(patterns, g.cfg.State.MaxPatternsUse)...)

	return entries
}

// Generate returns candidates sorted best-first. The list is never empty.
func (g *Generator) Generate(m *schema.Model, graph *join.Graph, question string) []types.Candidate {
	entries := g.Corpus(m)

	pmiModel := g.pmiModel()

	cands := g.extractor.Extract(m, graph, question, pmiModel)
	res := g.predictor.ScoreTableColumn(m, g.analyzer.Tokens(question), pmiModel)
	cands = append(cands, g.ranker.Rank(entries, question, res)...)

	cands = dedupe(cands)

	sort.SliceStable(cands, func(a, b int) bool {
		if cands[a].Score != cands[b].Score {
			return cands[a].Score > cands[b].Score
		}

		return cands[a].Rationale < cands[b].Rationale
	})

	if len(cands) == 0 {
		cands = append(cands, g.fallback(m))
	}

	return cands
}

// pmiModel builds token/column association scores from accepted user pairs.
func (g *Generator) pmiModel() pmi.Model {
	userEntries, err := g.store.LoadUserCorpus()
	if err != nil {
		return nil
	}

	pairs := make([]pmi.Pair, 0, len(userEntries))
	for _, e := range userEntries {
		pairs = append(pairs, pmi.Pair{Question: e.Q, SQL: e.SQL})
	}

	return pmi.Build(pairs, pmiMinDF)
}

func (g *Generator) fallback(m *schema.Model) types.Candidate {
	table := g.cfg.Generate.FallbackTable
	if len(m.TableNames) > 0 {
		table = m.TableNames[0]
	}

	return types.Candidate{
		SQL:       fmt.Sprintf("SELECT * FROM %s LIMIT %d", table, g.cfg.Generate.FallbackLimit),
		Score:     0.40,
		Rationale: "Fallback: browse first table",
	}
}

// dedupe collapses candidates whose SQL normalizes identically, keeping the
// best score. First-seen order is preserved for the survivors.
func dedupe(cands []types.Candidate) []types.Candidate {
	best := make(map[string]int, len(cands))

	var out []types.Candidate

	for _, c := range cands {
		key := sqlgen.Normalize(c.SQL)

		if i, ok := best[key]; ok {
			if c.Score > out[i].Score {
				out[i] = c
			}

			continue
		}

		best[key] = len(out)
		out = append(out, c)
	}

	return out
}
