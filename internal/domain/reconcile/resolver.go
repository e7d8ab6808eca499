package reconcile

import (
	"context"
	"sort"

	"github.com/marketsync/backend/internal/domain/catalog"
	"go.uber.org/zap"
)

// Business heuristics inherited from operations. The threshold and the
// perfect-match shortcut are deliberate: exact matches skip the oracle to
// save a remote call, and verdicts at or below the threshold are rejected.
const (
	// DefaultMinConfidence is the oracle confidence gate on a 0..10 scale;
	// a verdict is accepted only when Confidence is strictly greater.
	DefaultMinConfidence = 5
	perfectScore         = 1.0
)

// Outcome classifies an attribute resolution attempt.
type Outcome int

const (
	// OutcomeResolved means a canonical value was selected.
	OutcomeResolved Outcome = iota
	// OutcomeAmbiguous means the fuzzy score was below a perfect match and
	// no oracle was available to adjudicate.
	OutcomeAmbiguous
	// OutcomeFailed means the attribute cannot be resolved for this record.
	OutcomeFailed
)

// Resolution is the explicit result of one attribute lookup. It replaces
// sentinel strings: callers branch on Outcome, never on magic values.
type Resolution struct {
	Outcome Outcome
	Value   string
	Reason  string
}

func resolved(value string) Resolution {
	return Resolution{Outcome: OutcomeResolved, Value: value}
}

func failed(reason string) Resolution {
	return Resolution{Outcome: OutcomeFailed, Reason: reason}
}

// OracleVerdict is the disambiguation collaborator's answer.
type OracleVerdict struct {
	BestValue string
	// Confidence is on a 0..10 scale.
	Confidence int
}

// Oracle adjudicates low-confidence fuzzy matches, typically with a
// language-model classification call. An error from the oracle fails the
// attribute for the record; it never aborts the batch.
type Oracle interface {
	ResolveAmbiguous(ctx context.Context, query string, candidates []string) (OracleVerdict, error)
}

// Resolver finds the best-matching canonical value for a search key among
// a candidate pool, with deterministic tie-breaking.
type Resolver struct {
	oracle        Oracle
	minConfidence int
	logger        *zap.Logger
}

// NewResolver creates a resolver. The oracle may be nil, in which case
// ambiguous colors resolve to OutcomeAmbiguous instead of being escalated.
func NewResolver(oracle Oracle, minConfidence int, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		oracle:        oracle,
		minConfidence: minConfidence,
		logger:        logger,
	}
}

// Resolve returns the candidate value with the highest similarity to the
// query. Candidates are deduplicated and sorted first, so ties always keep
// the same value across runs. An empty pool resolves to OutcomeFailed.
func (r *Resolver) Resolve(query string, candidates []string) Resolution {
	value, _, ok := r.bestMatch(query, candidates)
	if !ok {
		return failed("empty candidate pool")
	}
	return resolved(value)
}

// ResolveColor resolves a color candidate with the confidence gate: a
// perfect fuzzy match is returned directly, anything less is escalated to
// the oracle and its verdict is accepted only above the confidence
// threshold.
func (r *Resolver) ResolveColor(ctx context.Context, query string, candidates []string) Resolution {
	value, score, ok := r.bestMatch(query, candidates)
	if !ok {
		return failed("empty candidate pool")
	}
	if score == perfectScore {
		return resolved(value)
	}

	if r.oracle == nil {
		return Resolution{Outcome: OutcomeAmbiguous, Reason: "no exact color match and no oracle configured"}
	}

	distinct := distinctSorted(candidates)
	verdict, err := r.oracle.ResolveAmbiguous(ctx, query, distinct)
	if err != nil {
		r.logger.Warn("color oracle failed",
			zap.String("query", query),
			zap.Error(err))
		return failed("oracle error: " + err.Error())
	}
	if verdict.Confidence <= r.minConfidence {
		r.logger.Debug("color oracle verdict below confidence gate",
			zap.String("query", query),
			zap.String("verdict", verdict.BestValue),
			zap.Int("confidence", verdict.Confidence))
		return failed("oracle confidence too low")
	}
	return resolved(verdict.BestValue)
}

// bestMatch scans the deduplicated, sorted candidate pool and returns the
// argmax by similarity. Strictly-greater comparison over a sorted pool makes
// tie-breaking first-seen and reproducible.
func (r *Resolver) bestMatch(query string, candidates []string) (string, float64, bool) {
	distinct := distinctSorted(candidates)
	if len(distinct) == 0 {
		return "", 0, false
	}

	best := ""
	bestScore := -1.0
	for _, c := range distinct {
		score := similarity(query, c)
		if score > bestScore {
			bestScore = score
			best = c
		}
	}
	return best, bestScore, true
}

func distinctSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// similarity is a normalized, case-insensitive Levenshtein ratio in
// [0.0, 1.0]: (len(a)+len(b)-distance) / (len(a)+len(b)) over runes.
func similarity(a, b string) float64 {
	ra := []rune(catalog.Fold(a))
	rb := []rune(catalog.Fold(b))
	total := len(ra) + len(rb)
	if total == 0 {
		return perfectScore
	}
	return float64(total-levenshtein(ra, rb)) / float64(total)
}

func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = minInt(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func minInt(vals ...int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
