// Package ranking scores and orders a paper corpus against a free-text
// query, entirely client-side. It is a total function over its inputs:
// absent or malformed fields degrade to neutral values rather than
// excluding a record.
package ranking

import (
	"sort"
	"strings"
	"time"

	"scoutapi/internal/model"
)

// Sort keys accepted by Filters.SortBy.
const (
	SortRelevance      = "relevance"
	SortDateAsc        = "date_asc"
	SortDateDesc       = "date_desc"
	SortComplexityAsc  = "complexity_asc"
	SortComplexityDesc = "complexity_desc"
)

// Date ranges accepted by Filters.DateRange, relative to now.
const (
	DateAll   = "all"
	DateWeek  = "week"
	DateMonth = "month"
	DateYear  = "year"
)

// Complexity buckets derived from the 0-10 complexity score.
const (
	BucketBasic        = "basic"
	BucketIntermediate = "intermediate"
	BucketAdvanced     = "advanced"
	BucketExpert       = "expert"
	BucketUnknown      = "unknown"
)

// Filters are the optional, AND-combined search constraints.
type Filters struct {
	DateRange  string
	Complexity []string
	Domains    []string
	SortBy     string
}

// Result is one matched paper with its display similarity attached.
type Result struct {
	Paper model.Paper `json:"paper"`
	// Similarity is the relevance score clamped to [0, 0.99].
	Similarity float64 `json:"similarity"`
}

// Ranker ranks papers. now is injectable for date-filter tests.
type Ranker struct {
	now func() time.Time
}

// New returns a ranker using wall-clock time.
func New() *Ranker {
	return &Ranker{now: time.Now}
}

// Rank returns the relevance-ordered subset of papers matching query under
// filters. It never fails; the only way to get zero results is a query with
// no token overlap and no substring or filter match.
func (r *Ranker) Rank(query string, papers []model.Paper, f Filters) []Result {
	queryTokens := tokenSet(query)
	now := r.now()

	results := make([]Result, 0)
	for _, p := range papers {
		if !passesDateRange(p, f.DateRange, now) {
			continue
		}
		if !passesComplexity(p, f.Complexity) {
			continue
		}
		if !passesDomains(p, f.Domains) {
			continue
		}

		// Candidacy rides on token overlap (or a raw title substring hit)
		// alone; the domain bonus only boosts papers already matched.
		sim := jaccard(queryTokens, paperTokens(p))
		titleHit := strings.Contains(strings.ToLower(p.Title), strings.ToLower(query))
		if sim <= 0 && !titleHit {
			continue
		}

		score := sim + domainBonus(p, query)
		results = append(results, Result{Paper: p, Similarity: clamp(score, 0, 0.99)})
	}

	sortResults(results, f.SortBy)
	return results
}

// tokenSet lowercases, strips everything outside [a-z0-9\s], splits on
// whitespace, and drops empty tokens.
func tokenSet(s string) map[string]struct{} {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '\t', r == '\n', r == '\r':
			b.WriteRune(' ')
		}
	}
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(b.String()) {
		set[tok] = struct{}{}
	}
	return set
}

func paperTokens(p model.Paper) map[string]struct{} {
	set := tokenSet(p.Title)
	for tok := range tokenSet(p.Content) {
		set[tok] = struct{}{}
	}
	return set
}

// jaccard is |intersection| / |union|, defined as 0 when the union is empty.
func jaccard(a, b map[string]struct{}) float64 {
	union := len(b)
	inter := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			inter++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// domainBonus adds 0.1 when the paper's primary domain appears as a
// substring of the raw query, case-insensitively.
func domainBonus(p model.Paper, query string) float64 {
	if p.Analysis == nil || p.Analysis.DomainPrimary == "" {
		return 0
	}
	if strings.Contains(strings.ToLower(query), strings.ToLower(p.Analysis.DomainPrimary)) {
		return 0.1
	}
	return 0
}

// passesDateRange checks the record timestamp against the window. Papers
// lacking a timestamp pass every date filter.
func passesDateRange(p model.Paper, dateRange string, now time.Time) bool {
	if p.CreatedAt.IsZero() {
		return true
	}
	var cutoff time.Time
	switch dateRange {
	case DateWeek:
		cutoff = now.AddDate(0, 0, -7)
	case DateMonth:
		cutoff = now.AddDate(0, -1, 0)
	case DateYear:
		cutoff = now.AddDate(-1, 0, 0)
	default:
		return true
	}
	return !p.CreatedAt.Before(cutoff)
}

// ComplexityBucket maps the numeric score to its bucket. A missing score is
// "unknown", which never matches an explicit bucket filter.
func ComplexityBucket(p model.Paper) string {
	if p.Analysis == nil || p.Analysis.ComplexityScore == nil {
		return BucketUnknown
	}
	score := *p.Analysis.ComplexityScore
	switch {
	case score <= 3:
		return BucketBasic
	case score <= 6:
		return BucketIntermediate
	case score <= 8:
		return BucketAdvanced
	default:
		return BucketExpert
	}
}

func passesComplexity(p model.Paper, buckets []string) bool {
	if len(buckets) == 0 {
		return true
	}
	bucket := ComplexityBucket(p)
	for _, b := range buckets {
		if bucket == b {
			return true
		}
	}
	return false
}

// normalizeDomain lowercases and replaces whitespace with underscores, so
// "Computer Science" matches the filter id "computer_science".
func normalizeDomain(domain string) string {
	return strings.Join(strings.Fields(strings.ToLower(domain)), "_")
}

func passesDomains(p model.Paper, domains []string) bool {
	if len(domains) == 0 {
		return true
	}
	if p.Analysis == nil {
		return false
	}
	paperDomains := make(map[string]struct{})
	if p.Analysis.DomainPrimary != "" {
		paperDomains[normalizeDomain(p.Analysis.DomainPrimary)] = struct{}{}
	}
	for _, d := range p.Analysis.DomainSecondary {
		paperDomains[normalizeDomain(d)] = struct{}{}
	}
	for _, want := range domains {
		if _, ok := paperDomains[normalizeDomain(want)]; ok {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// complexityOf treats a missing score as 0 for complexity sorts.
func complexityOf(p model.Paper) float64 {
	if p.Analysis == nil || p.Analysis.ComplexityScore == nil {
		return 0
	}
	return *p.Analysis.ComplexityScore
}

func sortResults(results []Result, sortBy string) {
	switch sortBy {
	case SortDateAsc:
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Paper.CreatedAt.Before(results[j].Paper.CreatedAt)
		})
	case SortDateDesc:
		sort.SliceStable(results, func(i, j int) bool {
			return results[j].Paper.CreatedAt.Before(results[i].Paper.CreatedAt)
		})
	case SortComplexityAsc:
		sort.SliceStable(results, func(i, j int) bool {
			return complexityOf(results[i].Paper) < complexityOf(results[j].Paper)
		})
	case SortComplexityDesc:
		sort.SliceStable(results, func(i, j int) bool {
			return complexityOf(results[j].Paper) < complexityOf(results[i].Paper)
		})
	default: // relevance
		sort.SliceStable(results, func(i, j int) bool {
			return results[j].Similarity < results[i].Similarity
		})
	}
}
