package ranking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"scoutapi/internal/model"
)

func scorePtr(v float64) *float64 { return &v }

func paperWith(title, content string, score *float64, primary string, created time.Time) model.Paper {
	p := model.Paper{Title: title, Content: content, CreatedAt: created}
	if score != nil || primary != "" {
		p.Analysis = &model.Analysis{ComplexityScore: score, DomainPrimary: primary}
	}
	return p
}

func TestRank_TokenOverlapAndDomainBonus(t *testing.T) {
	r := New()
	now := time.Now()

	papers := []model.Paper{
		paperWith("Deep Learning for Medical Imaging", "convolutional networks diagnose disease", nil, "machine learning", now),
		paperWith("Quantum Chemistry Methods", "density functional theory", nil, "chemistry", now),
	}

	results := r.Rank("deep learning medical", papers, Filters{})

	assert.Len(t, results, 1)
	assert.Equal(t, "Deep Learning for Medical Imaging", results[0].Paper.Title)
	assert.Greater(t, results[0].Similarity, 0.0)
}

func TestRank_DomainBonusAddsTenth(t *testing.T) {
	r := New()
	p := paperWith("Transformers", "attention is all you need", nil, "machine learning", time.Now())

	without := r.Rank("transformers attention", []model.Paper{p}, Filters{})
	with := r.Rank("transformers attention machine learning", []model.Paper{p}, Filters{})

	assert.Len(t, without, 1)
	assert.Len(t, with, 1)
	assert.Greater(t, with[0].Similarity, without[0].Similarity)
}

func TestRank_TitleSubstringRescuesZeroScore(t *testing.T) {
	r := New()
	// Punctuation-only query tokenizes to nothing, but the raw string still
	// substring-matches the title.
	p := paperWith("C++ Templates", "generic programming", nil, "", time.Now())

	results := r.Rank("++", []model.Paper{p}, Filters{})

	assert.Len(t, results, 1)
	assert.Equal(t, 0.0, results[0].Similarity)
}

func TestRank_DomainBonusAloneIsNotACandidate(t *testing.T) {
	r := New()
	// Primary domain substring-matches the query, but with zero token overlap
	// and no title hit the bonus has nothing to boost.
	p := paperWith("Quantum Entanglement", "qubits and decoherence", nil, "science", time.Now())

	results := r.Rank("computer science trends", []model.Paper{p}, Filters{})

	assert.Empty(t, results)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, clamp(-0.3, 0, 0.99))
	assert.Equal(t, 0.5, clamp(0.5, 0, 0.99))
	assert.Equal(t, 0.99, clamp(1.1, 0, 0.99))
}

func TestRank_NoMatchNoResult(t *testing.T) {
	r := New()
	p := paperWith("Graph Theory", "vertices and edges", nil, "", time.Now())

	results := r.Rank("zzzz unrelated", []model.Paper{p}, Filters{})

	assert.Empty(t, results)
}

func TestRank_SimilarityClamped(t *testing.T) {
	r := New()
	// Identical token sets give jaccard 1.0; plus the domain bonus the raw
	// score exceeds the display ceiling.
	p := paperWith("machine learning", "machine learning", nil, "machine learning", time.Now())

	results := r.Rank("machine learning", []model.Paper{p}, Filters{})

	assert.Len(t, results, 1)
	assert.Equal(t, 0.99, results[0].Similarity)
}

func TestComplexityBucket(t *testing.T) {
	tests := []struct {
		name  string
		paper model.Paper
		want  string
	}{
		{"no analysis", model.Paper{}, BucketUnknown},
		{"missing score", model.Paper{Analysis: &model.Analysis{}}, BucketUnknown},
		{"low boundary", paperWith("t", "c", scorePtr(3), "", time.Time{}), BucketBasic},
		{"intermediate boundary", paperWith("t", "c", scorePtr(6), "", time.Time{}), BucketIntermediate},
		{"just above intermediate", paperWith("t", "c", scorePtr(6.1), "", time.Time{}), BucketAdvanced},
		{"advanced boundary", paperWith("t", "c", scorePtr(8), "", time.Time{}), BucketAdvanced},
		{"expert", paperWith("t", "c", scorePtr(9.5), "", time.Time{}), BucketExpert},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComplexityBucket(tt.paper))
		})
	}
}

func TestRank_ComplexityFilter(t *testing.T) {
	r := New()
	basic := paperWith("neural nets intro", "neural nets", scorePtr(2), "", time.Now())
	expert := paperWith("neural nets theory", "neural nets", scorePtr(9), "", time.Now())
	unknown := paperWith("neural nets survey", "neural nets", nil, "", time.Now())

	results := r.Rank("neural nets", []model.Paper{basic, expert, unknown}, Filters{
		Complexity: []string{BucketBasic, BucketExpert},
	})

	titles := make([]string, 0, len(results))
	for _, res := range results {
		titles = append(titles, res.Paper.Title)
	}
	assert.ElementsMatch(t, []string{"neural nets intro", "neural nets theory"}, titles)
}

func TestRank_DomainFilterNormalizes(t *testing.T) {
	r := New()
	p := paperWith("protein folding", "protein structures", nil, "Computational Biology", time.Now())

	match := r.Rank("protein folding", []model.Paper{p}, Filters{Domains: []string{"computational_biology"}})
	miss := r.Rank("protein folding", []model.Paper{p}, Filters{Domains: []string{"chemistry"}})

	assert.Len(t, match, 1)
	assert.Empty(t, miss)
}

func TestRank_DateRange(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	r := &Ranker{now: func() time.Time { return now }}

	recent := paperWith("recent results", "results", nil, "", now.AddDate(0, 0, -2))
	old := paperWith("older results", "results", nil, "", now.AddDate(0, -6, 0))
	undated := paperWith("undated results", "results", nil, "", time.Time{})

	results := r.Rank("results", []model.Paper{recent, old, undated}, Filters{DateRange: DateWeek})

	titles := make([]string, 0, len(results))
	for _, res := range results {
		titles = append(titles, res.Paper.Title)
	}
	// Papers without a timestamp pass every window.
	assert.ElementsMatch(t, []string{"recent results", "undated results"}, titles)
}

func TestRank_Sorts(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	r := &Ranker{now: func() time.Time { return now }}

	a := paperWith("alpha study", "study", scorePtr(2), "", now.AddDate(0, 0, -3))
	b := paperWith("beta study", "study", scorePtr(7), "", now.AddDate(0, 0, -1))
	c := paperWith("gamma study", "study", nil, "", now.AddDate(0, 0, -2))
	papers := []model.Paper{a, b, c}

	t.Run("date ascending", func(t *testing.T) {
		results := r.Rank("study", papers, Filters{SortBy: SortDateAsc})
		assert.Equal(t, "alpha study", results[0].Paper.Title)
		assert.Equal(t, "beta study", results[2].Paper.Title)
	})

	t.Run("date descending", func(t *testing.T) {
		results := r.Rank("study", papers, Filters{SortBy: SortDateDesc})
		assert.Equal(t, "beta study", results[0].Paper.Title)
		assert.Equal(t, "alpha study", results[2].Paper.Title)
	})

	t.Run("complexity ascending treats missing as zero", func(t *testing.T) {
		results := r.Rank("study", papers, Filters{SortBy: SortComplexityAsc})
		assert.Equal(t, "gamma study", results[0].Paper.Title)
		assert.Equal(t, "beta study", results[2].Paper.Title)
	})

	t.Run("complexity descending", func(t *testing.T) {
		results := r.Rank("study", papers, Filters{SortBy: SortComplexityDesc})
		assert.Equal(t, "beta study", results[0].Paper.Title)
	})

	t.Run("relevance is the default", func(t *testing.T) {
		specific := paperWith("unique topic match", "unique topic match", nil, "", now)
		results := r.Rank("unique topic match", append(papers, specific), Filters{})
		if assert.NotEmpty(t, results) {
			assert.Equal(t, "unique topic match", results[0].Paper.Title)
		}
	})
}

func TestTokenSet(t *testing.T) {
	set := tokenSet("Deep-Learning, for  MEDICAL imaging!")
	// Punctuation is stripped in place, not turned into separators.
	assert.Contains(t, set, "deeplearning")
	assert.Contains(t, set, "for")
	assert.Contains(t, set, "medical")
	assert.Contains(t, set, "imaging")
	assert.Len(t, set, 4)
}
