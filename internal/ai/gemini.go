// Package ai wraps the Gemini text-analysis service. Its failures are a
// distinct error class: unlike identity absence they are always surfaced to
// the caller, never silently defaulted.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"scoutapi/internal/model"
)

// ErrServiceFailed marks any analysis-service failure so callers can tell it
// apart from storage errors.
var ErrServiceFailed = errors.New("analysis service failed")

// Gemini calls the Gemini API for paper analysis, summaries, code, similar
// papers, and visualization suggestions. All responses are requested as JSON.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates the client. model defaults to gemini-1.5-flash, which has
// friendlier quota limits than the pro models.
func NewGemini(ctx context.Context, apiKey, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gemini{client: client, model: modelName}, nil
}

// generateJSON sends one prompt and returns the JSON object or array
// embedded in the reply.
func (g *Gemini) generateJSON(ctx context.Context, prompt string) ([]byte, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			Temperature:     genai.Ptr[float32](0.7),
			TopP:            genai.Ptr[float32](0.8),
			MaxOutputTokens: 4096,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceFailed, err)
	}
	raw := extractJSON(resp.Text())
	if raw == "" {
		return nil, fmt.Errorf("%w: no valid JSON found in response", ErrServiceFailed)
	}
	return []byte(raw), nil
}

// extractJSON returns the outermost JSON object or array in text, tolerating
// prose or code fences around it.
func extractJSON(text string) string {
	for _, pair := range [][2]string{{"{", "}"}, {"[", "]"}} {
		start := strings.Index(text, pair[0])
		end := strings.LastIndex(text, pair[1])
		if start >= 0 && end > start {
			return text[start : end+1]
		}
	}
	return ""
}

// truncate caps prompt payloads to keep token usage predictable.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// AnalyzePaper produces the structured analysis record for freshly extracted
// paper text.
func (g *Gemini) AnalyzePaper(ctx context.Context, content, filename string) (*model.Analysis, error) {
	prompt := fmt.Sprintf(`Role: Research Analysis Specialist
Context: You are analyzing an uploaded research paper for initial assessment.

TASK: Perform comprehensive research paper analysis with multi-dimensional scoring.

Assess technical complexity on a 1-10 scale, classify the primary and
secondary research domains, and identify the key methodologies used.

Paper Content: %s...
Filename: %s

OUTPUT FORMAT (JSON only):
{
  "complexity_score": 7,
  "technical_depth": "advanced",
  "domain_primary": "Computer Science",
  "domain_secondary": ["Machine Learning", "Data Science"],
  "key_methodologies": ["Statistical Analysis", "Experimental Design"],
  "analysis_confidence": 0.85,
  "paper_metadata": {
    "title": "Research Paper Title",
    "estimated_pages": 15,
    "estimated_citations": 25,
    "publication_year": 2023,
    "research_quality": "High"
  }
}`, truncate(content, 2000), filename)

	raw, err := g.generateJSON(ctx, prompt)
	if err != nil {
		return nil, err
	}
	var analysis model.Analysis
	if err := json.Unmarshal(raw, &analysis); err != nil {
		return nil, fmt.Errorf("%w: decode analysis: %v", ErrServiceFailed, err)
	}
	return &analysis, nil
}

// GenerateAgeSummary adapts the paper for a target age. The content payload
// is returned opaque; the store persists it without interpreting it.
func (g *Gemini) GenerateAgeSummary(ctx context.Context, content string, targetAge int, analysis *model.Analysis) (json.RawMessage, error) {
	domain := ""
	if analysis != nil {
		domain = analysis.DomainPrimary
	}
	prompt := fmt.Sprintf(`Role: Educational Content Adapter & Science Communication Expert
Context: Convert complex research into age-appropriate educational content.

TARGET AUDIENCE: %d-year-old students
Research Content: %s...
Research Domain: %s

OUTPUT STRUCTURE (JSON only):
{
  "executive_summary": "2-3 sentence overview in plain English",
  "what_is_this_about": "Detailed explanation using analogies",
  "why_should_i_care": "Relevance to target age group's world",
  "real_world_examples": ["example1", "example2", "example3"],
  "fun_facts": ["fact1", "fact2", "fact3"],
  "career_connections": ["career1", "career2"],
  "discussion_questions": ["question1", "question2", "question3"],
  "vocabulary_simplified": {"technical_term": "simple_explanation"}
}

Create an age-appropriate summary for %d-year-olds.`, targetAge, truncate(content, 1500), domain, targetAge)

	return g.generateJSON(ctx, prompt)
}

// FindSimilarPapers asks the service for related published work.
func (g *Gemini) FindSimilarPapers(ctx context.Context, content string, analysis *model.Analysis) ([]model.SimilarPaper, error) {
	domain := ""
	if analysis != nil {
		domain = analysis.DomainPrimary
	}
	prompt := fmt.Sprintf(`Role: Research Intelligence Analyst & Academic Database Curator
Context: Find published papers closely related to the given research.

Research Content: %s...
Research Domain: %s

OUTPUT FORMAT (JSON only): an array of up to 5 entries:
[
  {
    "title": "Paper Title",
    "similarity_score": 0.92,
    "url": "https://example.org/paper",
    "doi": "10.0000/example"
  }
]`, truncate(content, 1500), domain)

	raw, err := g.generateJSON(ctx, prompt)
	if err != nil {
		return nil, err
	}
	var papers []model.SimilarPaper
	if err := json.Unmarshal(raw, &papers); err != nil {
		return nil, fmt.Errorf("%w: decode similar papers: %v", ErrServiceFailed, err)
	}
	return papers, nil
}

// GenerateCode produces an implementation of the paper's methodology in the
// requested language and framework.
func (g *Gemini) GenerateCode(ctx context.Context, content, language, framework string, analysis *model.Analysis) (json.RawMessage, error) {
	methodologies := ""
	if analysis != nil {
		methodologies = strings.Join(analysis.KeyMethodologies, ", ")
	}
	prompt := fmt.Sprintf(`Role: Research Software Engineer
Context: Implement the methodology of a research paper as working code.

Target Language: %s
Target Framework: %s
Key Methodologies: %s
Research Content: %s...

OUTPUT FORMAT (JSON only):
{
  "main_implementation": "...",
  "test_suite": "...",
  "documentation": "...",
  "requirements": ["dep1", "dep2"]
}`, language, framework, methodologies, truncate(content, 1500))

	return g.generateJSON(ctx, prompt)
}

// GenerateVisualization suggests a visualization config for the paper's
// findings. The config is opaque to the store.
func (g *Gemini) GenerateVisualization(ctx context.Context, content, vizType string, analysis *model.Analysis) (json.RawMessage, error) {
	domain := ""
	if analysis != nil {
		domain = analysis.DomainPrimary
	}
	prompt := fmt.Sprintf(`Role: Data Visualization Designer
Context: Propose a visualization of a research paper's key findings.

Visualization Type: %s
Research Domain: %s
Research Content: %s...

OUTPUT FORMAT (JSON only):
{
  "chart_type": "bar",
  "title": "...",
  "x_axis": "...",
  "y_axis": "...",
  "data": []
}`, vizType, domain, truncate(content, 1500))

	return g.generateJSON(ctx, prompt)
}
