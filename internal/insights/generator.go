package insights

import (
	"context"
	"time"

	"github.com/noknok06/stock-dialy-sub000/internal/llm"
	"github.com/noknok06/stock-dialy-sub000/internal/shared/telemetry"
)

// Point is one investor-facing takeaway.
type Point struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Source      string `json:"source"` // llm or fallback
}

// Metadata records how the points were produced.
type Metadata struct {
	APIAvailable        bool   `json:"api_available"`
	APISuccess          bool   `json:"api_success"`
	FallbackUsed        bool   `json:"fallback_used"`
	GenerationTimestamp string `json:"generation_timestamp"`
	PointsCount         int    `json:"points_count"`
	ModelUsed           string `json:"model_used"`
	ErrorMessage        string `json:"error_message,omitempty"`
}

// Insights is the generated point list plus provenance metadata.
type Insights struct {
	InvestmentPoints []Point  `json:"investment_points"`
	Metadata         Metadata `json:"metadata"`
}

// Input carries the analysis outcome the points are derived from.
type Input struct {
	DocID           string
	CompanyName     string
	DocDescription  string
	SentimentScore  *float64
	SentimentLabel  string
	HealthScore     *float64
	RiskLevel       string
	CashflowPattern string
	TopPositive     []string
	TopNegative     []string
}

const (
	minPoints = 3
	maxPoints = 5
)

// Generator produces investment points from an analysis result, calling
// the LLM when available and topping up from deterministic fallbacks.
// Generate never returns an error; failures surface in the metadata.
type Generator struct {
	LLM llm.Client
}

func NewGenerator(client llm.Client) *Generator {
	if client == nil {
		client = llm.PlaceholderClient{}
	}
	return &Generator{LLM: client}
}

func (g *Generator) Generate(ctx context.Context, in Input) *Insights {
	out := &Insights{
		Metadata: Metadata{
			GenerationTimestamp: time.Now().UTC().Format(time.RFC3339),
			ModelUsed:           g.LLM.Model(),
		},
	}
	_, placeholder := g.LLM.(llm.PlaceholderClient)
	out.Metadata.APIAvailable = !placeholder

	if out.Metadata.APIAvailable {
		raw, err := g.LLM.GenerateText(ctx, buildPrompt(in))
		if err != nil {
			out.Metadata.ErrorMessage = err.Error()
			telemetry.Warn("insights.llm_failed", map[string]any{
				"doc_id": in.DocID,
				"error":  err.Error(),
			})
		} else {
			points := parsePoints(raw)
			if len(points) > 0 {
				out.Metadata.APISuccess = true
				out.InvestmentPoints = points
			} else {
				out.Metadata.ErrorMessage = "no points parsed from LLM output"
			}
		}
	}

	if len(out.InvestmentPoints) < minPoints {
		out.Metadata.FallbackUsed = true
		out.InvestmentPoints = topUp(out.InvestmentPoints, fallbackPoints(in))
	}
	if len(out.InvestmentPoints) > maxPoints {
		out.InvestmentPoints = out.InvestmentPoints[:maxPoints]
	}
	out.Metadata.PointsCount = len(out.InvestmentPoints)
	return out
}

// topUp appends fallback points until the minimum is reached, skipping
// titles already present.
func topUp(points, fallback []Point) []Point {
	seen := map[string]bool{}
	for _, p := range points {
		seen[p.Title] = true
	}
	for _, p := range fallback {
		if len(points) >= minPoints {
			break
		}
		if seen[p.Title] {
			continue
		}
		seen[p.Title] = true
		points = append(points, p)
	}
	return points
}
