package insights

import (
	"encoding/json"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
)

// parsePoints extracts investment points from raw LLM output. JSON shapes
// are tried first (repairing malformed output), then "Title: description"
// lines.
func parsePoints(raw string) []Point {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if points := parseJSONPoints(raw); len(points) > 0 {
		return points
	}
	return parseLinePoints(raw)
}

func parseJSONPoints(raw string) []Point {
	if !strings.Contains(raw, "{") && !strings.Contains(raw, "[") {
		return nil
	}
	repaired, err := jsonrepair.RepairJSON(raw)
	if err != nil {
		return nil
	}

	var wrapped struct {
		InvestmentPoints []Point `json:"investment_points"`
	}
	if err := json.Unmarshal([]byte(repaired), &wrapped); err == nil && len(wrapped.InvestmentPoints) > 0 {
		return sanitizePoints(wrapped.InvestmentPoints)
	}

	var list []Point
	if err := json.Unmarshal([]byte(repaired), &list); err == nil {
		return sanitizePoints(list)
	}
	return nil
}

func parseLinePoints(raw string) []Point {
	var out []Point
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*・0123456789.)） ")
		if line == "" {
			continue
		}
		title, desc, ok := splitTitle(line)
		if !ok {
			continue
		}
		out = append(out, Point{Title: title, Description: desc, Source: "llm"})
		if len(out) == maxPoints {
			break
		}
	}
	return out
}

// splitTitle breaks "タイトル: 説明" on the first ASCII or full-width colon.
func splitTitle(line string) (string, string, bool) {
	idx := strings.IndexAny(line, ":：")
	if idx <= 0 {
		return "", "", false
	}
	title := strings.TrimSpace(line[:idx])
	rest := line[idx:]
	// skip the colon rune itself (full-width is 3 bytes)
	for _, r := range rest {
		rest = rest[len(string(r)):]
		break
	}
	desc := strings.TrimSpace(rest)
	if title == "" || desc == "" {
		return "", "", false
	}
	if len([]rune(title)) > 40 {
		return "", "", false
	}
	return title, desc, true
}

func sanitizePoints(in []Point) []Point {
	out := make([]Point, 0, len(in))
	for _, p := range in {
		p.Title = strings.TrimSpace(p.Title)
		p.Description = strings.TrimSpace(p.Description)
		if p.Title == "" || p.Description == "" {
			continue
		}
		p.Source = "llm"
		out = append(out, p)
		if len(out) == maxPoints {
			break
		}
	}
	return out
}
