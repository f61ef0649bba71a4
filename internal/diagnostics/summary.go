package diagnostics

import (
	"ask-relay/internal/entity"
	"ask-relay/internal/layout"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Summarize digests captured HTML so layout drift shows up in logs without reading the page dump.
func Summarize(html string) (entity.PageSummary, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return entity.PageSummary{}, err
	}

	summary := entity.PageSummary{
		Title:        strings.TrimSpace(doc.Find("title").First().Text()),
		InputPresent: doc.Find(layout.InputCSS).Length() > 0,
	}

	doc.Find(layout.TurnsCSS).Each(func(_ int, turn *goquery.Selection) {
		summary.TurnCount++

		// XPath positions are 1-based among sibling divs; odd ones are answers.
		if turn.PrevAllFiltered("div").Length()%2 == 0 {
			summary.AnswerTurns++
		}
	})

	return summary, nil
}
