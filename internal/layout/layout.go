// Package layout holds the selectors that couple ask-relay to the target page's DOM.
// When the page changes, this is the only place that needs editing.
package layout

import (
	"ask-relay/internal/config"
	"ask-relay/internal/entity"
	"strings"
)

const (
	// DefaultInputSelector is the question textarea, found by its placeholder.
	DefaultInputSelector = `//textarea[@placeholder="Ask anything..."]`

	// DefaultAnswerSelector picks the newest answer turn. Turns alternate
	// question/answer, so answers sit at odd positions of the transcript.
	DefaultAnswerSelector = `(//html/body/div[1]/main/div/div/div[2]/div/div/div/div/div[position() mod 2 = 1]/div/div/div[1])[last()]`

	// CSS twins of the selectors above, for parsing captured HTML offline.
	InputCSS = `textarea[placeholder="Ask anything..."]`
	TurnsCSS = `body > div:nth-of-type(1) > main > div > div > div:nth-of-type(2) > div > div > div > div > div`

	xpathPrefix = "xpath="
)

func Default() entity.Layout {
	return entity.Layout{
		InputSelector:  DefaultInputSelector,
		AnswerSelector: DefaultAnswerSelector,
	}
}

// FromConfig applies selector overrides on top of the defaults.
func FromConfig(conf *config.Config) entity.Layout {
	l := Default()

	if conf == nil || conf.RetrievalConfig == nil {
		return l
	}

	if s := strings.TrimSpace(conf.RetrievalConfig.InputSelector); s != "" {
		l.InputSelector = s
	}
	if s := strings.TrimSpace(conf.RetrievalConfig.AnswerSelector); s != "" {
		l.AnswerSelector = s
	}

	return l
}

// IsXPath reports whether a selector is an XPath expression.
func IsXPath(selector string) bool {
	s := strings.TrimSpace(selector)

	return strings.HasPrefix(s, xpathPrefix) ||
		strings.HasPrefix(s, "/") ||
		strings.HasPrefix(s, "(") ||
		strings.HasPrefix(s, "..")
}

// ForPlaywright makes the selector engine explicit; playwright only
// auto-detects XPath for selectors that start with "//".
func ForPlaywright(selector string) string {
	s := strings.TrimSpace(selector)
	if strings.HasPrefix(s, xpathPrefix) || !IsXPath(s) {
		return s
	}

	return xpathPrefix + s
}

// Bare strips an explicit xpath engine prefix.
func Bare(selector string) string {
	return strings.TrimPrefix(strings.TrimSpace(selector), xpathPrefix)
}
