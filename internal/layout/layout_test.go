package layout

import (
	"ask-relay/internal/config"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForPlaywright(t *testing.T) {
	tests := []struct {
		name     string
		selector string
		want     string
	}{
		{"parenthesised xpath", DefaultAnswerSelector, "xpath=" + DefaultAnswerSelector},
		{"absolute xpath", DefaultInputSelector, "xpath=" + DefaultInputSelector},
		{"already prefixed", "xpath=//div", "xpath=//div"},
		{"css untouched", "textarea.ask", "textarea.ask"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ForPlaywright(tt.selector))
		})
	}
}

func TestBare(t *testing.T) {
	assert.Equal(t, "//div", Bare("xpath=//div"))
	assert.Equal(t, "//div", Bare("//div"))
}

func TestFromConfig(t *testing.T) {
	l := FromConfig(&config.Config{RetrievalConfig: &config.RetrievalConfig{
		AnswerSelector: "  //article[last()]  ",
	}})

	assert.Equal(t, DefaultInputSelector, l.InputSelector)
	assert.Equal(t, "//article[last()]", l.AnswerSelector)
	assert.Equal(t, Default(), FromConfig(nil))
}
