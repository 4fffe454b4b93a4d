package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/buildyoursite/buildyoursite-engine/pkg/models"
)

func TestExtractHTML(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{"plain document", "  <!DOCTYPE html><html></html>\n", "<!DOCTYPE html><html></html>"},
		{"html fence", "Here you go:\n```html\n<div>hi</div>\n```\nEnjoy!", "<div>hi</div>"},
		{"bare fence", "```\n<p>x</p>\n```", "<p>x</p>"},
		{"think tags", "<think>plan the page</think>\n<main>ok</main>", "<main>ok</main>"},
		{"prose before doctype", "Sure! <!doctype html><html></html>", "<!doctype html><html></html>"},
		{"fragment", "<section>a</section>", "<section>a</section>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractHTML(tt.response))
		})
	}
}

func TestSystemPrompt(t *testing.T) {
	assert.Equal(t, fullPagePrompt, SystemPrompt(models.GenerationTypeFullPage))
	assert.Equal(t, componentPrompt, SystemPrompt(models.GenerationTypeComponent))
	assert.Equal(t, layoutPrompt, SystemPrompt(models.GenerationTypeLayout))
	assert.Equal(t, contentPrompt, SystemPrompt(models.GenerationTypeContent))
	assert.Equal(t, fullPagePrompt, SystemPrompt(models.GenerationTypeStyle))
	assert.Equal(t, fullPagePrompt, SystemPrompt(models.GenerationTypeOther))
}
