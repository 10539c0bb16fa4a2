package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const cyberpunkPrompt = "A photorealistic portrait of a cyberpunk character with neon blue hair, cinematic lighting, high quality, 8k resolution"

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Quality
	}{
		{"single word is too short", "a", QualityBad},
		{"empty string", "", QualityBad},
		{"whitespace only", "   \t\n", QualityBad},
		{"all five signals", cyberpunkPrompt, QualityGood},
		{"vague and short", "Something cool", QualityBad},
		{"vague word under eight words", "A nice scene with warm lighting", QualityBad},
		{"score of two is not enough", "A detailed digital painting of a dragon", QualityBad},
		{"details style and subject", "A digital painting of a mountain landscape at sunset", QualityGood},
		{"long but plain", "my dog sitting on the couch next to the window in the afternoon", QualityBad},
		{"case insensitive keywords", "CINEMATIC PORTRAIT of an old man, DRAMATIC LIGHTING, SHARP", QualityGood},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.text))
		})
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	for _, text := range []string{"", "a", "Something cool", cyberpunkPrompt} {
		first := Analyze(text)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, Analyze(text))
		}
	}
}

func TestAnalyzeExposesSignals(t *testing.T) {
	a := Analyze(cyberpunkPrompt)

	assert.Equal(t, 17, a.WordCount)
	assert.Equal(t, 5, a.Score)
	assert.Equal(t, Signals{true, true, true, true, true}, a.Signals)
	assert.Equal(t, Disqualifiers{}, a.Disqualifiers)
	assert.Equal(t, feedbackGood, a.Feedback)
	assert.Equal(t, hintGood, a.Hint)

	bad := Analyze("Something cool")
	assert.Equal(t, 2, bad.WordCount)
	assert.True(t, bad.Disqualifiers.TooShort)
	assert.True(t, bad.Disqualifiers.TooVague)
	assert.True(t, bad.Disqualifiers.NoDetails)
	assert.Equal(t, feedbackBad, bad.Feedback)
}

func TestWordCount(t *testing.T) {
	assert.Equal(t, 1, WordCount(""))
	assert.Equal(t, 1, WordCount("   "))
	assert.Equal(t, 2, WordCount("  A \n picture\t"))
	assert.Equal(t, 2, WordCount("a\u00a0\u00a0cat"))
	assert.Equal(t, 3, WordCount("neon\u3000city\u2003skyline"))
	assert.Equal(t, 1, WordCount("\u3000\ufeff"))
}

func TestQualityString(t *testing.T) {
	assert.Equal(t, "unknown", QualityUnknown.String())
	assert.Equal(t, "good", QualityGood.String())
}

func TestCustomRuleSet(t *testing.T) {
	rules := DefaultRules
	rules.Language = "test"
	rules.Style = NewRule("style", "anime")

	c := NewClassifier(rules)
	a := c.Analyze("anime portrait of a samurai in the rain at night")
	assert.True(t, a.Signals.HasStyle)
	assert.Equal(t, QualityGood, a.Quality)

	// default rules are untouched
	assert.False(t, Analyze("anime portrait").Signals.HasStyle)
}
