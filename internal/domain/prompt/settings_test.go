package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	assert.Equal(t, 7.5, s.GuidanceScale)
	assert.Equal(t, 20, s.NumInferenceSteps)
	assert.Equal(t, "16:9", s.AspectRatio)
	assert.Equal(t, 1344, s.Width)
	assert.Equal(t, 768, s.Height)
	assert.Contains(t, s.NegativePrompt, "watermark")
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   GenerationSettings
		want GenerationSettings
	}{
		{
			name: "zero value gets defaults",
			in:   GenerationSettings{},
			want: GenerationSettings{GuidanceScale: 7.5, NumInferenceSteps: 20, Width: 1024, Height: 1024},
		},
		{
			name: "out of range values are clamped",
			in:   GenerationSettings{GuidanceScale: 25, NumInferenceSteps: 5, Width: 4096, Height: 10},
			want: GenerationSettings{GuidanceScale: 20, NumInferenceSteps: 10, Width: 2048, Height: 64},
		},
		{
			name: "known aspect ratio wins over explicit size",
			in:   GenerationSettings{AspectRatio: "2:3", Width: 500, Height: 500, NegativePrompt: "blurry"},
			want: GenerationSettings{AspectRatio: "2:3", Width: 832, Height: 1216, GuidanceScale: 7.5, NumInferenceSteps: 20, NegativePrompt: "blurry"},
		},
		{
			name: "unknown aspect ratio is dropped",
			in:   GenerationSettings{AspectRatio: "4:5", Width: 900, Height: 1100, GuidanceScale: 3, NumInferenceSteps: 30},
			want: GenerationSettings{Width: 900, Height: 1100, GuidanceScale: 3, NumInferenceSteps: 30},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize())
		})
	}
}

func TestApplyAspectRatio(t *testing.T) {
	var s GenerationSettings
	assert.True(t, s.ApplyAspectRatio("9:16"))
	assert.Equal(t, 768, s.Width)
	assert.Equal(t, 1344, s.Height)

	assert.False(t, s.ApplyAspectRatio("bogus"))
	assert.Equal(t, "9:16", s.AspectRatio)
}
