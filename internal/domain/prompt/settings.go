package prompt

// AspectRatio 画幅预设
type AspectRatio struct {
	Label  string `json:"label"`
	Value  string `json:"value"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// AspectRatios 支持的画幅预设
var AspectRatios = []AspectRatio{
	{Label: "Square (1:1)", Value: "1:1", Width: 1024, Height: 1024},
	{Label: "Portrait (2:3)", Value: "2:3", Width: 832, Height: 1216},
	{Label: "Landscape (3:2)", Value: "3:2", Width: 1216, Height: 832},
	{Label: "Wide (16:9)", Value: "16:9", Width: 1344, Height: 768},
	{Label: "Tall (9:16)", Value: "9:16", Width: 768, Height: 1344},
}

// FindAspectRatio 按值查找画幅预设
func FindAspectRatio(value string) (AspectRatio, bool) {
	for _, r := range AspectRatios {
		if r.Value == value {
			return r, true
		}
	}
	return AspectRatio{}, false
}

// 数值范围
const (
	MinGuidanceScale = 1.0
	MaxGuidanceScale = 20.0
	MinSteps         = 10
	MaxSteps         = 50
	MaxDimension     = 2048
)

// GenerationSettings 图像生成参数，原样转发给外部生成服务
type GenerationSettings struct {
	NegativePrompt    string  `json:"negativePrompt"`
	GuidanceScale     float64 `json:"guidanceScale"`
	NumInferenceSteps int     `json:"numInferenceSteps"`
	Width             int     `json:"width"`
	Height            int     `json:"height"`
	AspectRatio       string  `json:"aspectRatio,omitempty"`
}

// DefaultSettings 默认生成参数
func DefaultSettings() GenerationSettings {
	s := GenerationSettings{
		NegativePrompt:    "blurry, low quality, distorted, ugly, bad anatomy, watermark, signature",
		GuidanceScale:     7.5,
		NumInferenceSteps: 20,
	}
	s.ApplyAspectRatio("16:9")
	return s
}

// ApplyAspectRatio 按预设更新宽高，未知预设返回 false 且不做修改
func (s *GenerationSettings) ApplyAspectRatio(value string) bool {
	r, ok := FindAspectRatio(value)
	if !ok {
		return false
	}
	s.AspectRatio = r.Value
	s.Width = r.Width
	s.Height = r.Height
	return true
}

// Normalize 补全缺省值并把数值限制在允许范围内
// 指定了已知画幅时以画幅为准；宽高为 0 时回退到 1024
func (s GenerationSettings) Normalize() GenerationSettings {
	def := DefaultSettings()

	if s.GuidanceScale == 0 {
		s.GuidanceScale = def.GuidanceScale
	}
	s.GuidanceScale = clampFloat(s.GuidanceScale, MinGuidanceScale, MaxGuidanceScale)

	if s.NumInferenceSteps == 0 {
		s.NumInferenceSteps = def.NumInferenceSteps
	}
	s.NumInferenceSteps = clampInt(s.NumInferenceSteps, MinSteps, MaxSteps)

	if s.AspectRatio != "" && s.ApplyAspectRatio(s.AspectRatio) {
		return s
	}
	s.AspectRatio = ""
	if s.Width <= 0 {
		s.Width = 1024
	}
	if s.Height <= 0 {
		s.Height = 1024
	}
	s.Width = clampInt(s.Width, 64, MaxDimension)
	s.Height = clampInt(s.Height, 64, MaxDimension)
	return s
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
