package prompt

// Quality 提示词质量
type Quality string

const (
	QualityUnknown Quality = ""
	QualityGood    Quality = "good"
	QualityBad     Quality = "bad"
)

// String 返回可读值，未评估时为 "unknown"
func (q Quality) String() string {
	if q == QualityUnknown {
		return "unknown"
	}
	return string(q)
}

// Signals 正向信号
type Signals struct {
	HasDetails     bool `json:"has_details"`
	HasStyle       bool `json:"has_style"`
	HasSubject     bool `json:"has_subject"`
	HasQuality     bool `json:"has_quality"`
	HasComposition bool `json:"has_composition"`
}

// Score 正向信号命中数 (0-5)
func (s Signals) Score() int {
	score := 0
	for _, hit := range []bool{s.HasDetails, s.HasStyle, s.HasSubject, s.HasQuality, s.HasComposition} {
		if hit {
			score++
		}
	}
	return score
}

// Disqualifiers 负向判定
type Disqualifiers struct {
	TooShort  bool `json:"too_short"`
	TooVague  bool `json:"too_vague"`
	NoDetails bool `json:"no_details"`
}

// Analysis 一次完整的质量评估结果
type Analysis struct {
	Quality       Quality       `json:"quality"`
	WordCount     int           `json:"word_count"`
	Score         int           `json:"score"`
	Signals       Signals       `json:"signals"`
	Disqualifiers Disqualifiers `json:"disqualifiers"`
	Feedback      string        `json:"feedback"`
	Hint          string        `json:"hint"`
}

const (
	feedbackGood = "Excellent! Your prompt is detailed and specific. This will help the AI understand exactly what you want."
	hintGood     = "Great job! You included style, subject, and quality details."
	feedbackBad  = "Your prompt could be more specific. Try adding details about style, composition, lighting, or quality."
	hintBad      = "Tip: Include specific details like 'photorealistic', 'cinematic lighting', or 'high quality' to get better results."
)

// Classifier 基于规则的提示词质量分类器
type Classifier struct {
	rules RuleSet
}

// NewClassifier 创建分类器
func NewClassifier(rules RuleSet) *Classifier {
	return &Classifier{rules: rules}
}

// Analyze 评估提示词并返回全部中间信号
func (c *Classifier) Analyze(text string) Analysis {
	wordCount := WordCount(text)

	signals := Signals{
		HasDetails:     wordCount >= detailsMinWords,
		HasStyle:       c.rules.Style.Match(text),
		HasSubject:     c.rules.Subject.Match(text),
		HasQuality:     c.rules.Quality.Match(text),
		HasComposition: c.rules.Composition.Match(text),
	}
	dq := Disqualifiers{
		TooShort:  wordCount < tooShortMaxWords,
		TooVague:  c.rules.Vague.Match(text) && wordCount < vagueMaxWords,
		NoDetails: !signals.HasStyle && !signals.HasQuality && wordCount < noDetailsMaxWords,
	}
	score := signals.Score()

	a := Analysis{
		WordCount:     wordCount,
		Score:         score,
		Signals:       signals,
		Disqualifiers: dq,
		Quality:       decide(signals, dq, score),
	}
	if a.Quality == QualityGood {
		a.Feedback, a.Hint = feedbackGood, hintGood
	} else {
		a.Feedback, a.Hint = feedbackBad, hintBad
	}
	return a
}

// Classify 仅返回质量结论
func (c *Classifier) Classify(text string) Quality {
	return c.Analyze(text).Quality
}

// decide 按固定顺序做出判定：先否决，再认可，其余为 bad
func decide(s Signals, dq Disqualifiers, score int) Quality {
	if dq.TooShort || dq.TooVague || (dq.NoDetails && score < weakScoreMax) {
		return QualityBad
	}
	if score >= goodScoreMin || (s.HasDetails && s.HasStyle && s.HasSubject) {
		return QualityGood
	}
	return QualityBad
}

var defaultClassifier = NewClassifier(DefaultRules)

// Classify 使用默认规则集分类
func Classify(text string) Quality {
	return defaultClassifier.Classify(text)
}

// Analyze 使用默认规则集评估
func Analyze(text string) Analysis {
	return defaultClassifier.Analyze(text)
}
