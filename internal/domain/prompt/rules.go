// Package prompt 提供提示词质量评估与增强的领域逻辑
//
// 所有函数均为纯函数：无共享可变状态、无 I/O，可在任意 goroutine 中并发调用。
package prompt

import (
	"regexp"
	"strings"
)

// Rule 关键词规则：命中任一关键词即视为匹配（大小写不敏感的子串匹配）
type Rule struct {
	Name     string
	Keywords []string
	re       *regexp.Regexp
}

// NewRule 创建并编译规则
func NewRule(name string, keywords ...string) Rule {
	quoted := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		quoted = append(quoted, regexp.QuoteMeta(kw))
	}
	return Rule{
		Name:     name,
		Keywords: keywords,
		re:       regexp.MustCompile(`(?i)(?:` + strings.Join(quoted, "|") + `)`),
	}
}

// Match 判断文本是否命中规则
func (r Rule) Match(text string) bool {
	if r.re == nil {
		return false
	}
	return r.re.MatchString(text)
}

// GapCheck 增强阶段的缺口检查：文本缺少 Absent 中的关键词时注入 Clause
// MaxWords > 0 时，仅当词数小于 MaxWords 才触发
type GapCheck struct {
	Absent   Rule
	MaxWords int
	Clause   string
	Reason   string
}

// triggered 判断缺口检查是否触发
func (g GapCheck) triggered(text string, wordCount int) bool {
	if g.MaxWords > 0 && wordCount >= g.MaxWords {
		return false
	}
	return !g.Absent.Match(text)
}

// RuleSet 一组完整的评估与增强规则
type RuleSet struct {
	Language string

	// 分类器信号
	Style       Rule
	Subject     Rule
	Quality     Rule
	Composition Rule
	Vague       Rule

	// 增强缺口检查，按注入顺序排列
	Gaps []GapCheck
}

// 阈值
const (
	detailsMinWords   = 8
	tooShortMaxWords  = 5
	vagueMaxWords     = 8
	noDetailsMaxWords = 10
	goodScoreMin      = 3
	weakScoreMax      = 2
)

// DefaultRules 英文规则集
var DefaultRules = RuleSet{
	Language: "en",

	Style:       NewRule("style", "style", "artistic", "photorealistic", "digital", "painting", "illustration", "cinematic"),
	Subject:     NewRule("subject", "portrait", "landscape", "character", "scene", "object", "animal", "person"),
	Quality:     NewRule("quality", "high quality", "detailed", "sharp", "4k", "8k", "professional"),
	Composition: NewRule("composition", "composition", "lighting", "angle", "perspective", "framing"),
	Vague:       NewRule("vague", "something", "thing", "stuff", "nice", "good", "bad"),

	Gaps: []GapCheck{
		{
			Absent: NewRule("style", "photorealistic", "realistic", "cinematic", "artistic", "digital", "painting", "illustration"),
			Clause: "photorealistic",
			Reason: "Added style keyword to help AI understand the desired aesthetic",
		},
		{
			Absent: NewRule("quality", "high quality", "detailed", "sharp", "4k", "8k", "professional", "ultra"),
			Clause: "high quality, detailed",
			Reason: "Added quality indicators to ensure crisp, professional results",
		},
		{
			Absent: NewRule("lighting", "lighting", "composition", "angle", "perspective", "framing", "cinematic"),
			Clause: "cinematic lighting",
			Reason: "Added lighting description to improve visual composition",
		},
		{
			Absent:   NewRule("detail", "detailed", "intricate", "specific"),
			MaxWords: 10,
			Clause:   "intricate details",
			Reason:   "Added detail keywords to help AI focus on precision",
		},
		{
			Absent:   NewRule("resolution", "4k", "8k", "resolution"),
			MaxWords: 8,
			Clause:   "4k resolution",
			Reason:   "Added resolution specification for higher quality output",
		},
	},
}

// WordCount 统计去除首尾空白后按空白切分的词数
// 空字符串按一个（空）词计，与浏览器端 split 的结果一致
func WordCount(text string) int {
	trimmed := collapseSpace(text)
	if trimmed == "" {
		return 1
	}
	return strings.Count(trimmed, " ") + 1
}
