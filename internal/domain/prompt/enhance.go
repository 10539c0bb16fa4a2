package prompt

import (
	"regexp"
	"strings"
)

// Improvement 一处注入的增强片段
// [StartIndex, EndIndex) 为 Enhanced 中的字节区间；注入片段均为 ASCII，字节偏移即字符偏移
type Improvement struct {
	InsertedText string `json:"inserted_text"`
	Reason       string `json:"reason"`
	StartIndex   int    `json:"start_index"`
	EndIndex     int    `json:"end_index"`
}

// Enhancement 增强结果
type Enhancement struct {
	Original     string        `json:"original"`
	Enhanced     string        `json:"enhanced"`
	Improvements []Improvement `json:"improvements"`
}

// Changed 是否注入了任何片段
func (e Enhancement) Changed() bool {
	return len(e.Improvements) > 0
}

const clauseSep = ", "

// space 空白字符集：regexp 的 \s 只含 ASCII，这里补上 NBSP、全角空格等 Unicode 分隔符与 BOM
const space = `[\t\n\v\f\r \p{Z}\x{FEFF}]`

var (
	repeatedCommas = regexp.MustCompile(`,` + space + `*,`)
	repeatedSpaces = regexp.MustCompile(space + `+`)
)

// collapseSpace 把空白连续段合并为单个空格并去除首尾空白
func collapseSpace(s string) string {
	return strings.Trim(repeatedSpaces.ReplaceAllString(s, " "), " ")
}

// cleanup 合并重复逗号与空白并去除首尾空白
func cleanup(s string) string {
	return collapseSpace(repeatedCommas.ReplaceAllString(s, ","))
}

// Enhancer 确定性的提示词增强器
type Enhancer struct {
	rules RuleSet
}

// NewEnhancer 创建增强器
func NewEnhancer(rules RuleSet) *Enhancer {
	return &Enhancer{rules: rules}
}

// Enhance 按规则表顺序检查缺口，把缺失的片段依次前置到原文之前
//
// 空白输入直接返回（不注入任何片段）。
// 注入片段的区间在拼接时记录，而不是事后在结果中搜索。
func (e *Enhancer) Enhance(text string) Enhancement {
	result := Enhancement{
		Original:     text,
		Improvements: []Improvement{},
	}
	if collapseSpace(text) == "" {
		result.Enhanced = ""
		return result
	}

	wordCount := WordCount(text)

	var b strings.Builder
	for _, gap := range e.rules.Gaps {
		if !gap.triggered(text, wordCount) {
			continue
		}
		start := b.Len()
		b.WriteString(gap.Clause)
		result.Improvements = append(result.Improvements, Improvement{
			InsertedText: gap.Clause,
			Reason:       gap.Reason,
			StartIndex:   start,
			EndIndex:     b.Len(),
		})
		b.WriteString(clauseSep)
	}
	b.WriteString(text)

	result.Enhanced = cleanup(b.String())
	result.Improvements = realign(result.Enhanced, result.Improvements)
	return result
}

// realign 校验记录的区间；仅当自定义片段本身会被 cleanup 改写时才需要重新定位，
// 此时从上一片段的结尾向后查找，保证区间有序且不重叠
func realign(enhanced string, imps []Improvement) []Improvement {
	from := 0
	for i := range imps {
		imp := &imps[i]
		if imp.StartIndex >= from && imp.EndIndex <= len(enhanced) &&
			enhanced[imp.StartIndex:imp.EndIndex] == imp.InsertedText {
			from = imp.EndIndex
			continue
		}

		text := cleanup(imp.InsertedText)
		idx := strings.Index(enhanced[from:], text)
		if idx < 0 {
			imp.StartIndex, imp.EndIndex = -1, -1
			continue
		}
		imp.InsertedText = text
		imp.StartIndex = from + idx
		imp.EndIndex = imp.StartIndex + len(text)
		from = imp.EndIndex
	}
	return imps
}

var defaultEnhancer = NewEnhancer(DefaultRules)

// Enhance 使用默认规则集增强
func Enhance(text string) Enhancement {
	return defaultEnhancer.Enhance(text)
}
