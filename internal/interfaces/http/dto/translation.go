package dto

// TranslateRequest 翻译请求，text 与 data 至少提供一个
type TranslateRequest struct {
	Text       *string `json:"text,omitempty"`
	Data       any     `json:"data,omitempty"`
	SourceLang string  `json:"source_lang,omitempty"`
	TargetLang string  `json:"target_lang,omitempty"`
}

// TranslateResponse 翻译响应
type TranslateResponse struct {
	Text       *string `json:"text,omitempty"`
	Data       any     `json:"data,omitempty"`
	SourceLang string  `json:"source_lang"`
	TargetLang string  `json:"target_lang"`
}
