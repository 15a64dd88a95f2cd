package translator

import "strings"

// Language 是一个受支持的语言条目。
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// supportedLanguages 是静态的受支持语言注册表。
var supportedLanguages = []Language{
	{Code: "en", Name: "English"},
	{Code: "es", Name: "Spanish"},
	{Code: "zh", Name: "Chinese"},
	{Code: "ar", Name: "Arabic"},
	{Code: "fr", Name: "French"},
	{Code: "de", Name: "German"},
	{Code: "pt", Name: "Portuguese"},
	{Code: "ru", Name: "Russian"},
	{Code: "hi", Name: "Hindi"},
	{Code: "vi", Name: "Vietnamese"},
	{Code: "ko", Name: "Korean"},
	{Code: "ja", Name: "Japanese"},
	{Code: "it", Name: "Italian"},
	{Code: "nl", Name: "Dutch"},
}

// SupportedLanguages 返回受支持语言列表的副本。
func SupportedLanguages() []Language {
	out := make([]Language, len(supportedLanguages))
	copy(out, supportedLanguages)
	return out
}

// LanguageName 根据语言代码查找显示名称，未知代码回退为首字母大写的代码本身。
func LanguageName(code string) string {
	for _, lang := range supportedLanguages {
		if lang.Code == code {
			return lang.Name
		}
	}
	if code == "" {
		return ""
	}
	return strings.ToUpper(code[:1]) + code[1:]
}

// LanguageCode 根据显示名称反查语言代码，供选择界面使用。未知名称返回空串。
func LanguageCode(name string) string {
	for _, lang := range supportedLanguages {
		if lang.Name == name {
			return lang.Code
		}
	}
	return ""
}
