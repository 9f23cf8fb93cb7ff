package i18n

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
)

// 支持的语言
const (
	LocaleZH = "zh-CN"
	LocaleEN = "en-US"

	defaultLocale = LocaleZH
)

// ResolveLocale 从请求中解析语言，优先 query lang，其次 Accept-Language
func ResolveLocale(c *gin.Context) string {
	if c == nil {
		return defaultLocale
	}
	if lang := strings.TrimSpace(c.Query("lang")); lang != "" {
		return NormalizeLocale(lang)
	}
	if c.Request == nil {
		return defaultLocale
	}
	header := c.GetHeader("Accept-Language")
	if header == "" {
		return defaultLocale
	}
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if tag == "" || tag == "*" {
			continue
		}
		return NormalizeLocale(tag)
	}
	return defaultLocale
}

// NormalizeLocale 归一化语言标识，未知语言回退到默认
func NormalizeLocale(raw string) string {
	lower := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.HasPrefix(lower, "en"):
		return LocaleEN
	case strings.HasPrefix(lower, "zh"):
		return LocaleZH
	default:
		return defaultLocale
	}
}

// T 翻译消息 key，缺失时依次回退到默认语言与 key 本身
func T(locale, key string) string {
	if table, ok := messages[NormalizeLocale(locale)]; ok {
		if msg, ok := table[key]; ok {
			return msg
		}
	}
	if msg, ok := messages[defaultLocale][key]; ok {
		return msg
	}
	return key
}

// Sprintf 翻译并格式化
func Sprintf(locale, key string, args ...interface{}) string {
	return fmt.Sprintf(T(locale, key), args...)
}
