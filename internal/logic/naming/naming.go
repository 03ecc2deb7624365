// Package naming 负责把 IDL 中的自由格式标识符转换为生成代码所需的命名风格。
//
// 分词规则与 anchor 客户端一致：下划线/连字符/空白/点号为分隔符，
// 小写或数字后接大写处断开，连续大写后接"大写+小写"时在最后一个大写前断开。
// 数字不单独成词（"swap2Pool" → swap2, pool）。
package naming

import (
	"strings"
	"unicode"
)

// Words 把标识符拆分为单词，保留各单词原有大小写
func Words(s string) []string {
	var words []string
	runes := []rune(s)
	start := -1
	flush := func(end int) {
		if start >= 0 && end > start {
			words = append(words, string(runes[start:end]))
		}
		start = -1
	}
	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush(i)
			continue
		}
		if start < 0 {
			start = i
			continue
		}
		prev := runes[i-1]
		switch {
		case unicode.IsUpper(r) && (unicode.IsLower(prev) || unicode.IsDigit(prev)):
			flush(i)
			start = i
		case unicode.IsUpper(r) && unicode.IsUpper(prev) &&
			i+1 < len(runes) && unicode.IsLower(runes[i+1]):
			flush(i)
			start = i
		}
	}
	flush(len(runes))
	return words
}

// SnakeCase "initializeV2" → "initialize_v2"，用于 anchor 指令 discriminator 的原像
func SnakeCase(s string) string {
	words := Words(s)
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
	return strings.Join(words, "_")
}

// PascalCase 按非字母数字分隔，每段首字母大写，其余保持原样（连续大写不被压平）。
// "my_state" → "MyState"，"HTTPState" → "HTTPState"。
// anchor 账户/事件 discriminator 与生成代码中的类型名都用它。
func PascalCase(s string) string {
	var b strings.Builder
	upperNext := true
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upperNext = true
			continue
		}
		if upperNext {
			b.WriteRune(unicode.ToUpper(r))
			upperNext = false
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Exported 生成可导出的 Go 标识符（类型名、字段名、常量名）。
// 空串返回空串，由调用方报错；首字符无法大写（数字、非拉丁文字）时加 "X" 前缀。
func Exported(s string) string {
	p := PascalCase(StripGenerics(s))
	if p == "" {
		return ""
	}
	first := []rune(p)[0]
	if !unicode.IsUpper(first) {
		return "X" + p
	}
	return p
}

// Constant 常量名：按单词拆分后逐词首字母大写、其余小写。"MAX_COUNT" → "MaxCount"
func Constant(s string) string {
	var b strings.Builder
	for _, w := range Words(s) {
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		b.WriteString(string(r))
	}
	out := b.String()
	if out == "" {
		return ""
	}
	if first := []rune(out)[0]; !unicode.IsUpper(first) {
		return "X" + out
	}
	return out
}

// PackageName 生成包名：全小写、去掉分隔符
func PackageName(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	name := b.String()
	if name == "" {
		return "program"
	}
	if first := []rune(name)[0]; !unicode.IsLetter(first) {
		name = "p" + name
	}
	return Escape(name)
}

// StripGenerics 去掉类型名上的泛型参数："Foo<'info>" → "Foo"
func StripGenerics(s string) string {
	if i := strings.IndexByte(s, '<'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}

// GenericArgs 返回类型名上的泛型实参列表："Foo<'a, T>" → ["'a", "T"]
func GenericArgs(s string) []string {
	i := strings.IndexByte(s, '<')
	if i < 0 || !strings.HasSuffix(s, ">") {
		return nil
	}
	inner := s[i+1 : len(s)-1]
	var out []string
	for _, part := range strings.Split(inner, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
