package naming

// reserved 包含 Go 关键字与预声明标识符，小写标识符与之冲突时需要转义
var reserved = map[string]struct{}{
	// 关键字
	"break": {}, "case": {}, "chan": {}, "const": {}, "continue": {}, "default": {},
	"defer": {}, "else": {}, "fallthrough": {}, "for": {}, "func": {}, "go": {}, "goto": {},
	"if": {}, "import": {}, "interface": {}, "map": {}, "package": {}, "range": {},
	"return": {}, "select": {}, "struct": {}, "switch": {}, "type": {}, "var": {},

	// 预声明标识符
	"any": {}, "append": {}, "bool": {}, "byte": {}, "cap": {}, "clear": {}, "close": {},
	"comparable": {}, "complex": {}, "complex64": {}, "complex128": {}, "copy": {},
	"delete": {}, "error": {}, "false": {}, "float32": {}, "float64": {}, "imag": {},
	"int": {}, "int8": {}, "int16": {}, "int32": {}, "int64": {}, "iota": {}, "len": {},
	"make": {}, "max": {}, "min": {}, "new": {}, "nil": {}, "panic": {}, "print": {},
	"println": {}, "real": {}, "recover": {}, "rune": {}, "string": {}, "true": {},
	"uint": {}, "uint8": {}, "uint16": {}, "uint32": {}, "uint64": {}, "uintptr": {},
}

// IsReserved 判断标识符是否为 Go 保留字或预声明标识符
func IsReserved(s string) bool {
	_, ok := reserved[s]
	return ok
}

// Escape 对保留字追加下划线
func Escape(s string) string {
	if IsReserved(s) {
		return s + "_"
	}
	return s
}
