package consts

const (
	DialectAnchor = iota + 1 // 1
	DialectShank             // 2
)

var DialectNames = []string{
	"unknown", // 0 (保留)
	"anchor",  // 1
	"shank",   // 2
}

func DialectName(d int) string {
	if d >= 1 && d < len(DialectNames) {
		return DialectNames[d]
	}
	return DialectNames[0] // unknown
}

// ShankOrigin shank 生成的 IDL 在 metadata.origin 中带此标记
const ShankOrigin = "shank"
