package utils

import (
	"strconv"
	"strings"
)

// ByteArrayLiteral 生成 Go 复合字面量："[8]byte{0xaf, 0xaf, ...}"
func ByteArrayLiteral(b []byte) string {
	var sb strings.Builder
	sb.WriteString("[")
	sb.WriteString(strconv.Itoa(len(b)))
	sb.WriteString("]byte{")
	for i, v := range b {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("0x")
		if v < 0x10 {
			sb.WriteByte('0')
		}
		sb.WriteString(strconv.FormatUint(uint64(v), 16))
	}
	sb.WriteString("}")
	return sb.String()
}

// HexUint 把不超过 8 字节的 discriminator 按大端拼成 "0x..." 整数字面量，
// 与 binary.BigEndian.Uint64 / data[0] 的 switch 分发对应
func HexUint(b []byte) string {
	var n uint64
	for _, v := range b {
		n = n<<8 | uint64(v)
	}
	width := len(b) * 2
	s := strconv.FormatUint(n, 16)
	if pad := width - len(s); pad > 0 {
		s = strings.Repeat("0", pad) + s
	}
	return "0x" + s
}
