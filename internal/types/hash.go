package types

import (
	"crypto/sha256"
)

// Hash 是 sha256 摘要，discriminator 取其前缀
type Hash [32]byte

// Sha256 对各段输入顺序拼接后求 sha256
func Sha256(parts ...string) Hash {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
	}
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

// Prefix8 返回摘要前 8 字节
func (h Hash) Prefix8() [8]byte {
	var out [8]byte
	copy(out[:], h[:8])
	return out
}
