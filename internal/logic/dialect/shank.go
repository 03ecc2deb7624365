package dialect

import (
	"solana-idlgen/internal/utils"
)

// shankDiscriminant 读取 shank 的 discriminant: {type: "u8", value: N}，缺失时返回 nil，
// 由 discriminator 包按声明位置补齐
func (p *parser) shankDiscriminant(m map[string]any, path string) (*uint8, error) {
	v, ok := m["discriminant"]
	if !ok || v == nil {
		return nil, nil
	}
	dp := at(path, "discriminant")
	d, err := p.object(v, dp)
	if err != nil {
		return nil, err
	}
	if t, _ := utils.AsString(d["type"]); t != "" && t != "u8" {
		return nil, p.malformed(at(dp, "type"), "unsupported discriminant type %q, only u8", t)
	}
	n, ok := utils.AsInt64(d["value"])
	if !ok || n < 0 || n > 0xff {
		return nil, p.malformed(at(dp, "value"), "discriminant must be an integer in [0, 255]")
	}
	b := uint8(n)
	return &b, nil
}
