package dialect

import (
	"solana-idlgen/internal/consts"
	"solana-idlgen/internal/logic/ir"
	"solana-idlgen/internal/utils"
)

// Detect 根据文档结构识别方言：
//   - metadata.origin == "shank"                  → shank
//   - 顶层有 name + instructions 且没有顶层 address → 旧版 anchor
//
// 新版 anchor（顶层 address、显式 discriminator 数组）不做升级，直接拒绝。
func Detect(tree any) (ir.Dialect, error) {
	root, ok := utils.AsMap(tree)
	if !ok {
		return ir.DialectUnknown, &ParseError{
			Kind:   Malformed,
			Path:   "$",
			Reason: "document root must be an object, got " + utils.Kind(tree),
		}
	}

	if meta, ok := utils.AsMap(root["metadata"]); ok {
		if origin, _ := utils.AsString(meta["origin"]); origin == consts.ShankOrigin {
			return ir.DialectShank, nil
		}
	}

	if _, ok := root["address"]; ok {
		return ir.DialectUnknown, &ParseError{
			Kind:   UnrecognizedDialect,
			Path:   "address",
			Reason: "new-format anchor idl (top-level address) is not supported",
		}
	}

	_, hasName := utils.AsString(root["name"])
	_, hasIxs := utils.AsList(root["instructions"])
	if hasName && hasIxs {
		return ir.DialectAnchor, nil
	}

	return ir.DialectUnknown, &ParseError{
		Kind:   UnrecognizedDialect,
		Path:   "$",
		Reason: "document is shaped like neither an anchor nor a shank idl",
	}
}
