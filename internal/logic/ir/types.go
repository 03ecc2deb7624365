package ir

import (
	"fmt"
	"strconv"
)

// TypeKind 是 ResolvedType 的变体标签
type TypeKind uint8

const (
	KindPrimitive TypeKind = iota + 1
	KindFixedArray
	KindDynamicList
	KindOptional
	KindDefined
	KindPublicKey
	KindString
)

// PrimitiveKind 区分数值/布尔原语的类别，宽度单独记录在 Width 中
type PrimitiveKind uint8

const (
	PrimBool PrimitiveKind = iota + 1
	PrimUint
	PrimInt
	PrimFloat
)

// ResolvedType 是 IDL 类型节点解析后的封闭和类型。
// Elem 仅对 FixedArray / DynamicList / Optional 有效，Len 仅对 FixedArray 有效，
// Name 仅对 Defined 有效（保存 IDL 中的原始类型名，去掉泛型参数后）。
type ResolvedType struct {
	Kind  TypeKind
	Prim  PrimitiveKind
	Width int // 位宽：8/16/32/64/128，bool 记为 8
	Elem  *ResolvedType
	Len   int
	Name  string
}

func Bool() ResolvedType { return ResolvedType{Kind: KindPrimitive, Prim: PrimBool, Width: 8} }

func Uint(width int) ResolvedType {
	return ResolvedType{Kind: KindPrimitive, Prim: PrimUint, Width: width}
}

func Int(width int) ResolvedType {
	return ResolvedType{Kind: KindPrimitive, Prim: PrimInt, Width: width}
}

func Float(width int) ResolvedType {
	return ResolvedType{Kind: KindPrimitive, Prim: PrimFloat, Width: width}
}

func PublicKey() ResolvedType { return ResolvedType{Kind: KindPublicKey} }

func String() ResolvedType { return ResolvedType{Kind: KindString} }

func FixedArray(elem ResolvedType, n int) ResolvedType {
	return ResolvedType{Kind: KindFixedArray, Elem: &elem, Len: n}
}

func DynamicList(elem ResolvedType) ResolvedType {
	return ResolvedType{Kind: KindDynamicList, Elem: &elem}
}

func Optional(elem ResolvedType) ResolvedType {
	return ResolvedType{Kind: KindOptional, Elem: &elem}
}

func Defined(name string) ResolvedType {
	return ResolvedType{Kind: KindDefined, Name: name}
}

// IsBytes 判断是否为 Vec<u8>
func (t ResolvedType) IsBytes() bool {
	return t.Kind == KindDynamicList && t.Elem != nil &&
		t.Elem.Kind == KindPrimitive && t.Elem.Prim == PrimUint && t.Elem.Width == 8
}

// String 以 IDL 风格打印类型，用于错误信息与日志
func (t ResolvedType) String() string {
	switch t.Kind {
	case KindPrimitive:
		switch t.Prim {
		case PrimBool:
			return "bool"
		case PrimUint:
			return "u" + strconv.Itoa(t.Width)
		case PrimInt:
			return "i" + strconv.Itoa(t.Width)
		case PrimFloat:
			return "f" + strconv.Itoa(t.Width)
		}
	case KindFixedArray:
		return fmt.Sprintf("[%s; %d]", t.Elem, t.Len)
	case KindDynamicList:
		return fmt.Sprintf("Vec<%s>", t.Elem)
	case KindOptional:
		return fmt.Sprintf("Option<%s>", t.Elem)
	case KindDefined:
		return t.Name
	case KindPublicKey:
		return "publicKey"
	case KindString:
		return "string"
	}
	return "<invalid>"
}

// Walk 深度优先访问 t 及其所有元素类型
func (t ResolvedType) Walk(fn func(ResolvedType)) {
	fn(t)
	if t.Elem != nil {
		t.Elem.Walk(fn)
	}
}
