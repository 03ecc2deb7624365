package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/near/borsh-go"

	"solana-idlgen/internal/logic/ir"
)

type reader struct {
	data []byte
	off  int
}

func (r *reader) remaining() int {
	return len(r.data) - r.off
}

func (r *reader) take(n int) ([]byte, error) {
	if n < 0 || n > r.remaining() {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d", ErrShortBuffer, n, r.off)
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *reader) u32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// encodePrimitive 128 位整数手工编码，其余交给 borsh
func encodePrimitive(t ir.ResolvedType, v any) ([]byte, error) {
	switch t.Prim {
	case ir.PrimBool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("expected bool, got %T", v)
		}
		return borsh.Serialize(b)

	case ir.PrimFloat:
		f, err := toFloat(v)
		if err != nil {
			return nil, err
		}
		if t.Width == 32 {
			return borsh.Serialize(float32(f))
		}
		return borsh.Serialize(f)

	case ir.PrimUint:
		if t.Width == 128 {
			b, ok := toBig(v)
			if !ok {
				return nil, fmt.Errorf("expected u128, got %T", v)
			}
			return put128(b, false)
		}
		n, err := toUint(v, t.Width)
		if err != nil {
			return nil, err
		}
		switch t.Width {
		case 8:
			return borsh.Serialize(uint8(n))
		case 16:
			return borsh.Serialize(uint16(n))
		case 32:
			return borsh.Serialize(uint32(n))
		default:
			return borsh.Serialize(n)
		}

	case ir.PrimInt:
		if t.Width == 128 {
			b, ok := toBig(v)
			if !ok {
				return nil, fmt.Errorf("expected i128, got %T", v)
			}
			return put128(b, true)
		}
		n, err := toInt(v, t.Width)
		if err != nil {
			return nil, err
		}
		switch t.Width {
		case 8:
			return borsh.Serialize(int8(n))
		case 16:
			return borsh.Serialize(int16(n))
		case 32:
			return borsh.Serialize(int32(n))
		default:
			return borsh.Serialize(n)
		}
	}
	return nil, fmt.Errorf("unknown primitive %s", t)
}

func decodePrimitive(r *reader, t ir.ResolvedType) (any, error) {
	b, err := r.take(t.Width / 8)
	if err != nil {
		return nil, err
	}

	switch {
	case t.Width == 128:
		return get128(b, t.Prim == ir.PrimInt), nil
	case t.Prim == ir.PrimBool:
		return leaf[bool](b)
	case t.Prim == ir.PrimFloat && t.Width == 32:
		return leaf[float32](b)
	case t.Prim == ir.PrimFloat:
		return leaf[float64](b)
	case t.Prim == ir.PrimUint:
		switch t.Width {
		case 8:
			return leaf[uint8](b)
		case 16:
			return leaf[uint16](b)
		case 32:
			return leaf[uint32](b)
		default:
			return leaf[uint64](b)
		}
	default:
		switch t.Width {
		case 8:
			return leaf[int8](b)
		case 16:
			return leaf[int16](b)
		case 32:
			return leaf[int32](b)
		default:
			return leaf[int64](b)
		}
	}
}

func leaf[T any](b []byte) (any, error) {
	var v T
	if err := borsh.Deserialize(&v, b); err != nil {
		return nil, err
	}
	return v, nil
}
