package codec_test

import (
	"encoding/hex"
	"errors"
	"math/big"
	"os"
	"runtime"
	"testing"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeromicro/go-zero/core/jsonx"

	"solana-idlgen/internal/logic/codec"
	"solana-idlgen/internal/logic/dialect"
	"solana-idlgen/internal/logic/discriminator"
	"solana-idlgen/internal/logic/ir"
	"solana-idlgen/internal/logic/privilege"
)

var (
	alice = common.PublicKeyFromString("Fg6PaFpoGXkYsidMpWTK6W2BeZ7FEfcYkg476zPFsLnS")
	bob   = common.PublicKeyFromString("metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s")
)

func newCodec(t *testing.T, name string) (*codec.Codec, *ir.ProgramModel) {
	t.Helper()
	b, err := os.ReadFile("../../../testdata/" + name)
	require.NoError(t, err)
	return codecFrom(t, b)
}

func codecFrom(t *testing.T, doc []byte) (*codec.Codec, *ir.ProgramModel) {
	t.Helper()
	var tree any
	require.NoError(t, jsonx.Unmarshal(doc, &tree))

	m, err := dialect.Parse(tree, ir.DialectUnknown, dialect.Options{})
	require.NoError(t, err)
	require.NoError(t, discriminator.Assign(m))
	require.NoError(t, privilege.Annotate(m))
	m.Stage = ir.StageAnnotated

	c, err := codec.New(m)
	require.NoError(t, err)
	return c, m
}

func unhex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func TestInstructionU64(t *testing.T) {
	c, _ := newCodec(t, "counter.json")

	data, err := c.EncodeInstruction("initialize", map[string]any{"start": uint64(42)})
	require.NoError(t, err)
	assert.Equal(t, unhex(t, "afaf6d1f0d989bed"+"2a00000000000000"), data)

	ix, err := c.DecodeInstruction(data)
	require.NoError(t, err)
	assert.Equal(t, "initialize", ix.Name)
	assert.Equal(t, map[string]any{"start": uint64(42)}, ix.Args)
}

func TestInstructionComposites(t *testing.T) {
	c, _ := newCodec(t, "counter.json")

	args := map[string]any{
		"amount": uint64(7),
		"memo":   codec.Some{V: "hi"},
		"mode":   codec.Enum{Variant: "Limited", Value: []any{uint64(5), uint8(2)}},
	}
	data, err := c.EncodeInstruction("transfer", args)
	require.NoError(t, err)
	assert.Equal(t, unhex(t, "a334c8e78c0345ba"+
		"0700000000000000"+
		"01"+"02000000"+"6869"+
		"02"+"0500000000000000"+"02"), data)

	ix, err := c.DecodeInstruction(data)
	require.NoError(t, err)
	assert.Equal(t, "transfer", ix.Name)
	assert.Equal(t, args, ix.Args)

	// 缺省的 Option 字段编码为 None
	data, err = c.EncodeInstruction("transfer", map[string]any{
		"amount": 1,
		"mode":   "Paused",
	})
	require.NoError(t, err)
	assert.Equal(t, unhex(t, "a334c8e78c0345ba"+"0100000000000000"+"00"+"00"), data)
}

func TestAccountRoundTrip(t *testing.T) {
	c, _ := newCodec(t, "counter.json")

	fields := map[string]any{
		"authority": alice,
		"count":     uint64(1000),
		"mode":      codec.Enum{Variant: "Active", Value: map[string]any{"since": int64(-5)}},
		"fees": codec.Some{V: map[string]any{
			"rate":       uint16(30),
			"recipients": []any{alice, bob},
		}},
		"history": []any{uint8(1), uint8(2), uint8(3), uint8(4)},
	}
	data, err := c.EncodeAccount("Counter", fields)
	require.NoError(t, err)
	assert.Equal(t, unhex(t, "ffb004f5bcfd7c19"), data[:8])

	// 账户尾部预留空间不影响解码
	padded := append(append([]byte{}, data...), make([]byte, 16)...)
	acc, err := c.DecodeAccount(padded)
	require.NoError(t, err)
	assert.Equal(t, "Counter", acc.Name)
	assert.Equal(t, fields, acc.Fields)
}

func TestEventRoundTrip(t *testing.T) {
	c, _ := newCodec(t, "counter.json")

	fields := map[string]any{"from": bob, "amount": uint64(9)}
	data, err := c.EncodeEvent("Transferred", fields)
	require.NoError(t, err)
	assert.Equal(t, unhex(t, "1584ef4092efa644"), data[:8])

	ev, err := c.DecodeEvent(data)
	require.NoError(t, err)
	assert.Equal(t, "Transferred", ev.Name)
	assert.Equal(t, fields, ev.Fields)
}

func TestShankInstruction(t *testing.T) {
	c, _ := newCodec(t, "token_vault.json")

	data, err := c.EncodeInstruction("Withdraw", map[string]any{"amount": uint64(256)})
	require.NoError(t, err)
	assert.Equal(t, unhex(t, "02"+"0001000000000000"), data)

	data, err = c.EncodeInstruction("Deposit", map[string]any{
		"args": map[string]any{"amount": uint64(1), "note": []byte("ok")},
	})
	require.NoError(t, err)
	assert.Equal(t, unhex(t, "01"+"0100000000000000"+"02000000"+"6f6b"), data)

	ix, err := c.DecodeInstruction(data)
	require.NoError(t, err)
	assert.Equal(t, "Deposit", ix.Name)
	assert.Equal(t, map[string]any{"amount": uint64(1), "note": []byte("ok")}, ix.Args["args"])
}

func TestWideIntegers(t *testing.T) {
	c, _ := newCodec(t, "counter.json")

	data, err := c.Encode(ir.Int(128), big.NewInt(-1))
	require.NoError(t, err)
	assert.Equal(t, unhex(t, "ffffffffffffffffffffffffffffffff"), data)
	v, err := c.Decode(ir.Int(128), data)
	require.NoError(t, err)
	assert.Equal(t, 0, big.NewInt(-1).Cmp(v.(*big.Int)))

	limit, _ := new(big.Int).SetString("340282366920938463463374607431768211455", 10)
	data, err = c.Encode(ir.Uint(128), limit)
	require.NoError(t, err)
	v, err = c.Decode(ir.Uint(128), data)
	require.NoError(t, err)
	assert.Equal(t, 0, limit.Cmp(v.(*big.Int)))

	_, err = c.Encode(ir.Uint(128), new(big.Int).Add(limit, big.NewInt(1)))
	assert.Error(t, err)
	_, err = c.Encode(ir.Uint(128), -1)
	assert.Error(t, err)
}

func TestValueErrors(t *testing.T) {
	c, _ := newCodec(t, "counter.json")

	_, err := c.EncodeInstruction("initialize", map[string]any{"start": -1})
	var ve *codec.ValueError
	require.True(t, errors.As(err, &ve), "got %v", err)
	assert.Equal(t, "args.start", ve.Path)

	_, err = c.EncodeInstruction("initialize", map[string]any{})
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "args.start", ve.Path)

	_, err = c.EncodeInstruction("initialize", map[string]any{"start": 1, "extra": 2})
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "args", ve.Path)

	_, err = c.EncodeInstruction("transfer", map[string]any{"amount": 1, "mode": "Sleeping"})
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "args.mode", ve.Path)

	_, err = c.Encode(ir.Uint(8), 256)
	assert.Error(t, err)
	_, err = c.Encode(ir.Int(8), -129)
	assert.Error(t, err)
	_, err = c.Encode(ir.FixedArray(ir.Uint(8), 2), []any{uint8(1)})
	assert.Error(t, err)
	_, err = c.Encode(ir.PublicKey(), "abc")
	assert.ErrorContains(t, err, "invalid pubkey length")
}

func TestDecodeErrors(t *testing.T) {
	c, _ := newCodec(t, "counter.json")

	_, err := c.DecodeInstruction(unhex(t, "0000000000000000"))
	assert.ErrorIs(t, err, codec.ErrUnknownDiscriminator)

	_, err = c.DecodeInstruction(unhex(t, "afaf6d1f0d989bed"+"2a000000"))
	assert.ErrorIs(t, err, codec.ErrShortBuffer)

	_, err = c.DecodeInstruction(unhex(t, "afaf6d1f0d989bed"+"2a00000000000000"+"ff"))
	assert.ErrorIs(t, err, codec.ErrTrailingBytes)

	// 长度前缀远大于剩余数据
	_, err = c.Decode(ir.DynamicList(ir.PublicKey()), unhex(t, "ffffff7f"))
	assert.ErrorIs(t, err, codec.ErrShortBuffer)

	_, err = c.Decode(ir.Optional(ir.Bool()), unhex(t, "02"))
	assert.Error(t, err)
}

// allocated 返回 fn 执行期间累计分配的字节数
func allocated(fn func()) uint64 {
	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	fn()
	runtime.ReadMemStats(&after)
	return after.TotalAlloc - before.TotalAlloc
}

func TestForgedListLength(t *testing.T) {
	c, _ := codecFrom(t, []byte(`{
		"name": "forge",
		"metadata": {"address": "Fg6PaFpoGXkYsidMpWTK6W2BeZ7FEfcYkg476zPFsLnS"},
		"instructions": [{"name": "run", "accounts": [], "args": [{"name": "xs", "type": {"vec": {"defined": "Pt"}}}]}],
		"types": [{"name": "Pt", "type": {"kind": "struct", "fields": [{"name": "x", "type": "u64"}, {"name": "y", "type": "u64"}]}}]
	}`))

	data, err := c.EncodeInstruction("run", map[string]any{"xs": []any{}})
	require.NoError(t, err)
	forged := append(data[:8:8], 0x00, 0x00, 0x00, 0x10)

	var decodeErr error
	grew := allocated(func() { _, decodeErr = c.DecodeInstruction(forged) })
	assert.ErrorIs(t, decodeErr, codec.ErrShortBuffer)
	assert.ErrorContains(t, decodeErr, "list of 268435456 elements")
	assert.Less(t, grew, uint64(1<<20))

	// 结构体、枚举、定长数组的元素同样按最小长度预检
	c, _ = newCodec(t, "counter.json")
	for _, elem := range []ir.ResolvedType{
		ir.Defined("Fees"),
		ir.Defined("Mode"),
		ir.FixedArray(ir.Defined("Fees"), 2),
	} {
		_, err := c.Decode(ir.DynamicList(elem), unhex(t, "00000010"+"0000"))
		assert.ErrorContains(t, err, "list of 268435456 elements", elem.String())
	}

	// 两个合法的 Fees 元素不受预检影响
	two := unhex(t, "02000000"+"0100"+"00000000"+"0200"+"00000000")
	v, err := c.Decode(ir.DynamicList(ir.Defined("Fees")), two)
	require.NoError(t, err)
	assert.Len(t, v, 2)
}

func TestEmptyListsAreNonNil(t *testing.T) {
	c, _ := newCodec(t, "counter.json")

	v, err := c.Decode(ir.DynamicList(ir.PublicKey()), unhex(t, "00000000"))
	require.NoError(t, err)
	assert.NotNil(t, v)
	assert.Equal(t, []any{}, v)

	v, err = c.Decode(ir.DynamicList(ir.Uint(8)), unhex(t, "00000000"))
	require.NoError(t, err)
	assert.Equal(t, []byte{}, v)
}

func TestBuildInstruction(t *testing.T) {
	c, m := newCodec(t, "counter.json")

	keys := map[string]common.PublicKey{
		"vault":          alice,
		"vaultAuthority": bob,
		"mint":           alice,
		"tokenProgram":   bob,
		"authority":      bob,
	}
	ix, err := c.BuildInstruction("transfer", keys, map[string]any{"amount": 1, "mode": "Paused"})
	require.NoError(t, err)

	programID := m.ProgramID.ToCommon()
	assert.Equal(t, programID, ix.ProgramID)
	require.Len(t, ix.Accounts, 6)
	assert.Equal(t, alice, ix.Accounts[0].PubKey)
	assert.True(t, ix.Accounts[0].IsWritable)
	// 缺省的可选账户以程序地址占位
	assert.Equal(t, programID, ix.Accounts[3].PubKey)
	assert.True(t, ix.Accounts[3].IsWritable)
	assert.True(t, ix.Accounts[5].IsSigner)

	delete(keys, "authority")
	_, err = c.BuildInstruction("transfer", keys, map[string]any{"amount": 1, "mode": "Paused"})
	assert.ErrorContains(t, err, `missing account "authority"`)
}

func TestNewRequiresAnnotatedModel(t *testing.T) {
	_, err := codec.New(&ir.ProgramModel{Name: "x", Stage: ir.StageParsed})
	var ie *ir.InvariantError
	assert.True(t, errors.As(err, &ie))
}

func TestPlain(t *testing.T) {
	v := codec.Plain(map[string]any{
		"key":  alice,
		"memo": codec.Some{V: []byte{0xca, 0xfe}},
		"big":  big.NewInt(-7),
		"mode": codec.Enum{Variant: "Limited", Value: []any{uint64(5)}},
		"off":  codec.Enum{Variant: "Paused"},
	})
	assert.Equal(t, map[string]any{
		"key":  "Fg6PaFpoGXkYsidMpWTK6W2BeZ7FEfcYkg476zPFsLnS",
		"memo": "cafe",
		"big":  "-7",
		"mode": map[string]any{"Limited": []any{uint64(5)}},
		"off":  "Paused",
	}, v)
}
