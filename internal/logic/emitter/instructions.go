package emitter

import (
	"strconv"
	"strings"

	"solana-idlgen/internal/logic/ir"
	"solana-idlgen/internal/utils"
)

// genInstructions 每条指令生成：账户句柄与 key 两种聚合及互转、AccountMetas、
// 带 discriminator 的参数载荷、指令构造函数和权限校验函数
func (e *emitter) genInstructions(g *generator) {
	for i := range e.m.Instructions {
		e.genInstruction(g, &e.m.Instructions[i])
	}
}

func (e *emitter) genInstruction(g *generator, ix *ir.InstructionDef) {
	id := ix.Ident
	n := len(ix.Accounts)
	lenConst := id + "IxAccountsLen"

	g.use(importCommon)
	g.use(importTypes)
	g.use(importBorsh)
	g.use(importBytes)
	g.use(importFmt)

	g.emitLinef("const %s = %d", lenConst, n)
	g.blank()

	// 1. 账户句柄与 key 聚合
	g.docs(ix.Docs)
	g.emitLinef("type %sAccounts struct {", id)
	g.incIndent()
	for _, acc := range ix.Accounts {
		e.accountDocs(g, acc)
		g.emitLinef("%s AccountInfo", acc.Ident)
	}
	g.decIndent()
	g.emitLine("}")
	g.blank()

	g.emitLinef("type %sKeys struct {", id)
	g.incIndent()
	for _, acc := range ix.Accounts {
		g.emitLinef("%s common.PublicKey", acc.Ident)
	}
	g.decIndent()
	g.emitLine("}")
	g.blank()

	// 2. 两种聚合之间的转换，数组顺序即链上账户顺序
	g.emitLinef("func (a %sAccounts) Keys() %sKeys {", id, id)
	g.incIndent()
	g.emitLinef("return %sKeys{", id)
	for _, acc := range ix.Accounts {
		g.emitLinef("\t%s: a.%s.Key,", acc.Ident, acc.Ident)
	}
	g.emitLine("}")
	g.decIndent()
	g.emitLine("}")
	g.blank()

	g.emitLinef("func (k %sKeys) Array() [%s]common.PublicKey {", id, lenConst)
	g.emitLinef("\treturn [%s]common.PublicKey{%s}", lenConst, joinFields("k", ix.Accounts))
	g.emitLine("}")
	g.blank()

	g.emitLinef("func %sKeysFromArray(arr [%s]common.PublicKey) %sKeys {", id, lenConst, id)
	g.emitLinef("\treturn %sKeys{%s}", id, fromArray(ix.Accounts))
	g.emitLine("}")
	g.blank()

	g.emitLinef("func (a %sAccounts) Array() [%s]AccountInfo {", id, lenConst)
	g.emitLinef("\treturn [%s]AccountInfo{%s}", lenConst, joinFields("a", ix.Accounts))
	g.emitLine("}")
	g.blank()

	g.emitLinef("func %sAccountsFromArray(arr [%s]AccountInfo) %sAccounts {", id, lenConst, id)
	g.emitLinef("\treturn %sAccounts{%s}", id, fromArray(ix.Accounts))
	g.emitLine("}")
	g.blank()

	g.emitLine("// AccountMetas returns the account metas in the order the program expects.")
	g.emitLinef("func (k %sKeys) AccountMetas() []types.AccountMeta {", id)
	g.incIndent()
	g.emitLine("return []types.AccountMeta{")
	for _, acc := range ix.Accounts {
		g.emitLinef("\t{PubKey: k.%s, IsSigner: %t, IsWritable: %t},", acc.Ident, acc.IsSigner, acc.IsWritable)
	}
	g.emitLine("}")
	g.decIndent()
	g.emitLine("}")
	g.blank()

	// 3. 参数载荷
	discm := id + "IxDiscm"
	g.emitLinef("var %s = %s", discm, utils.ByteArrayLiteral(ix.Discriminator.Bytes))
	g.blank()

	g.emitLinef("type %sIxArgs struct {", id)
	g.incIndent()
	e.fields(g, ix.Args)
	g.decIndent()
	g.emitLine("}")
	g.blank()

	e.genPrefixedCodec(g, id+"IxArgs", "Deserialize"+id+"IxArgs", discm, true)

	// 4. 指令构造
	g.emitLinef("func %sIx(keys %sKeys, args %sIxArgs) (types.Instruction, error) {", id, id, id)
	g.emitLinef("\treturn %sIxWithProgramID(ProgramID, keys, args)", id)
	g.emitLine("}")
	g.blank()

	g.emitLinef("func %sIxWithProgramID(programID common.PublicKey, keys %sKeys, args %sIxArgs) (types.Instruction, error) {", id, id, id)
	g.incIndent()
	g.emitLine("data, err := args.Serialize()")
	g.emitLine("if err != nil {")
	g.emitLine("\treturn types.Instruction{}, err")
	g.emitLine("}")
	g.emitLine("return types.Instruction{")
	g.emitLine("\tProgramID: programID,")
	g.emitLine("\tAccounts:  keys.AccountMetas(),")
	g.emitLine("\tData:      data,")
	g.emitLine("}, nil")
	g.decIndent()
	g.emitLine("}")
	g.blank()

	// 5. 校验
	g.emitLinef("func %sVerifyAccountKeys(accounts %sAccounts, keys %sKeys) error {", id, id, id)
	g.incIndent()
	g.emitLine("actual := accounts.Array()")
	g.emitLine("expected := keys.Array()")
	g.emitLine("for i := range actual {")
	g.emitLine("\tif actual[i].Key != expected[i] {")
	g.emitLine("\t\treturn fmt.Errorf(\"%w: account %d: got %s, want %s\", ErrKeyMismatch, i, actual[i].Key.ToBase58(), expected[i].ToBase58())")
	g.emitLine("\t}")
	g.emitLine("}")
	g.emitLine("return nil")
	g.decIndent()
	g.emitLine("}")
	g.blank()

	var writable, signers []ir.AccountUsage
	for _, acc := range ix.Accounts {
		if acc.IsWritable {
			writable = append(writable, acc)
		}
		if acc.IsSigner {
			signers = append(signers, acc)
		}
	}
	e.genPrivilegeCheck(g, id+"VerifyWritablePrivileges", id, writable, "IsWritable", "ErrNotWritable")
	e.genPrivilegeCheck(g, id+"VerifySignerPrivileges", id, signers, "IsSigner", "ErrNotSigner")

	g.emitLinef("func %sVerifyAccountPrivileges(accounts %sAccounts) error {", id, id)
	g.incIndent()
	g.emitLinef("if err := %sVerifyWritablePrivileges(accounts); err != nil {", id)
	g.emitLine("\treturn err")
	g.emitLine("}")
	g.emitLinef("return %sVerifySignerPrivileges(accounts)", id)
	g.decIndent()
	g.emitLine("}")
	g.blank()
}

func (e *emitter) genPrivilegeCheck(g *generator, fn, id string, accounts []ir.AccountUsage, flag, sentinel string) {
	g.emitLinef("func %s(accounts %sAccounts) error {", fn, id)
	g.incIndent()
	if len(accounts) > 0 {
		g.emitLinef("for _, acc := range []AccountInfo{%s} {", joinFields("accounts", accounts))
		g.emitLinef("\tif !acc.%s {", flag)
		g.emitLinef("\t\treturn fmt.Errorf(\"%%w: %%s\", %s, acc.Key.ToBase58())", sentinel)
		g.emitLine("\t}")
		g.emitLine("}")
	}
	g.emitLine("return nil")
	g.decIndent()
	g.emitLine("}")
	g.blank()
}

func (e *emitter) accountDocs(g *generator, acc ir.AccountUsage) {
	g.docs(acc.Docs)
	var flags []string
	if acc.IsWritable {
		flags = append(flags, "writable")
	}
	if acc.IsSigner {
		flags = append(flags, "signer")
	}
	if acc.IsOptional {
		flags = append(flags, "optional")
	}
	if len(flags) > 0 {
		g.emitLine("// " + strings.Join(flags, ", "))
	}
	if acc.PDA != "" {
		g.emitLine("// pda: " + acc.PDA)
	}
}

// genPrefixedCodec 生成 discriminator 前缀 + borsh 载荷的编解码对。
// strict 时载荷之后不允许有多余字节，账户数据常带预留空间因此不做检查。
func (e *emitter) genPrefixedCodec(g *generator, typ, decodeFn, discm string, strict bool) {
	g.use(importBorsh)
	g.use(importBytes)

	g.emitLine("// Serialize writes the discriminator followed by the borsh payload.")
	g.emitLinef("func (v *%s) Serialize() ([]byte, error) {", typ)
	g.incIndent()
	g.emitLine("payload, err := borsh.Serialize(*v)")
	g.emitLine("if err != nil {")
	g.emitLine("\treturn nil, err")
	g.emitLine("}")
	g.emitLinef("data := make([]byte, 0, len(%s)+len(payload))", discm)
	g.emitLinef("data = append(data, %s[:]...)", discm)
	g.emitLine("return append(data, payload...), nil")
	g.decIndent()
	g.emitLine("}")
	g.blank()

	if !strict {
		g.emitLine("// Bytes after the payload are ignored.")
	}
	g.emitLinef("func %s(data []byte) (*%s, error) {", decodeFn, typ)
	g.incIndent()
	g.emitLinef("if len(data) < len(%s) || !bytes.Equal(data[:len(%s)], %s[:]) {", discm, discm, discm)
	g.emitLine("\treturn nil, ErrDiscmMismatch")
	g.emitLine("}")
	g.emitLinef("v := new(%s)", typ)
	g.emitLinef("if err := borsh.Deserialize(v, data[len(%s):]); err != nil {", discm)
	g.emitLine("\treturn nil, err")
	g.emitLine("}")
	if strict {
		// borsh 编码是规范的，重新序列化的长度即已消费的长度
		g.emitLine("payload, err := borsh.Serialize(*v)")
		g.emitLine("if err != nil {")
		g.emitLine("\treturn nil, err")
		g.emitLine("}")
		g.emitLinef("if len(%s)+len(payload) != len(data) {", discm)
		g.emitLine("\treturn nil, ErrTrailingBytes")
		g.emitLine("}")
	}
	g.emitLine("return v, nil")
	g.decIndent()
	g.emitLine("}")
	g.blank()
}

func joinFields(recv string, accounts []ir.AccountUsage) string {
	parts := make([]string, 0, len(accounts))
	for _, acc := range accounts {
		parts = append(parts, recv+"."+acc.Ident)
	}
	return strings.Join(parts, ", ")
}

func fromArray(accounts []ir.AccountUsage) string {
	parts := make([]string, 0, len(accounts))
	for i, acc := range accounts {
		parts = append(parts, acc.Ident+": arr["+strconv.Itoa(i)+"]")
	}
	return strings.Join(parts, ", ")
}
