// idldecode 按 IDL 在运行期解码指令、账户或事件数据，输出 JSON。
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/zeromicro/go-zero/core/jsonx"

	"solana-idlgen/internal/loader"
	"solana-idlgen/internal/logic/codec"
	"solana-idlgen/internal/logic/compiler"
	"solana-idlgen/internal/logic/ir"
)

var (
	idlFile = flag.String("idl", "", "the idl file")
	dialect = flag.String("dialect", "", "anchor or shank, detected when empty")
	kind    = flag.String("kind", "ix", "ix, account or event")
	isHex   = flag.Bool("hex", false, "data is hex instead of base58")
)

func main() {
	flag.Parse()
	if *idlFile == "" || flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: idldecode -idl <file> [-dialect anchor|shank] [-kind ix|account|event] [-hex] <data>")
		os.Exit(1)
	}

	out, err := decode(*idlFile, *dialect, *kind, flag.Arg(0), *isHex)
	if err != nil {
		fmt.Fprintf(os.Stderr, "idldecode: %v\n", err)
		if compiler.IsInvariant(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
	fmt.Println(out)
}

func decode(idl, dialectName, kind, input string, isHex bool) (string, error) {
	d, ok := ir.ParseDialect(dialectName)
	if !ok {
		return "", fmt.Errorf("unknown dialect %q", dialectName)
	}
	tree, err := loader.LoadFile(idl)
	if err != nil {
		return "", err
	}
	m, err := compiler.Annotate(tree, compiler.Options{Dialect: d})
	if err != nil {
		return "", err
	}
	c, err := codec.New(m)
	if err != nil {
		return "", err
	}

	var data []byte
	if isHex {
		data, err = hex.DecodeString(strings.TrimPrefix(input, "0x"))
	} else {
		data, err = base58.Decode(input)
	}
	if err != nil {
		return "", fmt.Errorf("invalid data: %w", err)
	}

	var result map[string]any
	switch kind {
	case "ix":
		ix, err := c.DecodeInstruction(data)
		if err != nil {
			return "", err
		}
		result = map[string]any{"instruction": ix.Name, "args": codec.Plain(ix.Args)}
	case "account":
		acc, err := c.DecodeAccount(data)
		if err != nil {
			return "", err
		}
		result = map[string]any{"account": acc.Name, "fields": codec.Plain(acc.Fields)}
	case "event":
		ev, err := c.DecodeEvent(data)
		if err != nil {
			return "", err
		}
		result = map[string]any{"event": ev.Name, "fields": codec.Plain(ev.Fields)}
	default:
		return "", fmt.Errorf("unknown kind %q", kind)
	}
	return jsonx.MarshalToString(result)
}
