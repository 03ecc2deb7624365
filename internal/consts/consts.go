package consts

import "runtime"

// CpuCount 表示逻辑 CPU 核心数，用于控制并发编译的文档数上限
var CpuCount = runtime.NumCPU()

// anchor discriminator 的命名空间前缀，sha256(namespace + name) 取前 8 字节
const (
	NamespaceInstruction = "global:"
	NamespaceAccount     = "account:"
	NamespaceEvent       = "event:"
)

const (
	HashDiscmLen  = 8 // anchor
	SmallDiscmLen = 1 // shank
)

// PubkeyLen Solana 公钥长度
const PubkeyLen = 32
