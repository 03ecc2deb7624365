package config

import (
	"solana-idlgen/pkg/logger"
)

type LogConfig struct {
	Format   string `yaml:"format" json:"format,optional"`     // 日志格式，支持 "console" 或 "json"
	LogDir   string `yaml:"log_dir" json:"log_dir,optional"`   // 日志目录（可为相对路径或绝对路径），为空则只打到 stderr
	Level    string `yaml:"level" json:"level,optional"`       // 日志级别：debug / info / warn / error
	Compress bool   `yaml:"compress" json:"compress,optional"` // 是否压缩旧日志文件
}

func (c *LogConfig) ToLogOption() logger.LogOption {
	return logger.LogOption{
		Format:   c.Format,
		LogDir:   c.LogDir,
		Level:    c.Level,
		Compress: c.Compress,
	}
}

// ProgramConfig 描述一个待生成 binding 的 IDL
type ProgramConfig struct {
	IDL       string `yaml:"idl" json:"idl"`                        // IDL 文件路径，支持 .json / .yaml / .yml
	Dialect   string `yaml:"dialect" json:"dialect,optional"`       // anchor / shank，为空时按文档结构自动识别
	OutDir    string `yaml:"out_dir" json:"out_dir"`                // 输出目录
	Package   string `yaml:"package" json:"package,optional"`       // 输出包名，为空时由程序名推导
	Module    string `yaml:"module" json:"module,optional"`         // 输出 go.mod 的 module path，为空则不生成 go.mod
	ProgramID string `yaml:"program_id" json:"program_id,optional"` // 覆盖 IDL 中 metadata.address
}

// GenConfig 是主配置结构体，用于驱动 idlgen。
// yaml 标签对应 etc/*.yaml 的键，json 标签供 go-zero conf 加载时映射同名键。
type GenConfig struct {
	LogConf  LogConfig       `yaml:"logger" json:"logger,optional"`   // 日志配置
	Workers  int             `yaml:"workers" json:"workers,optional"` // 并发处理的文档数，<=0 时取 CPU 核数
	Programs []ProgramConfig `yaml:"programs" json:"programs"`        // 待生成的程序列表
}
