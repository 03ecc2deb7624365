package emitter

import (
	"fmt"
)

// NameCollisionError 两个不同的 IDL 名字归一化后得到了同一个 Go 标识符
type NameCollisionError struct {
	Ident  string
	Scope  string // "package" 或所在结构体名
	First  string // 先占用该标识符的条目描述
	Second string
}

func (e *NameCollisionError) Error() string {
	return fmt.Sprintf("name collision in %s: %s and %s both map to identifier %q",
		e.Scope, e.First, e.Second, e.Ident)
}

// registry 记录某个作用域内已占用的标识符
type registry struct {
	scope string
	owner map[string]string
}

func newRegistry(scope string) *registry {
	return &registry{scope: scope, owner: make(map[string]string)}
}

func (r *registry) claim(ident, owner string) error {
	if prev, ok := r.owner[ident]; ok {
		return &NameCollisionError{Ident: ident, Scope: r.scope, First: prev, Second: owner}
	}
	r.owner[ident] = owner
	return nil
}

func (r *registry) claimAll(owner string, idents ...string) error {
	for _, id := range idents {
		if err := r.claim(id, owner); err != nil {
			return err
		}
	}
	return nil
}
