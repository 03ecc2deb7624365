package dialect

import (
	"solana-idlgen/internal/logic/ir"
	"solana-idlgen/internal/utils"
)

// 旧版 anchor 的账户项有三种写法：
//   - 叶子账户：{name, isMut, isSigner, ...}
//   - 内联组合：{name, accounts: [...]}，对应 Rust 侧嵌套的 Accounts 结构体
//   - 组引用：  {name, group: "Name"}，引用顶层 accountGroups 中的具名组
//
// 内联组合以 "ix:指令::名字" 或 "group:组::名字" 注册为具名组并在原位置引用，
// 展平交给 privilege 包。所属前缀区分指令与顶层组，同名的两者不会互相冲突。

const (
	groupSep   = "::"
	ixOwner    = "ix:"
	groupOwner = "group:"
)

func (p *parser) parseGroups(root map[string]any) error {
	raw, err := p.list(root, "accountGroups", "", false)
	if err != nil {
		return err
	}
	if len(raw) > 0 && p.dialect != ir.DialectAnchor {
		return p.malformed("accountGroups", "account groups are only supported for anchor idls")
	}
	for i, v := range raw {
		path := idx("accountGroups", i)
		m, err := p.object(v, path)
		if err != nil {
			return err
		}
		name, err := p.str(m, "name", path)
		if err != nil {
			return err
		}
		p.entry = name
		items, err := p.list(m, "accounts", path, true)
		if err != nil {
			return err
		}
		if err := p.registerGroup(name, groupOwner+name, items, path); err != nil {
			return err
		}
	}
	return nil
}

// registerGroup 登记具名组，owner 作为其内联组合的组名前缀
func (p *parser) registerGroup(name, owner string, raw []any, path string) error {
	if _, dup := p.groupNames[name]; dup {
		return p.malformed(at(path, "name"), "duplicate account group %q", name)
	}
	p.groupNames[name] = struct{}{}

	items, err := p.accountItems(raw, at(path, "accounts"), owner)
	if err != nil {
		return err
	}
	p.model.Groups = append(p.model.Groups, ir.AccountGroup{Name: name, Items: items})
	return nil
}

// accountItems 解析一个账户列表，owner 用于给内联组合生成唯一组名
func (p *parser) accountItems(raw []any, path, owner string) ([]ir.AccountItem, error) {
	out := make([]ir.AccountItem, 0, len(raw))
	for i, v := range raw {
		ip := idx(path, i)
		m, err := p.object(v, ip)
		if err != nil {
			return nil, err
		}

		if nested, ok := m["accounts"]; ok {
			if p.dialect != ir.DialectAnchor {
				return nil, p.malformed(at(ip, "accounts"), "nested account lists are only supported for anchor idls")
			}
			name, err := p.str(m, "name", ip)
			if err != nil {
				return nil, err
			}
			sub, ok := utils.AsList(nested)
			if !ok {
				return nil, p.malformed(at(ip, "accounts"), "expected array, got %s", utils.Kind(nested))
			}
			key := owner + groupSep + name
			if err := p.registerGroup(key, key, sub, ip); err != nil {
				return nil, err
			}
			out = append(out, ir.AccountItem{Group: key, Path: ip})
			continue
		}

		if ref, ok := m["group"]; ok {
			if p.dialect != ir.DialectAnchor {
				return nil, p.malformed(at(ip, "group"), "account group references are only supported for anchor idls")
			}
			name, ok := utils.AsString(ref)
			if !ok || name == "" {
				return nil, p.malformed(at(ip, "group"), "expected group name, got %s", utils.Kind(ref))
			}
			out = append(out, ir.AccountItem{Group: name, Path: ip})
			continue
		}

		leaf, err := p.leaf(m, ip)
		if err != nil {
			return nil, err
		}
		out = append(out, ir.AccountItem{Leaf: leaf, Path: ip})
	}
	return out, nil
}
