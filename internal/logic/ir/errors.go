package ir

import "fmt"

// InvariantError 表示流水线内部不变量被破坏（程序缺陷），与用户输入错误区分上报
type InvariantError struct {
	Stage  string
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("internal invariant violated in %s: %s", e.Stage, e.Reason)
}

// RequireStage 校验模型已到达 want 阶段
func RequireStage(m *ProgramModel, want Stage, stage string) error {
	if m == nil {
		return &InvariantError{Stage: stage, Reason: "nil program model"}
	}
	if m.Stage < want {
		return &InvariantError{
			Stage:  stage,
			Reason: fmt.Sprintf("model %q is at stage %d, need %d", m.Name, m.Stage, want),
		}
	}
	return nil
}
