// Package dsl 提供基于 CEL (Common Expression Language) 的规则表达式求值，
// 用于运营可配置的候选过滤规则。
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/recserve/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
	celEnvErr  error
)

// initCELEnv 初始化 CEL 环境，定义变量
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("item", cel.DynType),
			cel.Variable("ctx", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Program 是编译后的规则表达式，编译一次、请求内对每个候选求值。
//
// 表达式语法（CEL 标准语法）：
//   - 数值：item.id >= 40000 / item.features.pop_rank < 10.0
//   - 环境：ctx.country == "BR" / ctx.os == 2
//   - 逻辑：item.id >= 40000 && ctx.country == "DE"
//   - 标签：item.labels.recall_source.contains("hot")
//
// 求值结果为 true 表示候选命中规则（由调用方决定命中后的动作，
// 过滤场景即剔除）。
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译规则表达式。表达式非法在配置加载期报错，不留到请求期。
func Compile(expr string) (*Program, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile %q: %w", expr, issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", expr, err)
	}

	return &Program{expr: expr, prg: prg}, nil
}

// Expr 返回原始表达式文本（用于日志/标签）。
func (p *Program) Expr() string { return p.expr }

// Eval 对单个候选求值，返回布尔结果。非布尔结果视为 false。
func (p *Program) Eval(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	if p == nil || p.prg == nil || item == nil {
		return false, nil
	}

	features := make(map[string]any, len(item.Features))
	for k, v := range item.Features {
		features[k] = v
	}
	labels := make(map[string]any, len(item.Labels))
	for k, v := range item.Labels {
		labels[k] = v.Value
	}

	vars := map[string]any{
		"item": map[string]any{
			"id":       item.ID,
			"score":    item.Score,
			"features": features,
			"labels":   labels,
		},
		"ctx": map[string]any{},
	}
	if rctx != nil {
		vars["ctx"] = map[string]any{
			"user_id": rctx.UserID,
			"device":  rctx.Used.Device,
			"os":      rctx.Used.OS,
			"country": rctx.Used.Country,
		}
	}

	out, _, err := p.prg.Eval(vars)
	if err != nil {
		return false, err
	}
	if b, ok := out.Value().(bool); ok {
		return b, nil
	}
	return false, nil
}
