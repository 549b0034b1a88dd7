package filter

import (
	"context"

	"github.com/rushteam/recserve/core"
	"github.com/rushteam/recserve/pkg/dsl"
)

// RuleFilter 是基于 CEL 表达式的规则过滤器：表达式命中即剔除。
// 运营可通过配置下发规则，例如按地区屏蔽某个物品区间：
//
//	item.id >= 40000 && item.id < 50000 && ctx.country == "DE"
//
// 表达式在配置加载期编译（Compile 失败即配置错误），请求期只求值。
type RuleFilter struct {
	prg *dsl.Program
}

// NewRuleFilter 编译规则表达式并创建过滤器。
func NewRuleFilter(expr string) (*RuleFilter, error) {
	prg, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &RuleFilter{prg: prg}, nil
}

func (f *RuleFilter) Name() string {
	return "filter.rule"
}

func (f *RuleFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	return f.prg.Eval(item, rctx)
}
