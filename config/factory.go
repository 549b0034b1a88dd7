// Package config 装配从 YAML/JSON 配置构建 Pipeline 所需的 Node 工厂。
// 独立成包以避免 pipeline 与各 Node 实现包之间的循环依赖。
package config

import (
	"fmt"
	"time"

	"github.com/rushteam/recserve/artifact"
	"github.com/rushteam/recserve/feature"
	"github.com/rushteam/recserve/filter"
	"github.com/rushteam/recserve/pipeline"
	"github.com/rushteam/recserve/pkg/conv"
	"github.com/rushteam/recserve/rank"
	"github.com/rushteam/recserve/recall"
	"github.com/rushteam/recserve/rerank"
)

// NewNodeFactory 创建绑定到工件集合的 Node 工厂。
//
// 支持的 Node 类型与配置项：
//   - recall.fanout:   timeout_ms / max_pool / cf_limit / als_limit / hot_limit / tt_limit
//   - filter.seen:     （无配置）
//   - filter.blacklist: items（物品 ID 列表）
//   - filter.rule:     expr（CEL 表达式，编译失败即配置错误）
//   - feature.emb_sim: （无配置）
//   - rank.gbdt:       （无配置，模型来自工件）
//   - rerank.topn:     n（<= 0 时按请求的 k 截断）
func NewNodeFactory(b *artifact.Bundle) *pipeline.NodeFactory {
	f := pipeline.NewNodeFactory()

	f.Register("recall.fanout", func(cfg map[string]any) (pipeline.Node, error) {
		return &recall.Fanout{
			Sources: []recall.Source{
				&recall.ItemCF{Store: b.CFStore(), Limit: int(conv.ConfigGetInt64(cfg, "cf_limit", 0))},
				&recall.ALS{Store: b.ALSStore(), Limit: int(conv.ConfigGetInt64(cfg, "als_limit", 0))},
				&recall.Hot{Store: b.PopStore(), Limit: int(conv.ConfigGetInt64(cfg, "hot_limit", 0))},
				&recall.TwoTower{Store: b.NeuralStore(), Limit: int(conv.ConfigGetInt64(cfg, "tt_limit", 0))},
			},
			Timeout: time.Duration(conv.ConfigGetInt64(cfg, "timeout_ms", 0)) * time.Millisecond,
			MaxPool: int(conv.ConfigGetInt64(cfg, "max_pool", 0)),
		}, nil
	})

	f.Register("filter.seen", func(_ map[string]any) (pipeline.Node, error) {
		return &filter.FilterNode{Filters: []filter.Filter{&filter.SeenFilter{}}}, nil
	})

	f.Register("filter.blacklist", func(cfg map[string]any) (pipeline.Node, error) {
		items := conv.SliceAnyToInt64(cfg["items"])
		return &filter.FilterNode{
			Filters: []filter.Filter{filter.NewBlacklistFilter(items, nil, "")},
		}, nil
	})

	f.Register("filter.rule", func(cfg map[string]any) (pipeline.Node, error) {
		expr := conv.ConfigGet(cfg, "expr", "")
		if expr == "" {
			return nil, fmt.Errorf("filter.rule: expr is required")
		}
		rf, err := filter.NewRuleFilter(expr)
		if err != nil {
			return nil, fmt.Errorf("filter.rule: %w", err)
		}
		return &filter.FilterNode{Filters: []filter.Filter{rf}}, nil
	})

	f.Register("feature.emb_sim", func(_ map[string]any) (pipeline.Node, error) {
		return &feature.EmbSimNode{Store: b}, nil
	})

	f.Register("rank.gbdt", func(_ map[string]any) (pipeline.Node, error) {
		return &rank.GBDTNode{Model: b.Model}, nil
	})

	f.Register("rerank.topn", func(cfg map[string]any) (pipeline.Node, error) {
		return &rerank.TopN{N: int(conv.ConfigGetInt64(cfg, "n", 0))}, nil
	})

	return f
}
