package feature

import (
	"context"

	"github.com/rushteam/recserve/core"
	"github.com/rushteam/recserve/pipeline"
)

// EmbSimNode 是特征补全 Node：为候选池中的每个物品写入 emb_sim 特征
// （用户向量与物品向量的点积）。
//
// 约定：
//   - 用户或物品向量缺失 → emb_sim = 0.0（0 是合法特征值，不是缺失标记）
//   - 向量已在离线侧归一化，此处不做归一化
//   - 候选池其余五个位次特征由 recall.Fanout 写入，此 Node 不触碰
type EmbSimNode struct {
	Store EmbeddingStore
}

func (n *EmbSimNode) Name() string        { return "feature.emb_sim" }
func (n *EmbSimNode) Kind() pipeline.Kind { return pipeline.KindFeature }

func (n *EmbSimNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	var uvec []float64
	if n.Store != nil && rctx != nil {
		uvec, _ = n.Store.UserVector(ctx, rctx.UserID)
	}

	for _, it := range items {
		if it == nil {
			continue
		}
		sim := 0.0
		if uvec != nil {
			if ivec, ok := n.Store.ItemVector(ctx, it.ID); ok {
				sim = Dot(uvec, ivec)
			}
		}
		it.Features[core.FeatEmbSim] = sim
	}
	return items, nil
}
