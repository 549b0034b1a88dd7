package recall

import (
	"context"

	"github.com/rushteam/recserve/core"
)

// DefaultItemCFLimit 是 i2i 召回的默认截断长度。
const DefaultItemCFLimit = 300

// ItemCF 是 i2i 协同过滤召回源：以用户最近一次点击的物品为 key，
// 查离线产出的 Top300 近邻表。
//
// 工程特征：
//   - 实时性：好（离线算相似度，在线查表）
//   - 冷启动：差（没有 last click 就没有 key，冷用户不走此链路）
//
// 在 recserve 中的位置：
//   - 候选池优先级最高的来源（最可信，整体位次的首选裁定者）
//   - 位次特征：cf_rank
type ItemCF struct {
	Store NeighborStore

	// Limit 截断长度，<= 0 时取 DefaultItemCFLimit
	Limit int
}

func (r *ItemCF) Name() string        { return "recall.i2i" }
func (r *ItemCF) RankFeature() string { return core.FeatCFRank }

func (r *ItemCF) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]int64, error) {
	if r.Store == nil || rctx == nil || rctx.LastClick == core.NoLastClick {
		return nil, nil
	}

	limit := r.Limit
	if limit <= 0 {
		limit = DefaultItemCFLimit
	}

	items, err := r.Store.SimilarItems(ctx, rctx.LastClick, limit)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}
