package recall

import (
	"context"

	"github.com/rushteam/recserve/core"
)

// DefaultALSLimit 是 ALS 召回的默认截断长度。
const DefaultALSLimit = 100

// ALS 是矩阵分解召回源：查离线训练（交替最小二乘）产出的用户级 Top100 表。
// 在线不做任何向量计算，纯查表。
//
// 位次特征：als_rank。
type ALS struct {
	Store UserTopStore

	// Limit 截断长度，<= 0 时取 DefaultALSLimit
	Limit int
}

func (r *ALS) Name() string        { return "recall.als" }
func (r *ALS) RankFeature() string { return core.FeatALSRank }

func (r *ALS) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]int64, error) {
	if r.Store == nil || rctx == nil {
		return nil, nil
	}

	limit := r.Limit
	if limit <= 0 {
		limit = DefaultALSLimit
	}

	items, err := r.Store.TopItemsForUser(ctx, rctx.UserID, limit)
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
