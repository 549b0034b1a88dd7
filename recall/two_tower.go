package recall

import (
	"context"

	"github.com/rushteam/recserve/core"
)

// DefaultTwoTowerLimit 是双塔召回的默认截断长度。
const DefaultTwoTowerLimit = 200

// TwoTower 是双塔近邻召回源：查离线产出的用户级 Top200 表
// （User Tower 向量在物品向量空间中的最近邻，ANN 在离线侧完成）。
// 在线同样是纯查表，与 ALS 共用 UserTopStore 接口、各自键控不同的表。
//
// 位次特征：neural_rank。
type TwoTower struct {
	Store UserTopStore

	// Limit 截断长度，<= 0 时取 DefaultTwoTowerLimit
	Limit int
}

func (r *TwoTower) Name() string        { return "recall.two_tower" }
func (r *TwoTower) RankFeature() string { return core.FeatNeuralRank }

func (r *TwoTower) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]int64, error) {
	if r.Store == nil || rctx == nil {
		return nil, nil
	}

	limit := r.Limit
	if limit <= 0 {
		limit = DefaultTwoTowerLimit
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
