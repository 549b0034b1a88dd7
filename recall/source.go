package recall

import (
	"context"

	"github.com/rushteam/recserve/core"
)

// Source 表示一个可复用的召回源（i2i/ALS/热门/双塔）。
// 你可以把它理解为"可并发 fan-out 的策略单元"：
// 返回一个有序、有界的候选 ID 列表，位次即列表下标 +1。
//
// 约定：
//   - 表缺行/用户越界 → 返回空列表，绝不报错（数据缺口不是错误）
//   - 列表顺序由离线产出决定，召回源自身不重排
type Source interface {
	Name() string

	// RankFeature 返回该来源写入候选池的位次特征名（如 core.FeatCFRank）。
	RankFeature() string

	Recall(ctx context.Context, rctx *core.RecommendContext) ([]int64, error)
}

// NeighborStore 是物品近邻表的存储接口（i2i 协同过滤，按物品 ID 键控）。
type NeighborStore interface {
	// SimilarItems 获取与 itemID 最相似的前 limit 个物品（离线相似度序）。
	// 表中无此物品时返回空列表。
	SimilarItems(ctx context.Context, itemID int64, limit int) ([]int64, error)
}

// UserTopStore 是用户级离线 TopN 表的存储接口（ALS / 双塔，按用户 ID 键控）。
type UserTopStore interface {
	// TopItemsForUser 获取为 userID 预计算的前 limit 个物品。
	// 表中无此用户时返回空列表。
	TopItemsForUser(ctx context.Context, userID int64, limit int) ([]int64, error)
}

// PopularityStore 是全局热门榜的存储接口（与用户/环境无关）。
type PopularityStore interface {
	// TopItems 获取热门榜前 limit 个物品；limit <= 0 表示整榜。
	TopItems(ctx context.Context, limit int) ([]int64, error)
}
