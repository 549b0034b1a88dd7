package filter

import (
	"context"
	"encoding/json"

	"github.com/rushteam/recserve/core"
)

// BlacklistFilter 是黑名单过滤器，过滤掉黑名单中的物品。
// 黑名单可以是内存列表，也可以从 Store 读取（运营下架等场景）。
type BlacklistFilter struct {
	// ItemIDs 是内存中的黑名单物品 ID 列表
	ItemIDs []int64

	// Store 用于从存储中读取黑名单（可选，JSON 数组）
	Store core.Store

	// Key 是 Store 中的黑名单 key（可选）
	Key string

	ids map[int64]struct{}
}

// NewBlacklistFilter 创建一个黑名单过滤器。
func NewBlacklistFilter(itemIDs []int64, s core.Store, key string) *BlacklistFilter {
	ids := make(map[int64]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		ids[id] = struct{}{}
	}
	return &BlacklistFilter{
		ItemIDs: itemIDs,
		Store:   s,
		Key:     key,
		ids:     ids,
	}
}

func (f *BlacklistFilter) Name() string {
	return "filter.blacklist"
}

func (f *BlacklistFilter) ShouldFilter(
	ctx context.Context,
	_ *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}

	if f.ids != nil {
		if _, ok := f.ids[item.ID]; ok {
			return true, nil
		}
	}

	if f.Store != nil && f.Key != "" {
		data, err := f.Store.Get(ctx, f.Key)
		if err == nil {
			var blacklist []int64
			if json.Unmarshal(data, &blacklist) == nil {
				for _, id := range blacklist {
					if item.ID == id {
						return true, nil
					}
				}
			}
		}
	}

	return false, nil
}
