package coldstart

import (
	"context"

	"github.com/rushteam/recserve/core"
	"github.com/rushteam/recserve/recall"
)

// PopStore 是环境键控热门分区的存储接口。
// 四个分区各自是离线产出的有序榜单；key 不存在返回空列表（静默跳过，不是错误）。
type PopStore interface {
	// TopByOS 按操作系统键控的热门榜
	TopByOS(ctx context.Context, os int) ([]int64, error)

	// TopByDevice 按设备分组键控的热门榜
	TopByDevice(ctx context.Context, device int) ([]int64, error)

	// TopByOSCountry 按 操作系统+国家 键控的热门榜
	TopByOSCountry(ctx context.Context, os int, country string) ([]int64, error)

	// TopByDeviceCountry 按 设备分组+国家 键控的热门榜
	TopByDeviceCountry(ctx context.Context, device int, country string) ([]int64, error)
}

// 四个分区的配额权重（十分制，k=10 时为 2/2/3/3），顺序即处理顺序：
// by_os → by_device → by_os_reg → by_dev_reg。
// 用整数权重避免浮点取整误差（10*0.3 在 float64 下会落到 2.9999...）。
var quotaWeights = [4]int{2, 2, 3, 3}

// ContextPopularity 是冷启动混合器：按固定比例从四个环境分区取头部物品，
// 先到先得去重，分区缺失静默跳过，不足部分用全局热门榜回填。
//
// 输出顺序 = 分区顺序 × 分区内位次，确定性。
type ContextPopularity struct {
	Store PopStore

	// Global 是全局热门榜（回填来源），与暖链路的热门召回共用一份数据。
	Global recall.PopularityStore
}

// Allocate 计算 k 条结果在四个分区上的配额。
// 规则：base_i = floor(k * w_i)，余数按分区声明顺序逐个 +1 补齐，
// 保证配额总和恒等于 k。k=10 → 2,2,3,3；k=7 → 2,1,2,2；k=1 → 1,0,0,0。
func Allocate(k int) [4]int {
	var quotas [4]int
	if k <= 0 {
		return quotas
	}

	total := 0
	for i, w := range quotaWeights {
		quotas[i] = k * w / 10
		total += quotas[i]
	}
	for i := 0; total < k; i = (i + 1) % len(quotas) {
		quotas[i]++
		total++
	}
	return quotas
}

// Blend 为冷启动用户产出长度 min(k, 可用去重物品数) 的推荐列表。
// used 是覆盖合并后的生效环境；任何数据缺口都不报错。
func (b *ContextPopularity) Blend(
	ctx context.Context,
	used core.UserContext,
	k int,
) ([]int64, error) {
	if k <= 0 {
		return nil, nil
	}

	quotas := Allocate(k)
	res := make([]int64, 0, k)
	seen := make(map[int64]struct{}, k)

	partitions := [4]func(context.Context) ([]int64, error){
		func(ctx context.Context) ([]int64, error) { return b.Store.TopByOS(ctx, used.OS) },
		func(ctx context.Context) ([]int64, error) { return b.Store.TopByDevice(ctx, used.Device) },
		func(ctx context.Context) ([]int64, error) { return b.Store.TopByOSCountry(ctx, used.OS, used.Country) },
		func(ctx context.Context) ([]int64, error) { return b.Store.TopByDeviceCountry(ctx, used.Device, used.Country) },
	}

	if b.Store != nil {
		for i, lookup := range partitions {
			if quotas[i] == 0 {
				continue
			}
			list, err := lookup(ctx)
			if err != nil || len(list) == 0 {
				// 分区缺失（未见过的环境组合）：静默跳过
				continue
			}
			extend(list, quotas[i], &res, seen)
		}
	}

	// 分区取完仍有空位（去重收缩/分区缺失）：用全局热门榜回填
	if len(res) < k && b.Global != nil {
		global, err := b.Global.TopItems(ctx, 0)
		if err == nil {
			extend(global, k-len(res), &res, seen)
		}
	}

	return res, nil
}

// extend 从榜单头部取 n 个未出现过的物品追加到 res。
func extend(list []int64, n int, res *[]int64, seen map[int64]struct{}) {
	if n <= 0 {
		return
	}
	added := 0
	for _, id := range list {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		*res = append(*res, id)
		added++
		if added == n {
			return
		}
	}
}
