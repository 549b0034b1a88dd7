// Package artifact 管理离线训练产出的静态工件：候选表、榜单、嵌入矩阵、
// 画像表、last-click 索引与重排模型。
//
// 生命周期约定：
//   - 启动时一次性加载并校验，之后整个进程生命周期内只读
//   - 并发请求无锁共享同一个 Bundle，任何请求期写入都是 bug
//   - 完整性错误（形状不符、模型损坏）在加载期致命，绝不留到请求期
package artifact

import (
	"context"
	"strconv"
	"strings"

	"github.com/rushteam/recserve/core"
	"github.com/rushteam/recserve/model"
)

// Bundle 是进程级只读工件集合。
// 稠密表按 ID 下标索引（用户/物品 ID 空间是 0..N-1）；
// 越界一律按"数据缺口"消化：空列表 / 缺省画像 / 冷用户，从不报错。
type Bundle struct {
	// LastClick 是用户 → 最近点击物品的稠密索引，-1 表示无历史（冷用户）
	LastClick []int64

	// Profiles 是用户 → 环境三元组的画像表（稀疏，缺行是常态）
	Profiles map[int64]core.UserContext

	// 四张候选表：CF 按物品键控，其余按用户键控
	CF     [][]int64 // i2i 近邻 Top300
	ALS    [][]int64 // 矩阵分解 Top100
	Neural [][]int64 // 双塔近邻 Top200

	// PopList 是全局热门榜（暖链路热门召回与冷启动回填共用）
	PopList []int64

	// 环境键控热门分区；复合 key 形如 "os|COUNTRY"（见 regionKey）
	ByOS            map[int][]int64
	ByDevice        map[int][]int64
	ByOSCountry     map[string][]int64
	ByDeviceCountry map[string][]int64

	// 双塔嵌入矩阵（离线已 L2 归一化），按 ID 下标索引
	UserVecs [][]float64
	ItemVecs [][]float64

	// GroundTruth 是评估展示用的用户 → 真实点击映射（可选）
	GroundTruth map[int64]int64

	// Model 是预训练的 GBDT 重排模型
	Model *model.GBDTModel
}

// regionKey 拼接环境维度与国家码的复合 key。
func regionKey(dim int, country string) string {
	return strconv.Itoa(dim) + "|" + strings.ToUpper(country)
}

// Validate 校验工件完整性。必备工件缺失或形状不符即 INVALID_ARTIFACT，
// 服务拒绝上线（Service.Ready 为 false）。
func (b *Bundle) Validate() error {
	if b == nil {
		return core.NewDomainError(core.ModuleArtifact, core.ErrorCodeInvalidArtifact,
			"artifact: bundle is nil")
	}
	if len(b.LastClick) == 0 {
		return core.NewDomainError(core.ModuleArtifact, core.ErrorCodeInvalidArtifact,
			"artifact: last_click index is empty")
	}
	if len(b.PopList) == 0 {
		return core.NewDomainError(core.ModuleArtifact, core.ErrorCodeInvalidArtifact,
			"artifact: global popularity list is empty")
	}
	if b.Model == nil {
		return core.NewDomainError(core.ModuleArtifact, core.ErrorCodeInvalidArtifact,
			"artifact: reranker model is missing")
	}

	// 嵌入矩阵：各行维度必须一致，且用户/物品两侧维度相同
	dim := 0
	for _, vec := range b.UserVecs {
		if dim == 0 {
			dim = len(vec)
		}
		if len(vec) != dim {
			return core.NewDomainError(core.ModuleArtifact, core.ErrorCodeInvalidArtifact,
				"artifact: ragged user embedding matrix")
		}
	}
	for _, vec := range b.ItemVecs {
		if dim == 0 {
			dim = len(vec)
		}
		if len(vec) != dim {
			return core.NewDomainError(core.ModuleArtifact, core.ErrorCodeInvalidArtifact,
				"artifact: item embedding dimension mismatch")
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// 召回存储适配（recall.NeighborStore / UserTopStore / PopularityStore）
// ---------------------------------------------------------------------------

type itemTable [][]int64

func (t itemTable) SimilarItems(_ context.Context, itemID int64, limit int) ([]int64, error) {
	return sliceRow(t, itemID, limit), nil
}

type userTable [][]int64

func (t userTable) TopItemsForUser(_ context.Context, userID int64, limit int) ([]int64, error) {
	return sliceRow(t, userID, limit), nil
}

type popTable []int64

func (t popTable) TopItems(_ context.Context, limit int) ([]int64, error) {
	if limit <= 0 || limit > len(t) {
		return t, nil
	}
	return t[:limit], nil
}

// sliceRow 取稠密表的一行并截断；越界返回空（缺口不是错误）。
func sliceRow(table [][]int64, id int64, limit int) []int64 {
	if id < 0 || id >= int64(len(table)) {
		return nil
	}
	row := table[id]
	if limit > 0 && len(row) > limit {
		row = row[:limit]
	}
	return row
}

// CFStore 返回 i2i 近邻表的召回适配。
func (b *Bundle) CFStore() itemTable { return itemTable(b.CF) }

// ALSStore 返回 ALS Top100 表的召回适配。
func (b *Bundle) ALSStore() userTable { return userTable(b.ALS) }

// NeuralStore 返回双塔 Top200 表的召回适配。
func (b *Bundle) NeuralStore() userTable { return userTable(b.Neural) }

// PopStore 返回全局热门榜的召回适配。
func (b *Bundle) PopStore() popTable { return popTable(b.PopList) }

// ---------------------------------------------------------------------------
// 冷启动分区适配（coldstart.PopStore）
// ---------------------------------------------------------------------------

func (b *Bundle) TopByOS(_ context.Context, os int) ([]int64, error) {
	return b.ByOS[os], nil
}

func (b *Bundle) TopByDevice(_ context.Context, device int) ([]int64, error) {
	return b.ByDevice[device], nil
}

func (b *Bundle) TopByOSCountry(_ context.Context, os int, country string) ([]int64, error) {
	return b.ByOSCountry[regionKey(os, country)], nil
}

func (b *Bundle) TopByDeviceCountry(_ context.Context, device int, country string) ([]int64, error) {
	return b.ByDeviceCountry[regionKey(device, country)], nil
}

// ---------------------------------------------------------------------------
// 嵌入适配（feature.EmbeddingStore）
// ---------------------------------------------------------------------------

func (b *Bundle) UserVector(_ context.Context, userID int64) ([]float64, bool) {
	if userID < 0 || userID >= int64(len(b.UserVecs)) {
		return nil, false
	}
	return b.UserVecs[userID], true
}

func (b *Bundle) ItemVector(_ context.Context, itemID int64) ([]float64, bool) {
	if itemID < 0 || itemID >= int64(len(b.ItemVecs)) {
		return nil, false
	}
	return b.ItemVecs[itemID], true
}

// ---------------------------------------------------------------------------
// 画像 / 冷暖判定 / 评估（service 侧使用）
// ---------------------------------------------------------------------------

// Profile 查画像表；缺行返回 false（冷用户通常没有画像，不是错误）。
func (b *Bundle) Profile(userID int64) (core.UserContext, bool) {
	ctx, ok := b.Profiles[userID]
	return ctx, ok
}

// LastClickOf 查 last-click 索引；越界按无历史处理。
func (b *Bundle) LastClickOf(userID int64) int64 {
	if userID < 0 || userID >= int64(len(b.LastClick)) {
		return core.NoLastClick
	}
	return b.LastClick[userID]
}

// GroundTruthOf 查评估用真实点击（可选工件）。
func (b *Bundle) GroundTruthOf(userID int64) (int64, bool) {
	if b.GroundTruth == nil {
		return 0, false
	}
	gt, ok := b.GroundTruth[userID]
	return gt, ok
}
