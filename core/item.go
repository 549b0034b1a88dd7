package core

import "github.com/rushteam/recserve/pkg/utils"

// 排序特征名：候选池合并（Fanout）写入前五个，特征补全（EmbSimNode）写入最后一个。
// 重排模型按这六个特征训练，名称与数值编码不可变更。
const (
	FeatCFRank      = "cf_rank"      // i2i 协同过滤中的位次（1 起）
	FeatALSRank     = "als_rank"     // ALS 矩阵分解中的位次
	FeatPopRank     = "pop_rank"     // 全局热门榜中的位次
	FeatNeuralRank  = "neural_rank"  // 双塔近邻中的位次
	FeatOverallRank = "overall_rank" // 候选池内首次出现的整体位次
	FeatEmbSim      = "emb_sim"      // 用户/物品向量点积（缺失为 0.0）
)

// AbsentRank 是"该来源未召回此物品"的哨兵位次。
// 最大真实位次为 1000，1001 即越界一位。重排模型以此数值编码训练，
// 改成可空类型会悄悄改变模型输入分布，必须保持 1001。
const AbsentRank = 1001.0

// Item 是推荐链路中的统一承载结构：特征、分数、元信息、标签。
// Labels 用于解释与策略驱动；Score 用于排序决策。
type Item struct {
	ID       int64
	Score    float64
	Features map[string]float64
	Labels   map[string]utils.Label
}

// NewItem 创建候选物品，四个来源位次预置为 AbsentRank 哨兵。
func NewItem(id int64) *Item {
	return &Item{
		ID: id,
		Features: map[string]float64{
			FeatCFRank:     AbsentRank,
			FeatALSRank:    AbsentRank,
			FeatPopRank:    AbsentRank,
			FeatNeuralRank: AbsentRank,
		},
		Labels: make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}
