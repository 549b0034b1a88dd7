package rank

import (
	"context"
	"sort"

	"github.com/rushteam/recserve/core"
	"github.com/rushteam/recserve/model"
	"github.com/rushteam/recserve/pipeline"
	"github.com/rushteam/recserve/pkg/utils"
)

// GBDTNode 是重排 Node：用预训练模型对候选池的六维特征打分并降序排序。
// - 写入 labels：rank_model
// - 更新 item.Score
// - 分数相同按 overall_rank 升序决胜（粗粒度特征会产生同分，
//   不决胜则排序不确定）
//
// 候选池为空时直接透传，不报错。
type GBDTNode struct {
	Model model.RankModel
}

func (n *GBDTNode) Name() string        { return "rank.gbdt" }
func (n *GBDTNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *GBDTNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.Model == nil || len(items) == 0 {
		return items, nil
	}

	// 批量实现可把整个候选池合并成一次调用（远程模型场景）
	if batch, ok := n.Model.(model.BatchRankModel); ok {
		featuresList := make([]map[string]float64, len(items))
		for i, it := range items {
			featuresList[i] = it.Features
		}
		scores, err := batch.PredictBatch(featuresList)
		if err != nil {
			return nil, err
		}
		for i, it := range items {
			it.Score = scores[i]
			it.PutLabel("rank_model", utils.Label{Value: n.Model.Name(), Source: "rank"})
		}
	} else {
		for _, it := range items {
			if it == nil {
				continue
			}
			score, err := n.Model.Predict(it.Features)
			if err != nil {
				return nil, err
			}
			it.Score = score
			it.PutLabel("rank_model", utils.Label{Value: n.Model.Name(), Source: "rank"})
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i] == nil {
			return false
		}
		if items[j] == nil {
			return true
		}
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].Features[core.FeatOverallRank] < items[j].Features[core.FeatOverallRank]
	})
	return items, nil
}
