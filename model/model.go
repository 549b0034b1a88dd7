package model

// RankModel 是排序阶段的最小抽象：输入特征，输出一个可比较的分数。
// 具体实现可以是本地模型（GBDT JSON dump）或远程 RPC 服务。
type RankModel interface {
	Name() string
	Predict(features map[string]float64) (float64, error)
}

// BatchRankModel 是可选的批量打分扩展。
// 远程实现（RPCModel）借此把一次请求的整个候选池合并成单次调用。
type BatchRankModel interface {
	RankModel
	PredictBatch(featuresList []map[string]float64) ([]float64, error)
}
