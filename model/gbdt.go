package model

import (
	"encoding/json"
	"math"
	"os"
	"strconv"

	"github.com/rushteam/recserve/core"
)

// GBDTModel 实现了梯度提升树 (Gradient Boosted Decision Trees) 模型。
// 训练在离线侧完成，在线只加载树结构的 JSON dump 并做前向推理。
//
// 预测原理：
// 1. 每棵树从根节点出发，按"特征值 < 阈值走左、否则走右"落到叶子
// 2. 所有树的叶子值求和，再加 BaseScore
// 3. Objective 为 "binary" 时做 Sigmoid 变换；"regression" 时原样输出
//
// 重排场景的输入是固定的六维特征
// （cf_rank/als_rank/pop_rank/neural_rank/overall_rank/emb_sim），
// 模型 dump 中的 feature 字段直接引用特征名。
type GBDTModel struct {
	ModelName string     // 模型名（用于日志/监控）
	Objective string     // binary / regression
	BaseScore float64    // 基准分
	Trees     [][]TreeNode
}

// TreeNode 是树的单个节点：叶子节点只有 Value，内部节点带分裂条件。
// Left/Right 是同一棵树节点数组内的下标。
type TreeNode struct {
	Leaf      bool    `json:"leaf,omitempty"`
	Value     float64 `json:"value,omitempty"`
	Feature   string  `json:"feature,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	Left      int     `json:"left,omitempty"`
	Right     int     `json:"right,omitempty"`
}

// LoadGBDTModel 从 JSON 文件加载 GBDT 模型。
// 结构损坏（空树、下标越界、内部节点缺 feature）是工件完整性错误，
// 加载期致命，绝不留到请求期。
func LoadGBDTModel(path string) (*GBDTModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseGBDTModel(data)
}

// ParseGBDTModel 从 JSON 字节解析 GBDT 模型并校验结构。
func ParseGBDTModel(data []byte) (*GBDTModel, error) {
	var raw struct {
		Name      string       `json:"name"`
		Objective string       `json:"objective"`
		BaseScore float64      `json:"base_score"`
		Trees     [][]TreeNode `json:"trees"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidArtifact,
			"gbdt: parse model dump: "+err.Error())
	}

	m := &GBDTModel{
		ModelName: raw.Name,
		Objective: raw.Objective,
		BaseScore: raw.BaseScore,
		Trees:     raw.Trees,
	}
	if m.ModelName == "" {
		m.ModelName = "gbdt"
	}
	if m.Objective == "" {
		m.Objective = "binary"
	}

	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *GBDTModel) validate() error {
	if len(m.Trees) == 0 {
		return core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidArtifact,
			"gbdt: model has no trees")
	}
	for ti, tree := range m.Trees {
		if len(tree) == 0 {
			return core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidArtifact,
				"gbdt: empty tree in model dump")
		}
		for _, node := range tree {
			if node.Leaf {
				continue
			}
			if node.Feature == "" {
				return core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidArtifact,
					"gbdt: split node without feature")
			}
			if node.Left < 0 || node.Left >= len(tree) ||
				node.Right < 0 || node.Right >= len(tree) {
				return core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidArtifact,
					"gbdt: child index out of range in tree "+strconv.Itoa(ti))
			}
		}
	}
	return nil
}

func (m *GBDTModel) Name() string { return m.ModelName }

// Predict 对单个特征向量打分。缺失特征按 0 处理
// （重排链路的六个特征总是齐全的，这只是防御性约定）。
func (m *GBDTModel) Predict(features map[string]float64) (float64, error) {
	score := m.BaseScore
	for _, tree := range m.Trees {
		score += traverse(tree, features)
	}
	if m.Objective == "binary" {
		return 1 / (1 + math.Exp(-score)), nil
	}
	return score, nil
}

// traverse 单棵树前向：从下标 0 的根出发走到叶子。
// 结构已在加载期校验，环路以 len(tree) 步数上限兜底。
func traverse(tree []TreeNode, features map[string]float64) float64 {
	idx := 0
	for step := 0; step <= len(tree); step++ {
		node := tree[idx]
		if node.Leaf {
			return node.Value
		}
		if features[node.Feature] < node.Threshold {
			idx = node.Left
		} else {
			idx = node.Right
		}
	}
	return 0
}
