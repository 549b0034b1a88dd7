// Package recserve 是一个多路召回推荐服务（Recommendation Serving）。
//
// 设计要点：
// - Pipeline-first: 暖用户推荐逻辑通过 Node 串联（Recall → Filter → Feature → Rank → ReRank）
// - 冷暖分流: 无交互历史的用户走环境热门混合（coldstart 包），不进 Pipeline
// - 工件只读: 候选表/榜单/向量/模型启动时一次性加载校验（artifact 包），热路径零 I/O
// - Labels-first: labels 全链路透传与标准化 merge，支持 explain / 观测 / 策略驱动
package recserve

import "github.com/rushteam/recserve/pipeline"

// 轻量 facade：便于用户直接 import "recserve" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall  = pipeline.KindRecall
	KindFilter  = pipeline.KindFilter
	KindFeature = pipeline.KindFeature
	KindRank    = pipeline.KindRank
	KindReRank  = pipeline.KindReRank
)
