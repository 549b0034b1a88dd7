// Package api 提供推荐服务的 HTTP 接入层（chi 路由）。
//
// 传输层只做三件事：解码请求、调用 service、编码响应；
// 不含任何推荐逻辑，错误语义由 core.DomainError 统一映射到状态码。
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rushteam/recserve/core"
	"github.com/rushteam/recserve/service"
)

// Server 包装 service.Service 并暴露 HTTP 端点。
type Server struct {
	svc *service.Service
	log *slog.Logger
}

// NewServer 创建 API 服务器。logger 为 nil 时使用 slog 默认值。
func NewServer(svc *service.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{svc: svc, log: logger}
}

// Router 构建路由：
//
//	POST /reco     推荐请求
//	GET  /healthz  就绪探针（工件未通过校验时 503）
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Post("/reco", s.handleRecommend)
	r.Get("/healthz", s.handleHealthz)
	return r
}

// recoRequest 是 POST /reco 的线格式。
// env 为可选的部分环境覆盖，省略的字段沿用存量画像。
type recoRequest struct {
	UserID *int64                `json:"user_id"`
	K      int                   `json:"k"`
	Env    *core.ContextOverride `json:"env,omitempty"`
}

// recoResponse 保持与离线评估侧一致的响应形状。
type recoResponse struct {
	Recommendations []int64         `json:"recommendations"`
	GroundTruth     *int64          `json:"ground_truth"`
	UserProfile     service.Profile `json:"user_profile"`
	UserType        string          `json:"user_type"`
	Algorithm       string          `json:"algorithm"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req recoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, core.ErrorCodeInvalidInput, "invalid request body")
		return
	}
	if req.UserID == nil {
		s.writeError(w, http.StatusBadRequest, core.ErrorCodeInvalidInput, "user_id is required")
		return
	}

	res, err := s.svc.Recommend(r.Context(), &service.Request{
		UserID: *req.UserID,
		K:      req.K,
		Env:    req.Env,
	})
	if err != nil {
		if core.IsInvalidInput(err) {
			s.writeError(w, http.StatusBadRequest, core.ErrorCodeInvalidInput, err.Error())
			return
		}
		s.log.Error("recommend failed",
			"user_id", *req.UserID,
			"err", err,
		)
		s.writeError(w, http.StatusInternalServerError, core.ErrorCodeInternalError, "internal error")
		return
	}

	s.log.Info("recommend",
		"user_id", *req.UserID,
		"k", req.K,
		"user_type", res.UserType,
		"returned", len(res.Recommendations),
		"elapsed", time.Since(start),
	)

	// 空结果编码为 []，不是 null
	recs := res.Recommendations
	if recs == nil {
		recs = []int64{}
	}
	s.writeJSON(w, http.StatusOK, recoResponse{
		Recommendations: recs,
		GroundTruth:     res.GroundTruth,
		UserProfile:     res.Profile,
		UserType:        res.UserType,
		Algorithm:       res.Algorithm,
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	if !s.svc.Ready() {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "loading"})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encode response", "err", err)
	}
}
