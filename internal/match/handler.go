package match

import (
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/jacl-coder/PixelStorm-Arena/internal/store"
)

// MatchHandler 对局查询处理器
type MatchHandler struct {
	service *MatchService
	logger  zerolog.Logger
}

// NewMatchHandler 创建对局查询处理器
func NewMatchHandler(service *MatchService) *MatchHandler {
	return &MatchHandler{
		service: service,
		logger:  service.logger,
	}
}

// RegisterHandlers 注册HTTP处理器
func (h *MatchHandler) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/match/status", h.handleMatchStatus)
	mux.HandleFunc("/match/", h.handleMatchDetail)
}

// matchResponse 统一响应
type matchResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (h *MatchHandler) writeJSON(w http.ResponseWriter, status int, resp matchResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error().Err(err).Msg("编码响应失败")
	}
}

// handleMatchStatus 处理获取对局概况请求
func (h *MatchHandler) handleMatchStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "仅支持GET方法", http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, matchResponse{
		Success: true,
		Message: "查询成功",
		Data:    h.service.Status(),
	})
}

// handleMatchDetail 处理单局详情查询
func (h *MatchHandler) handleMatchDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "仅支持GET方法", http.StatusMethodNotAllowed)
		return
	}

	matchID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/match/"), "/")
	if matchID == "" || strings.Contains(matchID, "/") {
		h.writeJSON(w, http.StatusBadRequest, matchResponse{Message: "无效的对局ID"})
		return
	}

	detail, err := h.service.Detail(r.Context(), matchID)
	if err != nil {
		if store.IsNotFound(err) {
			h.writeJSON(w, http.StatusNotFound, matchResponse{Message: "对局不存在"})
			return
		}
		h.logger.Error().Err(err).Str("match_id", matchID).Msg("查询对局失败")
		h.writeJSON(w, http.StatusInternalServerError, matchResponse{Message: "查询对局失败"})
		return
	}

	h.writeJSON(w, http.StatusOK, matchResponse{
		Success: true,
		Message: "查询成功",
		Data:    detail,
	})
}
