// stats.go

package gateway

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/jacl-coder/PixelStorm-Arena/internal/models"
	"github.com/jacl-coder/PixelStorm-Arena/internal/store"
)

const (
	defaultLeaderboardLimit = 20
	maxLeaderboardLimit     = 100
)

// StatsHandler 排行榜处理器
type StatsHandler struct {
	leaderboard store.Leaderboard
	logger      zerolog.Logger
}

// NewStatsHandler 创建排行榜处理器
func NewStatsHandler(lb store.Leaderboard, logger zerolog.Logger) *StatsHandler {
	return &StatsHandler{leaderboard: lb, logger: logger}
}

// RegisterHandlers 注册HTTP处理器
func (h *StatsHandler) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/api/leaderboard", h.handleLeaderboard)
}

// LeaderboardData 排行榜数据
type LeaderboardData struct {
	Players []models.LeaderboardEntry `json:"players"`
}

// handleLeaderboard 处理排行榜查询
func (h *StatsHandler) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		sendErrorResponse(w, h.logger, "仅支持GET方法", http.StatusMethodNotAllowed)
		return
	}

	limit := defaultLeaderboardLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l <= 0 {
			sendErrorResponse(w, h.logger, "无效的 limit 参数", http.StatusBadRequest)
			return
		}
		limit = min(l, maxLeaderboardLimit)
	}

	entries, err := h.leaderboard.Top(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("查询排行榜失败")
		sendErrorResponse(w, h.logger, "查询排行榜失败", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []models.LeaderboardEntry{}
	}
	sendSuccessResponse(w, h.logger, "查询成功", LeaderboardData{Players: entries})
}
