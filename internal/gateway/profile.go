package gateway

import (
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/jacl-coder/PixelStorm-Arena/internal/auth"
	"github.com/jacl-coder/PixelStorm-Arena/internal/models"
	"github.com/jacl-coder/PixelStorm-Arena/internal/store"
)

// ProfileHandler 玩家资料处理器
type ProfileHandler struct {
	store    store.Gateway
	verifier *auth.Verifier
	logger   zerolog.Logger
}

// NewProfileHandler 创建玩家资料处理器
func NewProfileHandler(st store.Gateway, verifier *auth.Verifier, logger zerolog.Logger) *ProfileHandler {
	return &ProfileHandler{store: st, verifier: verifier, logger: logger}
}

// RegisterHandlers 注册HTTP处理器
func (h *ProfileHandler) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/api/players/", h.handlePlayerProfile)
}

// UpdateProfileRequest 更新资料请求，只允许修改头像
type UpdateProfileRequest struct {
	AvatarID *int `json:"avatarId"`
}

// PlayerProfile 玩家资料
type PlayerProfile struct {
	*models.Player
	Statistics PlayerStatistics `json:"statistics"`
}

// PlayerStatistics 玩家统计信息
type PlayerStatistics struct {
	WinRate      float64 `json:"winRate"`      // 胜率(%)
	KD           float64 `json:"kd"`           // 击杀/死亡
	AverageKills float64 `json:"averageKills"` // 场均击杀
	NextLevelXP  int     `json:"nextLevelXp"`  // 距下一级所需经验
}

func statisticsOf(p *models.Player) PlayerStatistics {
	var s PlayerStatistics
	if p.MatchesPlayed > 0 {
		s.WinRate = float64(p.MatchesWon) * 100 / float64(p.MatchesPlayed)
		s.AverageKills = float64(p.TotalKills) / float64(p.MatchesPlayed)
	}
	if p.TotalDeaths > 0 {
		s.KD = float64(p.TotalKills) / float64(p.TotalDeaths)
	} else {
		s.KD = float64(p.TotalKills)
	}
	s.NextLevelXP = p.Level*models.ExpPerLevel - p.XP
	return s
}

// handlePlayerProfile 处理 /api/players/{id}
func (h *ProfileHandler) handlePlayerProfile(w http.ResponseWriter, r *http.Request) {
	playerID := strings.TrimPrefix(r.URL.Path, "/api/players/")
	if playerID == "" || strings.Contains(playerID, "/") {
		sendErrorResponse(w, h.logger, "无效的玩家ID", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.handleGetPlayerProfile(w, r, playerID)
	case http.MethodPut:
		h.handleUpdatePlayerProfile(w, r, playerID)
	default:
		sendErrorResponse(w, h.logger, "仅支持GET和PUT方法", http.StatusMethodNotAllowed)
	}
}

// handleGetPlayerProfile 处理获取玩家资料
func (h *ProfileHandler) handleGetPlayerProfile(w http.ResponseWriter, r *http.Request, playerID string) {
	player, err := h.store.GetPlayer(r.Context(), playerID)
	if err != nil {
		h.sendStoreError(w, err, playerID, "查询玩家信息失败")
		return
	}
	sendSuccessResponse(w, h.logger, "查询成功", PlayerProfile{Player: player, Statistics: statisticsOf(player)})
}

// handleUpdatePlayerProfile 处理更新玩家资料
func (h *ProfileHandler) handleUpdatePlayerProfile(w http.ResponseWriter, r *http.Request, playerID string) {
	if status, ok := authorize(h.verifier, r, playerID); !ok {
		sendErrorResponse(w, h.logger, "无权修改该玩家资料", status)
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendErrorResponse(w, h.logger, "无效的请求格式", http.StatusBadRequest)
		return
	}
	if req.AvatarID == nil {
		sendErrorResponse(w, h.logger, "缺少 avatarId", http.StatusBadRequest)
		return
	}
	if *req.AvatarID < 0 || *req.AvatarID >= models.AvatarCount {
		sendErrorResponse(w, h.logger, "无效的头像ID", http.StatusBadRequest)
		return
	}

	player, err := h.store.UpdatePlayer(r.Context(), playerID, models.PlayerUpdate{AvatarID: req.AvatarID})
	if err != nil {
		h.sendStoreError(w, err, playerID, "更新玩家资料失败")
		return
	}
	sendSuccessResponse(w, h.logger, "更新成功", PlayerProfile{Player: player, Statistics: statisticsOf(player)})
}

func (h *ProfileHandler) sendStoreError(w http.ResponseWriter, err error, playerID, message string) {
	if store.IsNotFound(err) {
		sendErrorResponse(w, h.logger, "玩家不存在", http.StatusNotFound)
		return
	}
	h.logger.Error().Err(err).Str("player_id", playerID).Msg(message)
	sendErrorResponse(w, h.logger, message, http.StatusInternalServerError)
}
