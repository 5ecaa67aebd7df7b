package gateway

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jacl-coder/PixelStorm-Arena/internal/auth"
)

// AuthHandler 令牌校验处理器。账号注册与登录由外部服务负责。
type AuthHandler struct {
	verifier *auth.Verifier
	logger   zerolog.Logger
}

// NewAuthHandler 创建令牌校验处理器
func NewAuthHandler(verifier *auth.Verifier, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{verifier: verifier, logger: logger}
}

// RegisterHandlers 注册HTTP处理器
func (h *AuthHandler) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/auth/validate", h.handleValidate)
}

// bearerToken 从 Authorization 头或 token 查询参数中取令牌
func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

// handleValidate 校验令牌并返回其中的玩家ID
func (h *AuthHandler) handleValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		sendErrorResponse(w, h.logger, "仅支持GET方法", http.StatusMethodNotAllowed)
		return
	}
	if !h.verifier.Enabled() {
		sendErrorResponse(w, h.logger, "未启用令牌校验", http.StatusNotImplemented)
		return
	}

	subject, err := h.verifier.Subject(bearerToken(r))
	if err != nil {
		sendErrorResponse(w, h.logger, "令牌无效", http.StatusUnauthorized)
		return
	}
	sendSuccessResponse(w, h.logger, "令牌有效", map[string]string{"playerId": subject})
}

// authorize 启用令牌校验时要求令牌中的玩家ID与 playerID 一致
func authorize(verifier *auth.Verifier, r *http.Request, playerID string) (int, bool) {
	if !verifier.Enabled() {
		return 0, true
	}
	subject, err := verifier.Subject(bearerToken(r))
	if err != nil {
		return http.StatusUnauthorized, false
	}
	if subject != playerID {
		return http.StatusForbidden, false
	}
	return 0, true
}
