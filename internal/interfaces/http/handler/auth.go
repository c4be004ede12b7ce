package handler

import (
	"github.com/gin-gonic/gin"

	"copysmith-ai-api/internal/config"
	"copysmith-ai-api/internal/domain/repository"
	"copysmith-ai-api/internal/interfaces/http/dto"
	"copysmith-ai-api/pkg/auth"
	"copysmith-ai-api/pkg/logger"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	users repository.UserRepository
	jwt   *auth.JWTManager
	cfg   *config.JWTConfig
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(users repository.UserRepository, jwt *auth.JWTManager, cfg *config.JWTConfig) *AuthHandler {
	return &AuthHandler{
		users: users,
		jwt:   jwt,
		cfg:   cfg,
	}
}

// Login 登录并签发令牌
// @Summary 登录
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "登录请求"
// @Success 200 {object} dto.Response[dto.LoginResponse]
// @Failure 401 {object} dto.ErrorResponse
// @Router /v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, err.Error())
		return
	}

	user, err := h.users.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		dto.InternalError(c, "failed to look up user")
		return
	}
	if user == nil || !user.CheckPassword(req.Password) {
		// 不区分“用户不存在”与“密码错误”
		dto.Unauthorized(c, "invalid email or password")
		return
	}

	pair, err := h.jwt.GenerateTokenPair(user.ID, string(user.Role), h.cfg.AccessTTL, h.cfg.RefreshTTL)
	if err != nil {
		logger.Error(c.Request.Context(), "failed to issue token pair", err, "user_id", user.ID)
		dto.InternalError(c, "failed to issue tokens")
		return
	}

	dto.Success(c, dto.LoginResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    int64(h.cfg.AccessTTL.Seconds()),
		UserID:       user.ID,
	})
}
