package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/3Eeeecho/securevoice/internal/pkg/utils"
	"github.com/3Eeeecho/securevoice/internal/pkg/xerr"
	"github.com/3Eeeecho/securevoice/internal/services/admin"
)

type UserHandler struct {
	userService admin.UserService
}

func NewUserHandler(userService admin.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

type ProfileView struct {
	UserView
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// GetUserProfile 处理获取已认证用户资料的请求。
// @Summary 获取当前用户资料
// @Description 检索已认证用户的资料详情。
// @Tags User
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} xerr.Response{data=ProfileView} "用户资料检索成功"
// @Failure 401 {object} xerr.Response "未授权"
// @Failure 404 {object} xerr.Response "用户未找到"
// @Failure 500 {object} xerr.Response "内部服务器错误"
// @Router /api/v1/auth/me [get]
func (h *UserHandler) GetUserProfile(c *gin.Context) {
	currentUserID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}

	user, err := h.userService.GetUserProfile(c.Request.Context(), currentUserID)
	if err != nil {
		respondError(c, "GetUserProfile", err)
		return
	}

	xerr.Success(c, http.StatusOK, "User profile", ProfileView{
		UserView:    newUserView(user),
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
	})
}
