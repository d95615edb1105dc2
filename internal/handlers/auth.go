package handlers

import (
	"net/http"

	"github.com/3Eeeecho/securevoice/internal/models"
	"github.com/3Eeeecho/securevoice/internal/pkg/xerr"
	"github.com/3Eeeecho/securevoice/internal/services/admin"
	"github.com/gin-gonic/gin"
)

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=64"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=255"`
}

// LoginRequest 登录请求结构体
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UserView struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type AuthResponse struct {
	Token string   `json:"token"`
	User  UserView `json:"user"`
}

func newUserView(u *models.User) UserView {
	return UserView{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// @Summary 用户注册
// @Description 用户注册接口，成功后直接返回 token
// @Tags 用户认证
// @Accept json
// @Produce json
// @Param data body RegisterRequest true "注册信息"
// @Success 201 {object} xerr.Response{data=AuthResponse} "注册成功"
// @Failure 400 {object} xerr.Response "参数错误"
// @Failure 409 {object} xerr.Response "邮箱已存在"
// @Router /api/v1/auth/register [post]
func Register(authService admin.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			// 参数绑定错误，使用通用错误响应
			xerr.Error(c, http.StatusBadRequest, xerr.ValidationFailedCode, err.Error())
			return
		}

		res, err := authService.Register(c.Request.Context(), req.Name, req.Email, req.Password)
		if err != nil {
			respondError(c, "Register", err)
			return
		}
		xerr.Success(c, http.StatusCreated, "User registered successfully", AuthResponse{Token: res.Token, User: newUserView(res.User)})
	}
}

// @Summary 用户登录
// @Description 用户登录接口
// @Tags 用户认证
// @Accept json
// @Produce json
// @Param data body LoginRequest true "登录信息"
// @Success 200 {object} xerr.Response{data=AuthResponse} "登录成功，返回token"
// @Failure 400 {object} xerr.Response "参数错误"
// @Failure 401 {object} xerr.Response "邮箱或密码错误"
// @Router /api/v1/auth/login [post]
func Login(authService admin.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			xerr.Error(c, http.StatusBadRequest, xerr.ValidationFailedCode, err.Error())
			return
		}

		res, err := authService.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			respondError(c, "Login", err)
			return
		}
		xerr.Success(c, http.StatusOK, "Login successful", AuthResponse{Token: res.Token, User: newUserView(res.User)})
	}
}

// @Summary 访客登录
// @Description 创建临时访客账号并返回 token
// @Tags 用户认证
// @Produce json
// @Success 201 {object} xerr.Response{data=AuthResponse} "登录成功"
// @Router /api/v1/auth/guest [post]
func LoginGuest(authService admin.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := authService.LoginGuest(c.Request.Context())
		if err != nil {
			respondError(c, "LoginGuest", err)
			return
		}
		xerr.Success(c, http.StatusCreated, "Guest login successful", AuthResponse{Token: res.Token, User: newUserView(res.User)})
	}
}
