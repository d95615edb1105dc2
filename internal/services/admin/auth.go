package admin

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/3Eeeecho/securevoice/internal/config"
	"github.com/3Eeeecho/securevoice/internal/models"
	"github.com/3Eeeecho/securevoice/internal/pkg/logger"
	"github.com/3Eeeecho/securevoice/internal/pkg/utils"
	"github.com/3Eeeecho/securevoice/internal/pkg/xerr"
	"github.com/3Eeeecho/securevoice/internal/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const MinPasswordLen = 6

type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	// LoginGuest 创建一个临时访客账号并直接登录
	LoginGuest(ctx context.Context) (*AuthResult, error)
}

// AuthResult 登录或注册成功后返回的用户和 JWT
type AuthResult struct {
	User  *models.User
	Token string
}

type authService struct {
	userRepo repositories.UserRepository
	cfg      *config.Config
	now      func() time.Time
}

// 确保authService实现了AuthService的方法
var _ AuthService = (*authService)(nil)

func NewAuthService(userRepo repositories.UserRepository, cfg *config.Config) AuthService {
	return &authService{
		userRepo: userRepo,
		cfg:      cfg,
		now:      time.Now,
	}
}

func (s *authService) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if n := utf8.RuneCountInString(name); n < 2 || n > 64 {
		return nil, xerr.NewCodeError(xerr.ValidationFailedCode, fmt.Errorf("%w: name must be between 2 and 64 characters", xerr.ErrValidationFailed))
	}
	if len(password) < MinPasswordLen {
		return nil, xerr.NewCodeError(xerr.ValidationFailedCode, fmt.Errorf("%w: password must be at least %d characters", xerr.ErrValidationFailed, MinPasswordLen))
	}

	//检查邮箱是否存在
	existing, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}
	if existing != nil {
		return nil, xerr.ErrEmailAlreadyExists
	}

	//哈希密码
	hashed, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hashed,
		Role:         models.RoleUser,
	}
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user in database: %w", err)
	}

	logger.Info("Register: 用户注册成功", zap.Uint64("userID", user.ID), zap.String("email", user.Email))
	return s.issue(user)
}

func (s *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	// 用户不存在和密码错误返回同一个错误
	if user == nil || user.Role == models.RoleGuest || !utils.CheckPasswordHash(password, user.PasswordHash) {
		logger.Warn("Login: 登录失败", zap.String("email", email))
		return nil, xerr.ErrInvalidCredentials
	}

	now := s.now()
	if err := s.userRepo.TouchLastLogin(ctx, user.ID, now); err != nil {
		logger.Warn("Login: 更新最后登录时间失败", zap.Uint64("userID", user.ID), zap.Error(err))
	} else {
		user.LastLoginAt = &now
	}
	return s.issue(user)
}

func (s *authService) LoginGuest(ctx context.Context) (*AuthResult, error) {
	id := uuid.NewString()
	// 访客不能用密码登录，随机密码只是为了满足非空约束
	hashed, err := utils.HashPassword(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	user := &models.User{
		Name:         "Guest " + id[:8],
		Email:        "guest-" + id + "@guest.securevoice.local",
		PasswordHash: hashed,
		Role:         models.RoleGuest,
		LastLoginAt:  &now,
	}
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create guest user: %w", err)
	}

	logger.Info("LoginGuest: 访客账号已创建", zap.Uint64("userID", user.ID))
	return s.issue(user)
}

//生成JWT Token
func (s *authService) issue(user *models.User) (*AuthResult, error) {
	token, err := utils.GenerateToken(
		user.ID,
		user.Name,
		user.Email,
		user.Role,
		s.cfg.JWT.SecretKey,
		s.cfg.JWT.Issuer,
		s.cfg.JWT.ExpiresIn,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &AuthResult{User: user, Token: token}, nil
}
