package service

import (
	"context"
	"errors"
	"time"

	"meditalk-go/internal/model"
	"meditalk-go/internal/repository"
	"meditalk-go/pkg/database"
	"meditalk-go/pkg/hash"
	"meditalk-go/pkg/log"
	"meditalk-go/pkg/token"

	"gorm.io/gorm"
)

// UserService 接口定义了所有与用户相关的业务操作。
type UserService interface {
	Register(email, password, role, firstName, lastName string) (*model.User, error)
	Login(email, password string) (accessToken, refreshToken string, err error)
	GetProfile(email string) (*model.User, error)
	Logout(tokenString string) error
	RefreshToken(refreshTokenString string) (newAccessToken, newRefreshToken string, err error)
	// ListPatients 返回全部患者，供医生发起会诊时选择。
	ListPatients() []model.User
}

// userService 是 UserService 接口的实现。
type userService struct {
	userRepo   repository.UserRepository
	jwtManager *token.JWTManager
}

// NewUserService 创建一个新的 UserService 实例。
func NewUserService(userRepo repository.UserRepository, jwtManager *token.JWTManager) UserService {
	return &userService{
		userRepo:   userRepo,
		jwtManager: jwtManager,
	}
}

// Register 处理用户注册的业务逻辑。角色在创建后不可变更。
func (s *userService) Register(email, password, role, firstName, lastName string) (*model.User, error) {
	if role != model.RoleDoctor && role != model.RolePatient {
		return nil, ErrInvalidRole
	}

	// 1. 检查邮箱是否已被占用（最终由唯一索引兜底）
	_, err := s.userRepo.FindByEmail(email)
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// 2. 对密码进行加盐哈希，不保留任何明文或演示旁路
	hashedPassword, err := hash.HashPassword(password)
	if err != nil {
		return nil, err
	}

	// 3. 创建新用户
	newUser := &model.User{
		Email:     email,
		Password:  hashedPassword,
		Role:      role,
		FirstName: firstName,
		LastName:  lastName,
	}
	if err := s.userRepo.Create(newUser); err != nil {
		log.Errorf("[UserService] 创建用户失败, email: %s, error: %v", email, err)
		return nil, ErrEmailTaken
	}

	return newUser, nil
}

// Login 处理用户登录的业务逻辑。只接受 bcrypt 校验，没有万能密码。
func (s *userService) Login(email, password string) (accessToken, refreshToken string, err error) {
	// 1. 查找用户
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", ErrInvalidCredentials
		}
		return "", "", err
	}

	// 2. 验证密码
	if !hash.CheckPasswordHash(password, user.Password) {
		return "", "", ErrInvalidCredentials
	}

	// 3. 生成 access token 和 refresh token
	accessToken, err = s.jwtManager.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		return "", "", err
	}
	refreshToken, err = s.jwtManager.GenerateRefreshToken(user.ID, user.Email, user.Role)
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

// GetProfile 根据邮箱获取用户详细信息。
func (s *userService) GetProfile(email string) (*model.User, error) {
	return s.userRepo.FindByEmail(email)
}

// Logout 处理用户登出逻辑，将 token 加入 Redis 黑名单。
// 会话在登录时建立，在此处销毁；黑名单的过期时间即 token 的剩余有效期。
func (s *userService) Logout(tokenString string) error {
	claims, err := s.jwtManager.VerifyToken(tokenString)
	if err != nil {
		return err
	}
	expiration := time.Until(claims.ExpiresAt.Time)
	return database.RDB.Set(context.Background(), "blacklist:"+tokenString, "true", expiration).Err()
}

// RefreshToken 验证 refresh token 并签发新的 access token 和 refresh token。
func (s *userService) RefreshToken(refreshTokenString string) (newAccessToken, newRefreshToken string, err error) {
	// 1. 验证 refresh token 是否有效
	claims, err := s.jwtManager.VerifyToken(refreshTokenString)
	if err != nil {
		return "", "", errors.New("invalid refresh token")
	}

	// 2. 检查用户是否存在
	user, err := s.userRepo.FindByEmail(claims.Email)
	if err != nil {
		return "", "", errors.New("user not found")
	}

	// 3. 签发新的 token
	newAccessToken, err = s.jwtManager.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		return "", "", err
	}
	newRefreshToken, err = s.jwtManager.GenerateRefreshToken(user.ID, user.Email, user.Role)
	if err != nil {
		return "", "", err
	}

	return newAccessToken, newRefreshToken, nil
}

// ListPatients 返回全部患者。基础设施故障降级为空列表，只记录日志。
func (s *userService) ListPatients() []model.User {
	patients, err := s.userRepo.FindPatients()
	if err != nil {
		log.Errorf("[UserService] 查询患者列表失败: %v", err)
		return []model.User{}
	}
	return patients
}
