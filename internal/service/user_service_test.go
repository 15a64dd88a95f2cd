package service

import (
	"errors"
	"testing"

	"meditalk-go/internal/model"
	"meditalk-go/pkg/hash"
	"meditalk-go/pkg/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTManager() *token.JWTManager {
	return token.NewJWTManager("test-secret", 1, 1)
}

func TestRegister(t *testing.T) {
	t.Run("只接受 doctor 和 patient 角色", func(t *testing.T) {
		svc := NewUserService(newFakeUserRepo(), newTestJWTManager())
		_, err := svc.Register("a@b.com", "password", "admin", "A", "B")
		assert.ErrorIs(t, err, ErrInvalidRole)
	})

	t.Run("注册成功后密码以哈希形式保存", func(t *testing.T) {
		repo := newFakeUserRepo()
		svc := NewUserService(repo, newTestJWTManager())

		user, err := svc.Register("maria@demo.com", "secret123", model.RolePatient, "Maria", "Garcia")
		require.NoError(t, err)
		assert.NotEqual(t, "secret123", user.Password)
		assert.True(t, hash.CheckPasswordHash("secret123", user.Password))
		assert.Equal(t, model.RolePatient, user.Role)
	})

	t.Run("邮箱已占用时拒绝注册", func(t *testing.T) {
		repo := newFakeUserRepo(testDoctor())
		svc := NewUserService(repo, newTestJWTManager())

		_, err := svc.Register("doctor@demo.com", "password", model.RoleDoctor, "Dr", "Dup")
		assert.ErrorIs(t, err, ErrEmailTaken)
	})
}

func TestLogin(t *testing.T) {
	hashed, err := hash.HashPassword("password")
	require.NoError(t, err)
	doctor := testDoctor()
	doctor.Password = hashed

	svc := NewUserService(newFakeUserRepo(doctor), newTestJWTManager())

	t.Run("正确的凭证签发两个 token", func(t *testing.T) {
		access, refresh, err := svc.Login("doctor@demo.com", "password")
		require.NoError(t, err)
		assert.NotEmpty(t, access)
		assert.NotEmpty(t, refresh)
		assert.NotEqual(t, access, refresh)
	})

	t.Run("错误的密码被拒绝", func(t *testing.T) {
		_, _, err := svc.Login("doctor@demo.com", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("未知用户与错误密码是同一个错误", func(t *testing.T) {
		_, _, err := svc.Login("nobody@demo.com", "password")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestRefreshToken(t *testing.T) {
	hashed, err := hash.HashPassword("password")
	require.NoError(t, err)
	doctor := testDoctor()
	doctor.Password = hashed

	svc := NewUserService(newFakeUserRepo(doctor), newTestJWTManager())
	_, refresh, err := svc.Login("doctor@demo.com", "password")
	require.NoError(t, err)

	t.Run("有效的 refresh token 换发新 token", func(t *testing.T) {
		access, newRefresh, err := svc.RefreshToken(refresh)
		require.NoError(t, err)
		assert.NotEmpty(t, access)
		assert.NotEmpty(t, newRefresh)
	})

	t.Run("无效的 refresh token 被拒绝", func(t *testing.T) {
		_, _, err := svc.RefreshToken("not-a-token")
		assert.Error(t, err)
	})
}

func TestListPatients(t *testing.T) {
	t.Run("返回仓储中的患者", func(t *testing.T) {
		repo := newFakeUserRepo()
		repo.patients = []model.User{*testPatient()}
		svc := NewUserService(repo, newTestJWTManager())

		patients := svc.ListPatients()
		require.Len(t, patients, 1)
		assert.Equal(t, "Maria", patients[0].FirstName)
	})

	t.Run("查询失败降级为空列表", func(t *testing.T) {
		repo := newFakeUserRepo()
		repo.listErr = errors.New("connection refused")
		svc := NewUserService(repo, newTestJWTManager())

		patients := svc.ListPatients()
		assert.NotNil(t, patients)
		assert.Empty(t, patients)
	})
}
