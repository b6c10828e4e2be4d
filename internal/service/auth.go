package service

import (
	"context"
	"strings"
	"time"

	"crm-pipeline/internal/core/auth"
	"crm-pipeline/internal/domain"
	"crm-pipeline/internal/notify"
	"crm-pipeline/pkg/utils"
)

const resetTokenTTL = 30 * time.Minute

// TokenStore 一次性密码重置 token（redis 实现在 core/cache）
type TokenStore interface {
	IssueResetToken(ctx context.Context, token, userID string, ttl time.Duration) error
	ConsumeResetToken(ctx context.Context, token string) (string, error)
}

type AuthService struct {
	users        domain.UserRepository
	jwter        *auth.JWTer
	tokens       TokenStore
	mail         notify.Sender
	resetBaseURL string
}

func NewAuthService(users domain.UserRepository, jwter *auth.JWTer, tokens TokenStore, mail notify.Sender, resetBaseURL string) *AuthService {
	return &AuthService{users: users, jwter: jwter, tokens: tokens, mail: mail, resetBaseURL: resetBaseURL}
}

type RegisterInput struct {
	Username string
	Password string
	Email    string
	Role     string
}

func (s *AuthService) Register(in RegisterInput) (*domain.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, domain.Invalid("username", "required")
	}
	if len(in.Password) < 6 {
		return nil, domain.Invalid("password", "must be at least 6 characters")
	}
	role := in.Role
	if role == "" {
		role = domain.RoleRep
	}
	if !domain.ValidRole(role) {
		return nil, domain.Invalid("role", "must be ADMIN, MANAGER or REP")
	}
	existing, err := s.users.FindByUsername(username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.Invalid("username", "already taken")
	}
	u := &domain.User{
		ID:           utils.NewID(),
		Username:     username,
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: utils.HashPassword(in.Password),
		Role:         role,
	}
	if err := s.users.Create(u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) Login(username, password string) (string, *domain.User, error) {
	u, err := s.users.FindByUsername(strings.TrimSpace(username))
	if err != nil {
		return "", nil, err
	}
	if u == nil || !utils.CheckPassword(password, u.PasswordHash) {
		return "", nil, domain.ErrInvalidCredentials
	}
	tok, err := s.jwter.Issue(u.ID, u.Username, u.Role)
	if err != nil {
		return "", nil, err
	}
	return tok, u, nil
}

type ProfilePatch struct {
	Username *string
	Email    *string
}

func (s *AuthService) UpdateProfile(userID string, p ProfilePatch) (*domain.User, error) {
	u, err := s.users.FindByID(userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.NotFound("user", userID)
	}
	if p.Username != nil {
		name := strings.TrimSpace(*p.Username)
		if name == "" {
			return nil, domain.Invalid("username", "required")
		}
		if name != u.Username {
			other, err := s.users.FindByUsername(name)
			if err != nil {
				return nil, err
			}
			if other != nil {
				return nil, domain.Invalid("username", "already taken")
			}
			u.Username = name
		}
	}
	if p.Email != nil {
		u.Email = strings.TrimSpace(*p.Email)
	}
	if err := s.users.Update(u); err != nil {
		return nil, err
	}
	return u, nil
}

type AdminUserPatch struct {
	Email *string
	Role  *string
}

// AdminUpdateUser 管理端改他人账号，角色调整走这里而不是 UpdateProfile
func (s *AuthService) AdminUpdateUser(userID string, p AdminUserPatch) (*domain.User, error) {
	u, err := s.users.FindByID(userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.NotFound("user", userID)
	}
	if p.Role != nil {
		if !domain.ValidRole(*p.Role) {
			return nil, domain.Invalid("role", "must be ADMIN, MANAGER or REP")
		}
		u.Role = *p.Role
	}
	if p.Email != nil {
		u.Email = strings.TrimSpace(*p.Email)
	}
	if err := s.users.Update(u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) ChangePassword(userID, oldPassword, newPassword string) error {
	u, err := s.users.FindByID(userID)
	if err != nil {
		return err
	}
	if u == nil {
		return domain.NotFound("user", userID)
	}
	if !utils.CheckPassword(oldPassword, u.PasswordHash) {
		return domain.Invalid("oldPassword", "incorrect")
	}
	if len(newPassword) < 6 {
		return domain.Invalid("newPassword", "must be at least 6 characters")
	}
	u.PasswordHash = utils.HashPassword(newPassword)
	return s.users.Update(u)
}

// RequestPasswordReset 不暴露邮箱是否存在：查不到也返回成功
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	u, err := s.users.FindByEmail(strings.TrimSpace(email))
	if err != nil {
		return err
	}
	if u == nil {
		return nil
	}
	token := utils.NewID()
	if err := s.tokens.IssueResetToken(ctx, token, u.ID, resetTokenTTL); err != nil {
		return err
	}
	link := s.resetBaseURL + "/reset-password/" + token
	s.mail.Send(u.Email, "Password reset",
		"A password reset was requested for your account.\n\nReset link: "+link+
			"\n\nThe link expires in 30 minutes. If you did not request this, ignore this mail.")
	return nil
}

func (s *AuthService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < 6 {
		return domain.Invalid("newPassword", "must be at least 6 characters")
	}
	uid, err := s.tokens.ConsumeResetToken(ctx, token)
	if err != nil {
		return err
	}
	if uid == "" {
		return domain.Invalid("token", "invalid or expired")
	}
	u, err := s.users.FindByID(uid)
	if err != nil {
		return err
	}
	if u == nil {
		return domain.Invalid("token", "invalid or expired")
	}
	u.PasswordHash = utils.HashPassword(newPassword)
	return s.users.Update(u)
}
