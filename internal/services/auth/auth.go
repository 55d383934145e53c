// Package auth реализует бизнес-логику регистрации, входа
// и проверки JWT-токенов.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/greenbarter/plantswap/internal/lib/jwt"
	"github.com/greenbarter/plantswap/internal/lib/password"
	"github.com/greenbarter/plantswap/internal/models"
)

// ErrInvalidCredentials — пара username/пароль не подошла. Наружу не
// раскрывается, существует ли пользователь.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Интерфейс репозитория пользователей
type UserRepository interface {
	RegisterUser(ctx context.Context, user models.User) (string, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// Service реализует бизнес-логику авторизации и аутентификации.
type Service struct {
	users    UserRepository
	jwtMaker jwt.Maker
}

func New(users UserRepository, jwtMaker jwt.Maker) *Service {
	return &Service{
		users:    users,
		jwtMaker: jwtMaker,
	}
}

// Register создаёт нового пользователя: роль user, тариф FREE,
// стартовый баланс кредитов. Возвращает UID.
func (s *Service) Register(ctx context.Context, req models.DummyRegister) (string, error) {
	const op = "auth.Register"

	hashed, err := password.GetHash(req.Password)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	user := models.User{
		UID:              uuid.NewString(),
		Email:            req.Email,
		Username:         req.Username,
		PasswordHash:     hashed,
		Role:             models.RoleUser,
		SubscriptionTier: models.TierFree,
		Credits:          models.StartingCredits,
	}

	uid, err := s.users.RegisterUser(ctx, user)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return uid, nil
}

// Login проверяет пароль и возвращает JWT с username, ролью и UID,
// а также самого пользователя для ответа.
func (s *Service) Login(ctx context.Context, req models.DummyLogin) (string, *models.User, error) {
	const op = "auth.Login"

	user, err := s.users.GetUserByUsername(ctx, req.Username)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	if err := password.CompareHash(user.PasswordHash, req.Password); err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	token, err := s.jwtMaker.GenerateToken(user.Username, user.Role, user.UID)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	return token, user, nil
}

// ValidateToken разбирает JWT и возвращает его claims.
func (s *Service) ValidateToken(tokenStr string) (*jwt.CustomClaims, error) {
	const op = "auth.ValidateToken"

	claims, err := s.jwtMaker.ParseToken(tokenStr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return claims, nil
}
