package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/natours/api/internal/constants"
	"github.com/natours/api/internal/dto"
	apperrors "github.com/natours/api/internal/errors"
	"github.com/natours/api/internal/model"
	"github.com/natours/api/internal/pipeline"
	"github.com/natours/api/internal/repository"
	ctxutil "github.com/natours/api/pkg/context"
	"github.com/natours/api/pkg/logger"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserStore is the user persistence the auth flows need.
type UserStore interface {
	Get(ctx context.Context, id uint, scopes ...pipeline.Scope) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*model.User, error)
	SetResetToken(ctx context.Context, id uint, tokenHash *string, expiresAt *time.Time) error
	UpdatePassword(ctx context.Context, id uint, hashedPassword string, changedAt time.Time) error
	RedeemResetToken(ctx context.Context, id uint, tokenHash string, now time.Time, hashedPassword string, changedAt time.Time) error
}

var _ UserStore = (*repository.UserRepository)(nil)

// Mailer delivers the auth emails.
type Mailer interface {
	SendWelcome(ctx context.Context, to, name, url string) error
	SendPasswordReset(ctx context.Context, to, name, url string, expiresAt time.Time) error
}

// AuthResult is a logged-in session.
type AuthResult struct {
	Token string
	User  *model.User
}

type AuthService struct {
	users   UserStore
	tokens  *TokenService
	mailer  Mailer
	baseURL string
	cost    int
	now     func() time.Time
}

type AuthOption func(*AuthService)

// WithBcryptCost overrides the password hashing cost, for tests.
func WithBcryptCost(cost int) AuthOption {
	return func(s *AuthService) { s.cost = cost }
}

// WithAuthClock overrides time.Now, for tests.
func WithAuthClock(now func() time.Time) AuthOption {
	return func(s *AuthService) { s.now = now }
}

func NewAuthService(users UserStore, tokens *TokenService, mailer Mailer, baseURL string, opts ...AuthOption) *AuthService {
	s := &AuthService{
		users:   users,
		tokens:  tokens,
		mailer:  mailer,
		baseURL: strings.TrimRight(baseURL, "/"),
		cost:    constants.BcryptCost,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Signup creates a plain user account and logs it in. Any role in the
// request is ignored.
func (s *AuthService) Signup(ctx context.Context, in *dto.SignupRequest) (*AuthResult, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "Signup")

	hashed, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	photo := in.Photo
	if photo == "" {
		photo = constants.DefaultUserPhoto
	}

	user := &model.User{
		Name:     strings.TrimSpace(in.Name),
		Email:    dto.NormalizeEmail(in.Email),
		Photo:    photo,
		Role:     model.RoleUser,
		Password: hashed,
		Active:   true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		logger.ErrorWithContext(ctx, "Failed to create user").
			String("email", user.Email).
			Err(err).
			Log()
		return nil, apperrors.FromDatabase(err, constants.ResourceUser)
	}

	if err := s.mailer.SendWelcome(ctx, user.Email, user.Name, s.baseURL+"/me"); err != nil {
		logger.WarnWithContext(ctx, "Welcome email not sent").
			Uint("user_id", user.ID).
			Err(err).
			Log()
	}

	logger.LogAuth(user.ID, "signup", true)
	return s.login(user)
}

// Login checks email and password.
func (s *AuthService) Login(ctx context.Context, in *dto.LoginRequest) (*AuthResult, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "Login")

	if strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return nil, apperrors.ErrMissingCredentials
	}

	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.WarnWithContext(ctx, "Login attempt for unknown email").Log()
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.FromDatabase(err, constants.ResourceUser)
	}

	if !s.checkPassword(user.Password, in.Password) {
		logger.LogAuth(user.ID, "login", false)
		return nil, apperrors.ErrInvalidCredentials
	}

	logger.LogAuth(user.ID, "login", true)
	return s.login(user)
}

// ForgotPassword stores a reset token for the account and mails the plain
// token. The stored token is dropped again when the email cannot be sent.
func (s *AuthService) ForgotPassword(ctx context.Context, in *dto.ForgotPasswordRequest) error {
	ctx = ctxutil.WithFunction(ctx, "service", "ForgotPassword")

	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrNoUserWithEmail
		}
		return apperrors.FromDatabase(err, constants.ResourceUser)
	}

	reset, err := s.tokens.CreateResetToken()
	if err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if err := s.users.SetResetToken(ctx, user.ID, &reset.Hash, &reset.ExpiresAt); err != nil {
		return apperrors.FromDatabase(err, constants.ResourceUser)
	}

	url := fmt.Sprintf("%s/api/v1/users/resetPassword/%s", s.baseURL, reset.Plain)
	if err := s.mailer.SendPasswordReset(ctx, user.Email, user.Name, url, reset.ExpiresAt); err != nil {
		logger.ErrorWithContext(ctx, "Failed to send password reset email").
			Uint("user_id", user.ID).
			Err(err).
			Log()
		if clearErr := s.users.SetResetToken(ctx, user.ID, nil, nil); clearErr != nil {
			logger.ErrorWithContext(ctx, "Failed to clear reset token").
				Uint("user_id", user.ID).
				Err(clearErr).
				Log()
		}
		return apperrors.WrapError(apperrors.ErrEmailSend, err)
	}

	logger.InfoWithContext(ctx, "Password reset token sent").
		Uint("user_id", user.ID).
		Log()
	return nil
}

// ResetPassword redeems a reset token. The token is single-use: the
// password is only written while the stored hash still matches, and the hash
// is cleared by the same write.
func (s *AuthService) ResetPassword(ctx context.Context, plainToken string, in *dto.ResetPasswordRequest) (*AuthResult, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "ResetPassword")

	tokenHash := HashResetToken(plainToken)
	now := s.now()
	user, err := s.users.GetByResetToken(ctx, tokenHash, now)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrResetTokenInvalid
		}
		return nil, apperrors.FromDatabase(err, constants.ResourceUser)
	}

	err = s.changePassword(user, in.Password, func(hashed string, changedAt time.Time) error {
		err := s.users.RedeemResetToken(ctx, user.ID, tokenHash, now, hashed, changedAt)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.WarnWithContext(ctx, "Reset token redeemed concurrently").
				Uint("user_id", user.ID).
				Log()
			return apperrors.ErrResetTokenInvalid
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.LogAuth(user.ID, "reset_password", true)
	return s.login(user)
}

// UpdatePassword changes the current user's password after checking the
// current one.
func (s *AuthService) UpdatePassword(ctx context.Context, in *dto.UpdatePasswordRequest) (*AuthResult, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "UpdatePassword")

	id, ok := ctxutil.GetUserID(ctx)
	if !ok {
		return nil, apperrors.ErrNotLoggedIn
	}

	user, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, apperrors.FromDatabase(err, constants.ResourceUser)
	}

	if !s.checkPassword(user.Password, in.PasswordCurrent) {
		logger.LogAuth(user.ID, "update_password", false)
		return nil, apperrors.ErrIncorrectPassword
	}

	err = s.changePassword(user, in.Password, func(hashed string, changedAt time.Time) error {
		return s.users.UpdatePassword(ctx, user.ID, hashed, changedAt)
	})
	if err != nil {
		return nil, err
	}

	logger.LogAuth(user.ID, "update_password", true)
	return s.login(user)
}

// changePassword hashes password and hands it to write. The change is
// backdated by a second so a token issued right after it is not treated as
// stale.
func (s *AuthService) changePassword(user *model.User, password string, write func(hashed string, changedAt time.Time) error) error {
	hashed, err := s.hashPassword(password)
	if err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	changedAt := s.now().Add(-time.Second)
	if err := write(hashed, changedAt); err != nil {
		return apperrors.FromDatabase(err, constants.ResourceUser)
	}

	user.Password = hashed
	user.PasswordChangedAt = &changedAt
	user.ClearResetToken()
	return nil
}

func (s *AuthService) login(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	return &AuthResult{Token: token, User: user}, nil
}

// hashPassword hashes password using bcrypt
func (s *AuthService) hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// checkPassword verifies password against hash
func (s *AuthService) checkPassword(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}
