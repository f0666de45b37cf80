package repository

import (
	"context"
	"strings"
	"time"

	"github.com/natours/api/internal/constants"
	"github.com/natours/api/internal/model"
	"github.com/natours/api/internal/pipeline"
	ctxutil "github.com/natours/api/pkg/context"
	"github.com/natours/api/pkg/logger"
	"gorm.io/gorm"
)

// UserSchema hides deactivated accounts from every query.
func UserSchema() Schema {
	return Schema{
		Resource: constants.ResourceUser,
		Columns: BaseColumns(map[string]string{
			"name":  "name",
			"email": "email",
			"photo": "photo",
			"role":  "role",
		}),
		Required: []string{"id"},
		Filters:  []pipeline.Scope{pipeline.SoftDeleteFilter("active", false)},
	}
}

type UserRepository struct {
	*Store[model.User]
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{Store: NewStore[model.User](db, UserSchema())}
}

// GetByEmail finds an active user by email, case-insensitively.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.First(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("email = ?", email)
	})
}

// GetByResetToken finds the user holding an unexpired reset token hash.
func (r *UserRepository) GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*model.User, error) {
	return r.First(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("password_reset_token = ? AND password_reset_expires > ?", tokenHash, now)
	})
}

// SetResetToken stores or clears a pending password reset.
func (r *UserRepository) SetResetToken(ctx context.Context, id uint, tokenHash *string, expiresAt *time.Time) error {
	ctx = ctxutil.WithFunction(ctx, "repository", "SetResetToken")

	logger.DebugWithContext(ctx, "Updating password reset token").
		Uint("user_id", id).
		Bool("has_token", tokenHash != nil).
		Log()

	return r.UpdateColumns(ctx, id, map[string]interface{}{
		"password_reset_token":   tokenHash,
		"password_reset_expires": expiresAt,
	})
}

// UpdatePassword stores a new hash, records when it changed and drops any
// pending reset token.
func (r *UserRepository) UpdatePassword(ctx context.Context, id uint, hashedPassword string, changedAt time.Time) error {
	ctx = ctxutil.WithFunction(ctx, "repository", "UpdatePassword")
	return r.writePassword(ctx, id, hashedPassword, changedAt)
}

// RedeemResetToken sets the password only while tokenHash is still the
// user's unexpired reset token, and clears the token in the same statement.
// A token that was already redeemed or has expired is gorm.ErrRecordNotFound.
func (r *UserRepository) RedeemResetToken(ctx context.Context, id uint, tokenHash string, now time.Time, hashedPassword string, changedAt time.Time) error {
	ctx = ctxutil.WithFunction(ctx, "repository", "RedeemResetToken")

	return r.writePassword(ctx, id, hashedPassword, changedAt, func(db *gorm.DB) *gorm.DB {
		return db.Where("password_reset_token = ? AND password_reset_expires > ?", tokenHash, now)
	})
}

func (r *UserRepository) writePassword(ctx context.Context, id uint, hashedPassword string, changedAt time.Time, scopes ...pipeline.Scope) error {
	err := r.UpdateColumns(ctx, id, map[string]interface{}{
		"password":               hashedPassword,
		"password_changed_at":    changedAt,
		"password_reset_token":   nil,
		"password_reset_expires": nil,
	}, scopes...)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to update user password").
			Uint("user_id", id).
			Err(err).
			Log()
		return err
	}

	logger.InfoWithContext(ctx, "User password updated successfully").
		Uint("user_id", id).
		Log()
	return nil
}

// Deactivate marks the account inactive; it disappears from every read.
func (r *UserRepository) Deactivate(ctx context.Context, id uint) error {
	ctx = ctxutil.WithFunction(ctx, "repository", "Deactivate")

	if err := r.UpdateColumns(ctx, id, map[string]interface{}{"active": false}); err != nil {
		return err
	}

	logger.InfoWithContext(ctx, "User deactivated").
		Uint("user_id", id).
		Log()
	return nil
}

// ClearExpiredResetTokens drops reset tokens whose expiry has passed.
func (r *UserRepository) ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "ClearExpiredResetTokens")

	var cleaned int64
	err := pipeline.Timed(ctx, constants.ResourceUser, "cleanup", func() error {
		result := r.DB().WithContext(ctx).
			Model(&model.User{}).
			Where("password_reset_token IS NOT NULL AND password_reset_expires < ?", now).
			Updates(map[string]interface{}{
				"password_reset_token":   nil,
				"password_reset_expires": nil,
			})
		cleaned = result.RowsAffected
		return result.Error
	})
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to clear expired reset tokens").
			Err(err).
			Log()
		return 0, err
	}

	logger.InfoWithContext(ctx, "Expired reset tokens cleared").
		Int64("cleaned_count", cleaned).
		Log()
	return cleaned, nil
}
