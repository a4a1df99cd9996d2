package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/sirupsen/logrus"
	"github.com/xtayzy/uniCrew/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ErrBadCredentials is returned by Authenticate for an unknown username or
// a wrong password
var ErrBadCredentials = errors.New("invalid username or password")

const resetAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// ResetPasswordLength is the length of passwords issued on reset
const ResetPasswordLength = 8

// AccountService handles credentials: login, password change and reset
type AccountService struct {
	db  *gorm.DB
	log *logrus.Entry
}

func NewAccountService(db *gorm.DB, log *logrus.Entry) *AccountService {
	return &AccountService{db: db, log: log}
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func randomPassword(n int) (string, error) {
	buf := make([]byte, n)
	max := big.NewInt(int64(len(resetAlphabet)))
	for i := range buf {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = resetAlphabet[idx.Int64()]
	}
	return string(buf), nil
}

// Authenticate checks username and password of an active account
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, err
	}
	if !checkPassword(user.PasswordHash, password) {
		return nil, ErrBadCredentials
	}
	if !user.IsActive {
		return nil, forbidden("account is not active")
	}
	return &user, nil
}

// ChangePasswordInput mirrors the change password form
type ChangePasswordInput struct {
	OldPassword  string `json:"old_password" validate:"required"`
	NewPassword1 string `json:"new_password1" validate:"required,min=8"`
	NewPassword2 string `json:"new_password2" validate:"required"`
}

// ChangePassword replaces actor's password and bumps the token version so
// previously issued tokens stop working
func (s *AccountService) ChangePassword(ctx context.Context, actor *models.User, in ChangePasswordInput) error {
	if !checkPassword(actor.PasswordHash, in.OldPassword) {
		return validation("old password is incorrect")
	}
	if in.NewPassword1 != in.NewPassword2 {
		return validation("new passwords do not match")
	}
	if in.OldPassword == in.NewPassword1 {
		return validation("new password must differ from the old one")
	}

	hash, err := hashPassword(in.NewPassword1)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Model(actor).Updates(map[string]interface{}{
		"password_hash": hash,
		"token_version": gorm.Expr("token_version + ?", 1),
	}).Error
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	actor.PasswordHash = hash
	actor.TokenVersion++
	s.log.WithField("user_id", actor.ID).Info("password changed")
	return nil
}

// ResetPassword issues a new random password for the account registered
// with email. The caller delivers the returned password to the user.
func (s *AccountService) ResetPassword(ctx context.Context, email string) (*models.User, string, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", validation("no user with this email")
		}
		return nil, "", err
	}

	password, err := randomPassword(ResetPasswordLength)
	if err != nil {
		return nil, "", fmt.Errorf("generate password: %w", err)
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, "", err
	}
	err = s.db.WithContext(ctx).Model(&user).Updates(map[string]interface{}{
		"password_hash": hash,
		"token_version": gorm.Expr("token_version + ?", 1),
	}).Error
	if err != nil {
		return nil, "", fmt.Errorf("update password: %w", err)
	}
	user.PasswordHash = hash
	user.TokenVersion++
	s.log.WithField("user_id", user.ID).Info("password reset")
	return &user, password, nil
}

// Refresh resolves the user behind a refresh token and checks the token
// version it was issued with is still current
func (s *AccountService) Refresh(ctx context.Context, userID uint, tokenVersion int) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBadCredentials
		}
		return nil, err
	}
	if !user.IsActive || user.TokenVersion != tokenVersion {
		return nil, ErrBadCredentials
	}
	return &user, nil
}
