package application

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/user-account-service/internal/domain/apperr"
	"github.com/oksasatya/user-account-service/internal/domain/entity"
	repo "github.com/oksasatya/user-account-service/internal/domain/repository"
	"github.com/oksasatya/user-account-service/pkg/helpers"
)

const minAgeYears = 13

// UserService adds business rules on top of the user repository: uniqueness,
// minimum age, credential handling, and response shaping.
type UserService struct {
	Repo       repo.UserRepository
	Logger     *logrus.Logger
	BcryptCost int
}

func NewUserService(r repo.UserRepository, logger *logrus.Logger, bcryptCost int) *UserService {
	return &UserService{Repo: r, Logger: logger, BcryptCost: bcryptCost}
}

// CreateUserInput is the already-validated registration payload.
type CreateUserInput struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	DateOfBirth *time.Time
	Gender      *entity.Gender
	Phone       *string
}

// ListResult is the shaped output of the paginated listing.
type ListResult struct {
	Users      []*entity.UserResponse `json:"users"`
	Total      int64                  `json:"total"`
	TotalPages int64                  `json:"total_pages"`
	Page       int                    `json:"page"`
	Limit      int                    `json:"limit"`
}

// NormalizeEmail lower-cases and trims an email address; uniqueness is
// enforced on this normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperr.ErrInvalidID
	}
	return nil
}

func ageAt(dob time.Time, now time.Time) int {
	years := now.Year() - dob.Year()
	// AddDate keeps calendar semantics across leap years (Feb 29 birthdays
	// roll to Mar 1 in common years).
	if dob.AddDate(years, 0, 0).After(now) {
		years--
	}
	return years
}

func checkMinimumAge(dob *time.Time) error {
	if dob == nil {
		return nil
	}
	if ageAt(*dob, time.Now()) < minAgeYears {
		return apperr.ErrUnderage
	}
	return nil
}

// CreateUser registers a new account. The credential is hashed exactly once,
// here; a storage-level uniqueness race is remapped to the same conflict the
// synchronous pre-check produces.
func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput) (*entity.UserResponse, error) {
	if err := checkMinimumAge(in.DateOfBirth); err != nil {
		return nil, err
	}
	email := NormalizeEmail(in.Email)

	if _, err := s.Repo.GetByEmail(ctx, email); err == nil {
		return nil, apperr.ErrEmailExists
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, fmt.Errorf("create user: %w", err)
	}

	hash, err := helpers.HashPassword(in.Password, s.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("create user: hash password: %w", err)
	}

	u := &entity.User{
		Email:       email,
		Password:    hash,
		FirstName:   strings.TrimSpace(in.FirstName),
		LastName:    strings.TrimSpace(in.LastName),
		DateOfBirth: in.DateOfBirth,
		Gender:      in.Gender,
		Phone:       in.Phone,
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		if errors.Is(err, apperr.ErrEmailExists) {
			return nil, apperr.ErrEmailExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.Logger.WithFields(logrus.Fields{"user_id": u.ID, "email": u.Email}).Info("user created")
	return u.ToResponse(), nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (*entity.UserResponse, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	u, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.ToResponse(), nil
}

func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*entity.UserResponse, error) {
	u, err := s.Repo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	return u.ToResponse(), nil
}

// UpdateUser applies a partial profile update to an existing active record,
// re-validating age and email uniqueness when those fields change.
func (s *UserService) UpdateUser(ctx context.Context, id string, in entity.UserUpdate) (*entity.UserResponse, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	if err := checkMinimumAge(in.DateOfBirth); err != nil {
		return nil, err
	}
	if in.Gender != nil && !in.Gender.Valid() {
		return nil, apperr.ErrValidation
	}

	if in.Email != nil {
		email := NormalizeEmail(*in.Email)
		in.Email = &email
		if existing, err := s.Repo.GetByEmail(ctx, email); err == nil && existing.ID != id {
			return nil, apperr.ErrEmailExists
		} else if err != nil && !errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("update user: %w", err)
		}
	}
	if in.FirstName != nil {
		v := strings.TrimSpace(*in.FirstName)
		in.FirstName = &v
	}
	if in.LastName != nil {
		v := strings.TrimSpace(*in.LastName)
		in.LastName = &v
	}

	u, err := s.Repo.Update(ctx, id, in)
	if err != nil {
		if errors.Is(err, apperr.ErrEmailExists) || errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return u.ToResponse(), nil
}

func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}
	ok, err := s.Repo.SoftDelete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if !ok {
		return apperr.ErrNotFound
	}
	s.Logger.WithField("user_id", id).Info("user deactivated")
	return nil
}

// AuthenticateUser checks the credentials for login. Unknown email and wrong
// password produce the identical generic failure; a matching but deactivated
// account is reported as such. Updates the last-login timestamp on success.
func (s *UserService) AuthenticateUser(ctx context.Context, email, password string) (*entity.UserResponse, error) {
	u, err := s.Repo.GetByEmailForAuth(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	if !u.IsActive {
		return nil, apperr.ErrAccountDeactivated
	}
	if !helpers.CheckPassword(password, u.Password) {
		return nil, apperr.ErrInvalidCredentials
	}

	if err := s.Repo.UpdateLastLogin(ctx, u.ID); err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("update last login failed")
	} else {
		now := time.Now()
		u.LastLoginAt = &now
	}
	return u.ToResponse(), nil
}

// ChangePassword verifies the current password, then hashes and stores the new
// one. This is the single code path that rehashes a credential after creation.
func (s *UserService) ChangePassword(ctx context.Context, id, currentPassword, newPassword string) error {
	if err := validateID(id); err != nil {
		return err
	}
	u, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !helpers.CheckPassword(currentPassword, u.Password) {
		return apperr.ErrInvalidCredentials
	}

	hash, err := helpers.HashPassword(newPassword, s.BcryptCost)
	if err != nil {
		return fmt.Errorf("change password: hash: %w", err)
	}
	ok, err := s.Repo.UpdatePassword(ctx, id, hash)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	if !ok {
		return apperr.ErrNotFound
	}
	s.Logger.WithField("user_id", id).Info("password changed")
	return nil
}

// ResetPassword stores a new credential without the current-password check.
// Reachable only through the token-gated reset flow.
func (s *UserService) ResetPassword(ctx context.Context, id, newPassword string) error {
	if err := validateID(id); err != nil {
		return err
	}
	hash, err := helpers.HashPassword(newPassword, s.BcryptCost)
	if err != nil {
		return fmt.Errorf("reset password: hash: %w", err)
	}
	ok, err := s.Repo.UpdatePassword(ctx, id, hash)
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	if !ok {
		return apperr.ErrNotFound
	}
	return nil
}

func (s *UserService) VerifyEmail(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}
	ok, err := s.Repo.SetVerified(ctx, id)
	if err != nil {
		return fmt.Errorf("verify email: %w", err)
	}
	if !ok {
		return apperr.ErrNotFound
	}
	return nil
}

func (s *UserService) IsVerified(ctx context.Context, id string) (bool, error) {
	if err := validateID(id); err != nil {
		return false, err
	}
	u, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return u.IsVerified, nil
}

// ListUsers returns one page of users plus pagination totals.
func (s *UserService) ListUsers(ctx context.Context, f entity.ListFilter) (*ListResult, error) {
	if f.Page < 1 || f.Limit < 1 || f.Limit > entity.MaxListLimit {
		return nil, apperr.ErrValidation
	}
	users, total, err := s.Repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]*entity.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, u.ToResponse())
	}
	return &ListResult{
		Users:      out,
		Total:      total,
		TotalPages: int64(math.Ceil(float64(total) / float64(f.Limit))),
		Page:       f.Page,
		Limit:      f.Limit,
	}, nil
}

func (s *UserService) GetUserStats(ctx context.Context) (*entity.UserStats, error) {
	active, err := s.Repo.CountActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("user stats: %w", err)
	}
	recent, err := s.Repo.GetRecentlyCreated(ctx, 24)
	if err != nil {
		return nil, fmt.Errorf("user stats: %w", err)
	}
	return &entity.UserStats{ActiveUsers: active, NewLast24Hours: int64(len(recent))}, nil
}
