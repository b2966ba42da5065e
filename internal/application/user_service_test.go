package application

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/user-account-service/internal/domain/apperr"
	"github.com/oksasatya/user-account-service/internal/domain/entity"
	"github.com/oksasatya/user-account-service/internal/domain/repository"
	"github.com/oksasatya/user-account-service/pkg/helpers"
)

// fakeRepo is an in-memory UserRepository for service tests.
type fakeRepo struct {
	users map[string]*entity.User
}

var _ repository.UserRepository = (*fakeRepo)(nil)

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: map[string]*entity.User{}}
}

func (f *fakeRepo) activeByEmail(email string) *entity.User {
	for _, u := range f.users {
		if u.Email == email && u.IsActive {
			return u
		}
	}
	return nil
}

func (f *fakeRepo) Create(_ context.Context, u *entity.User) error {
	if f.activeByEmail(u.Email) != nil {
		return apperr.ErrEmailExists
	}
	u.ID = uuid.NewString()
	u.IsActive = true
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	u, ok := f.users[id]
	if !ok || !u.IsActive {
		return nil, apperr.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	if u := f.activeByEmail(email); u != nil {
		cp := *u
		return &cp, nil
	}
	return nil, apperr.ErrNotFound
}

func (f *fakeRepo) GetByEmailForAuth(_ context.Context, email string) (*entity.User, error) {
	// Active row wins over soft-deleted rows sharing the address.
	var inactive *entity.User
	for _, u := range f.users {
		if u.Email != email {
			continue
		}
		if u.IsActive {
			cp := *u
			return &cp, nil
		}
		if inactive == nil || u.CreatedAt.After(inactive.CreatedAt) {
			inactive = u
		}
	}
	if inactive != nil {
		cp := *inactive
		return &cp, nil
	}
	return nil, apperr.ErrNotFound
}

func (f *fakeRepo) List(_ context.Context, fl entity.ListFilter) ([]*entity.User, int64, error) {
	var out []*entity.User
	for _, u := range f.users {
		if u.IsActive {
			cp := *u
			out = append(out, &cp)
		}
	}
	total := int64(len(out))
	if fl.Offset() >= len(out) {
		return nil, total, nil
	}
	end := fl.Offset() + fl.Limit
	if end > len(out) {
		end = len(out)
	}
	return out[fl.Offset():end], total, nil
}

func (f *fakeRepo) Update(_ context.Context, id string, in entity.UserUpdate) (*entity.User, error) {
	u, ok := f.users[id]
	if !ok || !u.IsActive {
		return nil, apperr.ErrNotFound
	}
	if in.Email != nil {
		if other := f.activeByEmail(*in.Email); other != nil && other.ID != id {
			return nil, apperr.ErrEmailExists
		}
		u.Email = *in.Email
	}
	if in.FirstName != nil {
		u.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		u.LastName = *in.LastName
	}
	if in.DateOfBirth != nil {
		u.DateOfBirth = in.DateOfBirth
	}
	if in.Gender != nil {
		u.Gender = in.Gender
	}
	if in.Phone != nil {
		u.Phone = in.Phone
	}
	u.UpdatedAt = time.Now()
	cp := *u
	return &cp, nil
}

func (f *fakeRepo) SoftDelete(_ context.Context, id string) (bool, error) {
	u, ok := f.users[id]
	if !ok || !u.IsActive {
		return false, nil
	}
	u.IsActive = false
	return true, nil
}

func (f *fakeRepo) UpdatePassword(_ context.Context, id, hash string) (bool, error) {
	u, ok := f.users[id]
	if !ok || !u.IsActive {
		return false, nil
	}
	u.Password = hash
	return true, nil
}

func (f *fakeRepo) SetVerified(_ context.Context, id string) (bool, error) {
	u, ok := f.users[id]
	if !ok || !u.IsActive {
		return false, nil
	}
	u.IsVerified = true
	now := time.Now()
	u.VerifiedAt = &now
	return true, nil
}

func (f *fakeRepo) UpdateLastLogin(_ context.Context, id string) error {
	if u, ok := f.users[id]; ok {
		now := time.Now()
		u.LastLoginAt = &now
	}
	return nil
}

func (f *fakeRepo) CountActive(_ context.Context) (int64, error) {
	var n int64
	for _, u := range f.users {
		if u.IsActive {
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) GetRecentlyCreated(_ context.Context, hours int) ([]*entity.User, error) {
	since := time.Now().Add(-time.Duration(hours) * time.Hour)
	var out []*entity.User
	for _, u := range f.users {
		if u.IsActive && u.CreatedAt.After(since) {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func newTestUserService(repo *fakeRepo) *UserService {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewUserService(repo, logger, bcrypt.MinCost)
}

func validInput() CreateUserInput {
	return CreateUserInput{
		Email:     "Jane.Doe@Example.com",
		Password:  "Xk9!mQr2#z",
		FirstName: " Jane ",
		LastName:  " Doe ",
	}
}

func TestCreateUser_Success(t *testing.T) {
	svc := newTestUserService(newFakeRepo())

	res, err := svc.CreateUser(context.Background(), validInput())
	require.NoError(t, err)

	assert.NotEmpty(t, res.ID)
	assert.Equal(t, "jane.doe@example.com", res.Email, "email is normalized")
	assert.Equal(t, "Jane", res.FirstName)
	assert.Equal(t, "Jane Doe", res.FullName)
	assert.True(t, res.IsActive)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	svc := newTestUserService(newFakeRepo())
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, validInput())
	require.NoError(t, err)

	// Same address with different case and whitespace still collides.
	in := validInput()
	in.Email = "  JANE.DOE@example.COM "
	_, err = svc.CreateUser(ctx, in)
	assert.ErrorIs(t, err, apperr.ErrEmailExists)
}

func TestCreateUser_Underage(t *testing.T) {
	svc := newTestUserService(newFakeRepo())

	dob := time.Now().AddDate(-12, 0, 0)
	in := validInput()
	in.DateOfBirth = &dob
	_, err := svc.CreateUser(context.Background(), in)
	assert.ErrorIs(t, err, apperr.ErrUnderage)
}

func TestAgeAt(t *testing.T) {
	date := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name string
		dob  time.Time
		now  time.Time
		want int
	}{
		{"day before birthday", date(2012, 6, 15), date(2025, 6, 14), 12},
		{"exact birthday", date(2012, 6, 15), date(2025, 6, 15), 13},
		{"day after birthday", date(2012, 6, 15), date(2025, 6, 16), 13},
		// Born Mar 1 of a leap year; the 13th birthday falls in a common
		// year where the year-days differ by one.
		{"leap year dob, exact birthday", date(2012, 3, 1), date(2025, 3, 1), 13},
		{"leap year dob, day before", date(2012, 3, 1), date(2025, 2, 28), 12},
		// Feb 29 birthdays roll to Mar 1 in common years.
		{"feb 29 dob, feb 28 common year", date(2012, 2, 29), date(2025, 2, 28), 12},
		{"feb 29 dob, mar 1 common year", date(2012, 2, 29), date(2025, 3, 1), 13},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ageAt(tt.dob, tt.now))
		})
	}
}

func TestCreateUser_ThirteenOrOlder(t *testing.T) {
	svc := newTestUserService(newFakeRepo())

	dob := time.Now().AddDate(-13, -1, 0)
	in := validInput()
	in.DateOfBirth = &dob
	_, err := svc.CreateUser(context.Background(), in)
	assert.NoError(t, err)
}

func TestAuthenticateUser_NonDistinguishability(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestUserService(repo)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, validInput())
	require.NoError(t, err)

	// Unknown email and wrong password fail identically.
	_, errUnknown := svc.AuthenticateUser(ctx, "nobody@example.com", "Xk9!mQr2#z")
	_, errWrongPw := svc.AuthenticateUser(ctx, "jane.doe@example.com", "wrong-password")
	assert.ErrorIs(t, errUnknown, apperr.ErrInvalidCredentials)
	assert.ErrorIs(t, errWrongPw, apperr.ErrInvalidCredentials)
	assert.Equal(t, errUnknown, errWrongPw)
}

func TestAuthenticateUser_Success(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestUserService(repo)
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, validInput())
	require.NoError(t, err)

	res, err := svc.AuthenticateUser(ctx, "jane.doe@example.com", "Xk9!mQr2#z")
	require.NoError(t, err)
	assert.Equal(t, created.ID, res.ID)
	assert.NotNil(t, repo.users[created.ID].LastLoginAt, "last login recorded")
}

func TestAuthenticateUser_Deactivated(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestUserService(repo)
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, validInput())
	require.NoError(t, err)
	require.NoError(t, svc.DeleteUser(ctx, created.ID))

	_, err = svc.AuthenticateUser(ctx, "jane.doe@example.com", "Xk9!mQr2#z")
	assert.ErrorIs(t, err, apperr.ErrAccountDeactivated)
}

func TestAuthenticateUser_AfterDeleteAndReRegister(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestUserService(repo)
	ctx := context.Background()

	// Register, deactivate, then register the same address again. The stale
	// inactive row must not shadow the new active account at login.
	first, err := svc.CreateUser(ctx, validInput())
	require.NoError(t, err)
	require.NoError(t, svc.DeleteUser(ctx, first.ID))

	in := validInput()
	in.Password = "Rg7!tVw4#m"
	second, err := svc.CreateUser(ctx, in)
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)

	res, err := svc.AuthenticateUser(ctx, "jane.doe@example.com", "Rg7!tVw4#m")
	require.NoError(t, err)
	assert.Equal(t, second.ID, res.ID)

	// The old password belongs to the dead row and no longer works.
	_, err = svc.AuthenticateUser(ctx, "jane.doe@example.com", "Xk9!mQr2#z")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
}

func TestDeleteUser_SoftDelete(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestUserService(repo)
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, validInput())
	require.NoError(t, err)

	before, err := repo.CountActive(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteUser(ctx, created.ID))

	_, err = svc.GetUser(ctx, created.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	after, err := repo.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, before-1, after)

	// The row itself survives for audit.
	assert.Contains(t, repo.users, created.ID)
	assert.False(t, repo.users[created.ID].IsActive)

	// A second delete reports not found.
	assert.ErrorIs(t, svc.DeleteUser(ctx, created.ID), apperr.ErrNotFound)
}

func TestUpdateUser_DuplicateEmail(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestUserService(repo)
	ctx := context.Background()

	first, err := svc.CreateUser(ctx, validInput())
	require.NoError(t, err)

	other := validInput()
	other.Email = "other@example.com"
	second, err := svc.CreateUser(ctx, other)
	require.NoError(t, err)

	email := "JANE.DOE@example.com"
	_, err = svc.UpdateUser(ctx, second.ID, entity.UserUpdate{Email: &email})
	assert.ErrorIs(t, err, apperr.ErrEmailExists)

	// Re-submitting your own email is not a conflict.
	own := "jane.doe@example.com"
	_, err = svc.UpdateUser(ctx, first.ID, entity.UserUpdate{Email: &own})
	assert.NoError(t, err)
}

func TestUpdateUser_PartialFields(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestUserService(repo)
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, validInput())
	require.NoError(t, err)

	name := "Janet"
	res, err := svc.UpdateUser(ctx, created.ID, entity.UserUpdate{FirstName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Janet", res.FirstName)
	assert.Equal(t, "Doe", res.LastName, "untouched field preserved")
}

func TestChangePassword_VerifiesCurrent(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestUserService(repo)
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, validInput())
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, created.ID, "wrong-current", "Nw8!pQr3#y")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)

	err = svc.ChangePassword(ctx, created.ID, "Xk9!mQr2#z", "Nw8!pQr3#y")
	require.NoError(t, err)

	assert.True(t, helpers.CheckPassword("Nw8!pQr3#y", repo.users[created.ID].Password))
}

func TestChangePassword_IgnoresStaleRowWithSameEmail(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestUserService(repo)
	ctx := context.Background()

	first, err := svc.CreateUser(ctx, validInput())
	require.NoError(t, err)
	require.NoError(t, svc.DeleteUser(ctx, first.ID))

	in := validInput()
	in.Password = "Rg7!tVw4#m"
	second, err := svc.CreateUser(ctx, in)
	require.NoError(t, err)

	// The hash is resolved by id, so the dead row's credential is irrelevant.
	require.NoError(t, svc.ChangePassword(ctx, second.ID, "Rg7!tVw4#m", "Nw8!pQr3#y"))
	assert.True(t, helpers.CheckPassword("Nw8!pQr3#y", repo.users[second.ID].Password))
}

func TestUserService_InvalidID(t *testing.T) {
	svc := newTestUserService(newFakeRepo())
	ctx := context.Background()

	_, err := svc.GetUser(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, apperr.ErrInvalidID)
	assert.ErrorIs(t, svc.DeleteUser(ctx, "42"), apperr.ErrInvalidID)
	assert.ErrorIs(t, svc.VerifyEmail(ctx, ""), apperr.ErrInvalidID)
}

func TestListUsers_Validation(t *testing.T) {
	svc := newTestUserService(newFakeRepo())
	ctx := context.Background()

	_, err := svc.ListUsers(ctx, entity.ListFilter{Page: 0, Limit: 10})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.ListUsers(ctx, entity.ListFilter{Page: 1, Limit: 101})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestListUsers_PaginationTotals(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestUserService(repo)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		in := validInput()
		in.Email = "user" + uuid.NewString() + "@example.com"
		_, err := svc.CreateUser(ctx, in)
		require.NoError(t, err)
	}

	res, err := svc.ListUsers(ctx, entity.ListFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(25), res.Total)
	assert.Equal(t, int64(3), res.TotalPages)
	assert.Len(t, res.Users, 10)
}

func TestResponseShaping_NoCredential(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestUserService(repo)
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, validInput())
	require.NoError(t, err)

	// The stored record carries a hash; the serialized response must not.
	hash := repo.users[created.ID].Password
	require.NotEmpty(t, hash)

	body, err := json.Marshal(created)
	require.NoError(t, err)
	assert.NotContains(t, string(body), hash)
	assert.NotContains(t, string(body), "password")
}
