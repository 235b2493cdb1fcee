package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/simkeeper/internal/common"
	"github.com/dmitrijs2005/simkeeper/internal/server/auth"
	"github.com/dmitrijs2005/simkeeper/internal/server/models"
	"github.com/dmitrijs2005/simkeeper/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adaInput() RegisterInput {
	return RegisterInput{
		Name:                 "Ada",
		Email:                "ada@x.com",
		Password:             "secret123",
		PasswordConfirmation: "secret123",
	}
}

func TestRegister_Success(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	rm := repomanager.NewInMemoryRepositoryManager()
	s := newUserService(t, db, rm, nil)

	user, token, err := s.Register(context.Background(), adaInput())
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
	assert.False(t, user.IsTumVerified)
	assert.NotEqual(t, "secret123", user.PasswordHash)
	assert.True(t, auth.CheckPassword(user.PasswordHash, "secret123"))

	claims, err := auth.ParseToken(token, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, "1", claims.Subject)
	assert.Equal(t, "ada@x.com", claims.Email)
	assert.NoError(t, mock.ExpectationsWereMet())

	logged, _, err := s.Login(context.Background(), "ada@x.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)
}

func TestRegister_EmptyTumIDStoredAsNull(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	s := newUserService(t, db, repomanager.NewInMemoryRepositoryManager(), nil)

	in := adaInput()
	empty := ""
	in.TumID = &empty
	user, _, err := s.Register(context.Background(), in)
	require.NoError(t, err)
	assert.Nil(t, user.TumID)
}

func TestRegister_DuplicateEmailIsConflict(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectRollback()

	rm := repomanager.NewInMemoryRepositoryManager()
	s := newUserService(t, db, rm, nil)

	_, _, err := s.Register(context.Background(), adaInput())
	require.NoError(t, err)

	other := RegisterInput{Name: "Someone", Email: "ada@x.com", Password: "different1", PasswordConfirmation: "different1"}
	_, _, err = s.Register(context.Background(), other)
	require.ErrorIs(t, err, common.ErrorAlreadyExists)

	var conflict *common.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "email", conflict.Field)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_DuplicateTumIDIsConflict(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectRollback()

	s := newUserService(t, db, repomanager.NewInMemoryRepositoryManager(), nil)

	tum := "ga12abc"
	in := adaInput()
	in.TumID = &tum
	_, _, err := s.Register(context.Background(), in)
	require.NoError(t, err)

	in2 := RegisterInput{Name: "Bob", Email: "bob@x.com", Password: "secret123", PasswordConfirmation: "secret123", TumID: &tum}
	_, _, err = s.Register(context.Background(), in2)

	var conflict *common.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "tum_id", conflict.Field)
}

func TestRegister_PasswordMismatchCreatesNothing(t *testing.T) {
	db, mock := newSQLMockDB(t)
	rm := repomanager.NewInMemoryRepositoryManager()
	s := newUserService(t, db, rm, nil)

	in := adaInput()
	in.PasswordConfirmation = "secret124"
	_, _, err := s.Register(context.Background(), in)
	require.ErrorIs(t, err, common.ErrorValidation)
	assert.Contains(t, violationsOf(t, err), "password")

	_, err = rm.Users(nil).GetByEmail(context.Background(), "ada@x.com")
	require.ErrorIs(t, err, common.ErrorNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_Validation(t *testing.T) {
	long := make([]byte, 256)
	for i := range long {
		long[i] = 'a'
	}

	tests := []struct {
		name   string
		mutate func(in *RegisterInput)
		fields []string
	}{
		{"missing name", func(in *RegisterInput) { in.Name = "" }, []string{"name"}},
		{"long name", func(in *RegisterInput) { in.Name = string(long) }, []string{"name"}},
		{"missing email", func(in *RegisterInput) { in.Email = "" }, []string{"email"}},
		{"malformed email", func(in *RegisterInput) { in.Email = "not-an-email" }, []string{"email"}},
		{"missing password", func(in *RegisterInput) { in.Password, in.PasswordConfirmation = "", "" }, []string{"password"}},
		{"short password", func(in *RegisterInput) { in.Password, in.PasswordConfirmation = "short", "short" }, []string{"password"}},
		{"password over bcrypt limit", func(in *RegisterInput) { in.Password, in.PasswordConfirmation = string(long[:73]), string(long[:73]) }, []string{"password"}},
		{"everything missing", func(in *RegisterInput) { *in = RegisterInput{} }, []string{"name", "email", "password"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, _ := newSQLMockDB(t)
			s := newUserService(t, db, repomanager.NewInMemoryRepositoryManager(), nil)

			in := adaInput()
			tt.mutate(&in)
			_, _, err := s.Register(context.Background(), in)
			v := violationsOf(t, err)
			for _, f := range tt.fields {
				assert.Contains(t, v, f)
			}
			assert.Len(t, v, len(tt.fields))
		})
	}
}

func TestRegister_PasswordByteLimit(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	rm := repomanager.NewInMemoryRepositoryManager()
	s := newUserService(t, db, rm, nil)

	// 25 three-byte runes: 75 bytes.
	tooLong := strings.Repeat("€", 25)
	in := adaInput()
	in.Password, in.PasswordConfirmation = tooLong, tooLong
	_, _, err := s.Register(context.Background(), in)
	require.ErrorIs(t, err, common.ErrorValidation)
	assert.Equal(t, "The password field must not be greater than 72 characters.", violationsOf(t, err)["password"])

	_, err = rm.Users(nil).GetByEmail(context.Background(), "ada@x.com")
	require.ErrorIs(t, err, common.ErrorNotFound)

	exact := strings.Repeat("a", 72)
	in.Password, in.PasswordConfirmation = exact, exact
	_, _, err = s.Register(context.Background(), in)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogin_UniformFailure(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	s := newUserService(t, db, repomanager.NewInMemoryRepositoryManager(), nil)
	_, _, err := s.Register(context.Background(), adaInput())
	require.NoError(t, err)

	_, _, wrongPassword := s.Login(context.Background(), "ada@x.com", "wrong-password")
	_, _, unknownEmail := s.Login(context.Background(), "nobody@x.com", "secret123")

	require.ErrorIs(t, wrongPassword, common.ErrorInvalidCredentials)
	require.ErrorIs(t, unknownEmail, common.ErrorInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestLogin_Validation(t *testing.T) {
	db, _ := newSQLMockDB(t)
	s := newUserService(t, db, repomanager.NewInMemoryRepositoryManager(), nil)

	_, _, err := s.Login(context.Background(), "", "")
	v := violationsOf(t, err)
	assert.Contains(t, v, "email")
	assert.Contains(t, v, "password")
}

func TestAuthenticate(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	s := newUserService(t, db, repomanager.NewInMemoryRepositoryManager(), nil)
	user, token, err := s.Register(context.Background(), adaInput())
	require.NoError(t, err)

	p, err := s.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, p.User.ID)
	assert.NotEmpty(t, p.Claims.ID)

	expired, _, err := auth.GenerateToken(user.ID, user.Email, []byte("k"), -time.Minute)
	require.NoError(t, err)
	ghost, _, err := auth.GenerateToken(999, "ghost@x.com", []byte("k"), time.Hour)
	require.NoError(t, err)
	foreign, _, err := auth.GenerateToken(user.ID, user.Email, []byte("other"), time.Hour)
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"empty":        "",
		"garbage":      "not-a-jwt",
		"expired":      expired,
		"deleted user": ghost,
		"wrong secret": foreign,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := s.Authenticate(context.Background(), tok)
			require.ErrorIs(t, err, common.ErrorUnauthorized)
		})
	}
}

func TestLogout_RevokesToken(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectCommit()

	s := newUserService(t, db, repomanager.NewInMemoryRepositoryManager(), nil)
	_, token, err := s.Register(context.Background(), adaInput())
	require.NoError(t, err)

	p, err := s.Authenticate(context.Background(), token)
	require.NoError(t, err)
	require.NoError(t, s.Logout(context.Background(), p))

	_, err = s.Authenticate(context.Background(), token)
	require.ErrorIs(t, err, common.ErrorUnauthorized)

	_, fresh, err := s.Login(context.Background(), "ada@x.com", "secret123")
	require.NoError(t, err)
	_, err = s.Authenticate(context.Background(), fresh)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogout_RollsBackOnBeginError(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin().WillReturnError(errBoom{})

	s := newUserService(t, db, repomanager.NewInMemoryRepositoryManager(), nil)
	p := &Principal{User: &models.User{ID: 1}, Claims: &auth.Claims{}}
	p.Claims.ID = "jti"

	err := s.Logout(context.Background(), p)
	require.Error(t, err)
}

func TestLogout_NilPrincipal(t *testing.T) {
	db, _ := newSQLMockDB(t)
	s := newUserService(t, db, repomanager.NewInMemoryRepositoryManager(), nil)
	require.ErrorIs(t, s.Logout(context.Background(), nil), common.ErrorUnauthorized)
}

func TestVerifyExternalIdentity(t *testing.T) {
	register := func(t *testing.T, v *fakeVerifier) (*UserService, int64) {
		db, mock := newSQLMockDB(t)
		mock.ExpectBegin()
		mock.ExpectCommit()
		s := newUserService(t, db, repomanager.NewInMemoryRepositoryManager(), v)
		user, _, err := s.Register(context.Background(), adaInput())
		require.NoError(t, err)
		return s, user.ID
	}

	t.Run("accepted", func(t *testing.T) {
		v := &fakeVerifier{}
		s, id := register(t, v)

		user, err := s.VerifyExternalIdentity(context.Background(), id, "ga12abc", "tum-pass")
		require.NoError(t, err)
		assert.True(t, user.IsTumVerified)
		require.NotNil(t, user.TumID)
		assert.Equal(t, "ga12abc", *user.TumID)
		assert.Equal(t, "ga12abc", v.username)
		assert.Equal(t, "tum-pass", v.password)
	})

	t.Run("rejected", func(t *testing.T) {
		s, id := register(t, &fakeVerifier{err: common.ErrorUnauthorized})

		_, err := s.VerifyExternalIdentity(context.Background(), id, "ga12abc", "bad")
		require.ErrorIs(t, err, common.ErrorUnauthorized)
	})

	t.Run("provider down hides detail", func(t *testing.T) {
		s, id := register(t, &fakeVerifier{err: errors.New("dial tcp 10.0.0.1:443: connection refused")})

		_, err := s.VerifyExternalIdentity(context.Background(), id, "ga12abc", "pw")
		require.ErrorIs(t, err, common.ErrUpstream)
		assert.NotContains(t, err.Error(), "10.0.0.1")
	})

	t.Run("validation", func(t *testing.T) {
		v := &fakeVerifier{}
		s, id := register(t, v)

		_, err := s.VerifyExternalIdentity(context.Background(), id, "", "")
		vs := violationsOf(t, err)
		assert.Contains(t, vs, "tum_id")
		assert.Contains(t, vs, "password")
		assert.Empty(t, v.username, "provider must not be called")
	})

	t.Run("unknown user", func(t *testing.T) {
		s, _ := register(t, &fakeVerifier{})

		_, err := s.VerifyExternalIdentity(context.Background(), 42, "ga12abc", "pw")
		require.ErrorIs(t, err, common.ErrorUnauthorized)
	})
}

func TestVerifyExternalIdentity_TumIDTaken(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectCommit()

	s := newUserService(t, db, repomanager.NewInMemoryRepositoryManager(), &fakeVerifier{})

	tum := "ga12abc"
	first := adaInput()
	first.TumID = &tum
	_, _, err := s.Register(context.Background(), first)
	require.NoError(t, err)

	bob, _, err := s.Register(context.Background(), RegisterInput{Name: "Bob", Email: "bob@x.com", Password: "secret123", PasswordConfirmation: "secret123"})
	require.NoError(t, err)

	_, err = s.VerifyExternalIdentity(context.Background(), bob.ID, tum, "pw")
	require.ErrorIs(t, err, common.ErrorAlreadyExists)
}
