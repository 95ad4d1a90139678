package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kampungalert/api/authz"
	"github.com/kampungalert/api/db"
)

func hqPrincipal() *authz.Principal {
	return &authz.Principal{UserID: 1, Username: "hq", Role: authz.RoleKplbHQ}
}

func TestUserCreate_RejectsUnknownRole(t *testing.T) {
	pg, _, err := sqlmock.New()
	require.NoError(t, err)
	defer pg.Close()

	svc := NewUserService(pg)

	_, err = svc.Create(context.Background(), &db.CreateUserRequest{
		Username: "x", Password: "y", Role: "warlord",
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUserCreate_KetuaKampungNeedsKampung(t *testing.T) {
	pg, _, err := sqlmock.New()
	require.NoError(t, err)
	defer pg.Close()

	svc := NewUserService(pg)

	_, err = svc.Create(context.Background(), &db.CreateUserRequest{
		Username: "rahman", Password: "secret", Role: "ketua_kampung",
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUserCreate_DuplicateUsername(t *testing.T) {
	pg, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer pg.Close()

	svc := NewUserService(pg)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("rahman").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, err = svc.Create(context.Background(), &db.CreateUserRequest{
		Username: "rahman", Password: "secret", Role: "penghulu",
	})
	assert.ErrorIs(t, err, ErrDuplicateUsername)
}

func TestUserCreate_NormalizesLegacyRoleSpelling(t *testing.T) {
	pg, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer pg.Close()

	svc := NewUserService(pg)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("rahman").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	// Stored canonically even when the request uses the legacy spelling.
	mock.ExpectQuery("INSERT INTO users").
		WithArgs("rahman", sqlmock.AnyArg(), "ketua_kampung", "Kampung Baru").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(3, time.Now()))

	user, err := svc.Create(context.Background(), &db.CreateUserRequest{
		Username: "rahman", Password: "secret", Role: "ketua kampung", KampungName: "Kampung Baru",
	})
	require.NoError(t, err)
	assert.Equal(t, "ketua_kampung", user.Role)
	require.NotNil(t, user.KampungName)
	assert.Equal(t, "Kampung Baru", *user.KampungName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserUpdate_KetuaKampungMayChangeOwnPasswordOnly(t *testing.T) {
	pg, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer pg.Close()

	svc := NewUserService(pg)
	kampung := "Kampung Baru"
	principal := &authz.Principal{UserID: 5, Role: authz.RoleKetuaKampung, Kampung: &kampung}
	password := "newsecret"

	mock.ExpectExec("UPDATE users SET password_hash = \\$1 WHERE id = \\$2").
		WithArgs(sqlmock.AnyArg(), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = svc.Update(context.Background(), principal, 5, &db.UpdateUserRequest{Password: &password})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserUpdate_KetuaKampungCannotTouchOthers(t *testing.T) {
	pg, _, err := sqlmock.New()
	require.NoError(t, err)
	defer pg.Close()

	svc := NewUserService(pg)
	kampung := "Kampung Baru"
	principal := &authz.Principal{UserID: 5, Role: authz.RoleKetuaKampung, Kampung: &kampung}
	password := "newsecret"

	err = svc.Update(context.Background(), principal, 6, &db.UpdateUserRequest{Password: &password})
	assert.ErrorIs(t, err, authz.ErrRoleNotPermitted)
}

func TestUserUpdate_KetuaKampungCannotChangeOwnRole(t *testing.T) {
	pg, _, err := sqlmock.New()
	require.NoError(t, err)
	defer pg.Close()

	svc := NewUserService(pg)
	kampung := "Kampung Baru"
	principal := &authz.Principal{UserID: 5, Role: authz.RoleKetuaKampung, Kampung: &kampung}
	role := "kplbHQ"

	err = svc.Update(context.Background(), principal, 5, &db.UpdateUserRequest{Role: &role})
	assert.ErrorIs(t, err, authz.ErrRoleNotPermitted)
}

func TestUserUpdate_HQPartialUpdate(t *testing.T) {
	pg, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer pg.Close()

	svc := NewUserService(pg)
	role := "penghulu"
	kampung := ""

	// Clearing the kampung stores NULL, not an empty string.
	mock.ExpectExec("UPDATE users SET role = \\$1, kampung_name = \\$2 WHERE id = \\$3").
		WithArgs("penghulu", nil, int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = svc.Update(context.Background(), hqPrincipal(), 4, &db.UpdateUserRequest{
		Role: &role, KampungName: &kampung,
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserUpdate_NotFound(t *testing.T) {
	pg, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer pg.Close()

	svc := NewUserService(pg)
	password := "x"

	mock.ExpectExec("UPDATE users SET password_hash = \\$1 WHERE id = \\$2").
		WithArgs(sqlmock.AnyArg(), int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = svc.Update(context.Background(), hqPrincipal(), 99, &db.UpdateUserRequest{Password: &password})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserDelete_SelfDeleteRefused(t *testing.T) {
	pg, _, err := sqlmock.New()
	require.NoError(t, err)
	defer pg.Close()

	svc := NewUserService(pg)

	err = svc.Delete(context.Background(), hqPrincipal(), 1)
	assert.ErrorIs(t, err, ErrSelfDelete)
}

func TestUserDelete_NotFound(t *testing.T) {
	pg, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer pg.Close()

	svc := NewUserService(pg)

	mock.ExpectExec("DELETE FROM users WHERE id = \\$1").
		WithArgs(int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = svc.Delete(context.Background(), hqPrincipal(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestKampungs_UnionAcrossTables(t *testing.T) {
	pg, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer pg.Close()

	svc := NewUserService(pg)

	mock.ExpectQuery("SELECT DISTINCT kampung FROM").
		WillReturnRows(sqlmock.NewRows([]string{"kampung"}).
			AddRow("Kampung Baru").
			AddRow("Kampung Seri"))

	kampungs, err := svc.Kampungs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Kampung Baru", "Kampung Seri"}, kampungs)
}
