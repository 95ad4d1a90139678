package handlers

import (
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kampungalert/api/authz"
	"github.com/kampungalert/api/services"
)

func TestListVictims_DistrictOfficerIs403(t *testing.T) {
	pg, _, err := sqlmock.New()
	require.NoError(t, err)
	defer pg.Close()

	h := NewVictimHandler(services.NewVictimService(pg))

	// District officers coordinate agencies; victim rosters stay with the
	// kampung hierarchy and HQ.
	c, w := testContext(t, http.MethodGet, "/victims", "")
	setPrincipal(c, &authz.Principal{UserID: 6, Role: authz.RoleDistrictOfficer})
	h.ListVictims(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRegisterVictim_PenghuluIs403(t *testing.T) {
	pg, _, err := sqlmock.New()
	require.NoError(t, err)
	defer pg.Close()

	h := NewVictimHandler(services.NewVictimService(pg))

	body := `{"victim_name":"Ahmad","marital_status":"single","disaster_type":"flood"}`
	c, w := testContext(t, http.MethodPost, "/victims", body)
	setPrincipal(c, &authz.Principal{UserID: 4, Role: authz.RolePenghulu})
	h.RegisterVictim(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRegisterVictim_KetuaWithoutKampungIs403(t *testing.T) {
	pg, _, err := sqlmock.New()
	require.NoError(t, err)
	defer pg.Close()

	h := NewVictimHandler(services.NewVictimService(pg))

	body := `{"victim_name":"Ahmad","marital_status":"single","disaster_type":"flood"}`
	c, w := testContext(t, http.MethodPost, "/victims", body)
	setPrincipal(c, &authz.Principal{UserID: 3, Role: authz.RoleKetuaKampung})
	h.RegisterVictim(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "no kampung assigned")
}
