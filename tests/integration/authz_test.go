//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardsuite/clinic-desk/internal/testutil"
)

func listStatus(t *testing.T, client *testutil.Client, path string) int {
	t.Helper()
	resp, err := client.GET(path)
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}

func TestAuthz_PublicListings(t *testing.T) {
	client := newTestClient(t)

	// Patients and appointments listings require no session at all.
	assert.Equal(t, http.StatusOK, listStatus(t, client, "/api/v1/patients"))
	assert.Equal(t, http.StatusOK, listStatus(t, client, "/api/v1/appointments"))
}

func TestAuthz_RoleMatrix(t *testing.T) {
	cases := []struct {
		name  string
		login func(*testing.T, *testutil.Client)

		staff   int
		billing int
	}{
		{
			name:    "anonymous",
			login:   func(*testing.T, *testutil.Client) {},
			staff:   http.StatusForbidden,
			billing: http.StatusForbidden,
		},
		{
			name:    "admin",
			login:   func(t *testing.T, c *testutil.Client) { c.LoginAsAdmin(t) },
			staff:   http.StatusOK,
			billing: http.StatusOK,
		},
		{
			name:    "receptionist",
			login:   func(t *testing.T, c *testutil.Client) { c.LoginAsReceptionist(t) },
			staff:   http.StatusOK,
			billing: http.StatusOK,
		},
		{
			name:    "nurse",
			login:   func(t *testing.T, c *testutil.Client) { c.LoginAsNurse(t) },
			staff:   http.StatusForbidden,
			billing: http.StatusForbidden,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t)
			tc.login(t, client)

			assert.Equal(t, tc.staff, listStatus(t, client, "/api/v1/staff"), "staff listing")
			assert.Equal(t, tc.billing, listStatus(t, client, "/api/v1/billing"), "billing listing")

			// Public listings stay reachable for every role.
			assert.Equal(t, http.StatusOK, listStatus(t, client, "/api/v1/patients"))
			assert.Equal(t, http.StatusOK, listStatus(t, client, "/api/v1/appointments"))
		})
	}
}

func TestAuthz_ForbiddenEnvelope(t *testing.T) {
	client := newTestClient(t)
	client.LoginAsNurse(t)

	resp, err := client.GET("/api/v1/billing")
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	var result struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	testutil.DecodeJSON(t, resp, &result)
	assert.Equal(t, "error", result.Status)
	assert.Equal(t, "Forbidden: insufficient permissions", result.Message)
}

func TestAuthz_StaffCreateAdminOnly(t *testing.T) {
	payload := map[string]string{"full_name": "James Wilson", "position": "Oncologist"}

	// Receptionists may list staff but not create them.
	receptionist := newTestClient(t)
	receptionist.LoginAsReceptionist(t)
	resp, err := receptionist.POST("/api/v1/staff", payload)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	admin := newTestClient(t)
	admin.LoginAsAdmin(t)
	resp, err = admin.POST("/api/v1/staff", payload)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var result struct {
		Status string `json:"status"`
		Data   struct {
			ID       string `json:"id"`
			FullName string `json:"full_name"`
		} `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &result)
	assert.Equal(t, "success", result.Status)
	assert.NotEmpty(t, result.Data.ID)
	assert.Equal(t, "James Wilson", result.Data.FullName)
}

func TestAuthz_PatientLifecycle(t *testing.T) {
	client := newTestClient(t)
	client.LoginAsReceptionist(t)

	resp, err := client.POST("/api/v1/patients", map[string]string{
		"full_name":     "Rebecca Adler",
		"date_of_birth": "1978-06-12",
		"phone":         "+1-555-0100",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &created)
	require.NotEmpty(t, created.Data.ID)

	// The new patient shows up in the public listing.
	resp, err = client.GET("/api/v1/patients")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var listing struct {
		Data []struct {
			ID       string `json:"id"`
			FullName string `json:"full_name"`
		} `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &listing)

	var found bool
	for _, p := range listing.Data {
		if p.ID == created.Data.ID {
			found = true
			assert.Equal(t, "Rebecca Adler", p.FullName)
		}
	}
	assert.True(t, found, "created patient should appear in the listing")
}

func TestAuthz_RescheduleUnknownAppointment(t *testing.T) {
	client := newTestClient(t)
	client.LoginAsReceptionist(t)

	resp, err := client.PATCH(
		"/api/v1/appointments/00000000-0000-0000-0000-000000000000/schedule",
		map[string]string{"scheduled_at": "2026-10-01T09:30:00Z"},
	)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// Nurses cannot reschedule at all, known appointment or not.
	nurse := newTestClient(t)
	nurse.LoginAsNurse(t)
	resp, err = nurse.PATCH(
		"/api/v1/appointments/00000000-0000-0000-0000-000000000000/schedule",
		map[string]string{"scheduled_at": "2026-10-01T09:30:00Z"},
	)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()
}
