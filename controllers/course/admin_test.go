package controllers_test

import (
	"net/http"
	"testing"

	authController "odl/controllers/auth"
	"odl/database"
	"odl/middleware"
	"odl/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createAdminUser creates an ADMIN account with its seeded permission rows,
// the same path signup takes.
func createAdminUser(t *testing.T, name, email string) (models.User, string) {
	t.Helper()

	user := models.User{
		Name:            name,
		Email:           email,
		Password:        "not-used-in-these-tests",
		Role:            "ADMIN",
		IsEmailVerified: true,
	}
	require.NoError(t, database.Database.Db.Create(&user).Error)
	require.NoError(t, authController.SeedPermissions(database.Database.Db, user.Role, user.ID))

	token, err := middleware.GenerateJWT(user.ID, user.Name, user.Role, user.Email)
	require.NoError(t, err)
	return user, token
}

func TestAdminRoutesRequireManageCoursesPermission(t *testing.T) {
	app := setupTestApp(t)

	// A learner's seeded permissions do not include manage-courses
	learner := models.User{
		Name:            "Aminata",
		Email:           "aminata@example.com",
		Password:        "not-used-in-these-tests",
		Role:            "USER",
		IsEmailVerified: true,
	}
	require.NoError(t, database.Database.Db.Create(&learner).Error)
	require.NoError(t, authController.SeedPermissions(database.Database.Db, learner.Role, learner.ID))
	learnerToken, err := middleware.GenerateJWT(learner.ID, learner.Name, learner.Role, learner.Email)
	require.NoError(t, err)

	payload := fiber.Map{
		"title":       "Practical Backend Engineering",
		"description": "From zero to deployed",
		"author":      "Odl Academy",
		"category":    "Engineering",
		"duration":    180,
	}

	status, body := doRequest(t, app, http.MethodPost, "/admin/course/create", learnerToken, payload)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "You do not have permission to access this resource!", body["message"])

	// An admin with seeded permissions gets through
	_, adminToken := createAdminUser(t, "Fatou", "fatou@example.com")

	status, body = doRequest(t, app, http.MethodPost, "/admin/course/create", adminToken, payload)
	require.Equal(t, http.StatusCreated, status)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "Practical Backend Engineering", data["title"])
	assert.Equal(t, "DRAFT", data["status"])
}

func TestDashboardRequiresViewDashboardPermission(t *testing.T) {
	app := setupTestApp(t)

	_, learnerToken := createTestUser(t, "Moussa", "moussa@example.com")

	status, body := doRequest(t, app, http.MethodGet, "/admin/dashboard/stats", learnerToken, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "You do not have permission to access this resource!", body["message"])

	_, adminToken := createAdminUser(t, "Fatou", "fatou@example.com")

	status, _ = doRequest(t, app, http.MethodGet, "/admin/dashboard/stats", adminToken, nil)
	assert.Equal(t, http.StatusOK, status)
}
