package admin

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/testcontainers/testcontainers-go"

	"ResumeForge-backend/internal/auth"
	"ResumeForge-backend/internal/database"
	"ResumeForge-backend/internal/middleware"
	"ResumeForge-backend/internal/model"
	"ResumeForge-backend/internal/testutil"
)

var testDB *database.DBinstanceStruct

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)

	var err error
	var teardown func(context.Context, ...testcontainers.TerminateOption) error
	teardown, testDB, err = database.GetTestDB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start test db: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if teardown != nil {
		_ = teardown(ctx)
	}
	os.Exit(code)
}

func adminRouter() *gin.Engine {
	r := gin.New()
	controller := NewAdminController(testDB)
	protected := r.Group("/admin", middleware.RequireAuth(testDB), middleware.CheckRole(model.RoleAdmin))
	protected.GET("/users", controller.ListUsersHandler)
	protected.POST("/template", controller.CreateTemplateHandler)
	protected.PATCH("/template/:slug", controller.UpdateTemplateHandler)
	return r
}

func adminToken(t *testing.T) string {
	t.Helper()
	token, err := auth.GetAccessToken(t, testDB, database.TestAdminUser.Username, database.TestSeedPassword)
	assert.NoError(t, err)
	return token
}

func TestListUsers(t *testing.T) {
	router := adminRouter()
	rec, _ := testutil.MakeJSONRequest(nil, adminToken(t), router, "/admin/users", http.MethodGet)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), database.TestUserApplicant1.Username)
	assert.Contains(t, rec.Body.String(), database.TestUserRecruiter1.Username)
	// hashes never leave the server
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestListUsersFilteredByRole(t *testing.T) {
	router := adminRouter()
	rec, _ := testutil.MakeJSONRequest(nil, adminToken(t), router, "/admin/users?role=recruiter", http.MethodGet)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), database.TestUserRecruiter1.Username)
	assert.NotContains(t, rec.Body.String(), database.TestUserApplicant1.Username)
}

func TestListUsersForbiddenForApplicant(t *testing.T) {
	token, err := auth.GetAccessToken(t, testDB, database.TestUserApplicant1.Username, database.TestSeedPassword)
	assert.NoError(t, err)

	router := adminRouter()
	rec, _ := testutil.MakeJSONRequest(nil, token, router, "/admin/users", http.MethodGet)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateTemplate(t *testing.T) {
	router := adminRouter()
	rec, resp := testutil.MakeJSONRequest(gin.H{
		"slug": "compact",
		"name": "Compact",
		"html": "<html><body><h1>{{.personal.full_name}}</h1></body></html>",
	}, adminToken(t), router, "/admin/template", http.MethodPost)

	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "compact", resp["slug"])

	var stored model.ResumeTemplate
	assert.NoError(t, testDB.Where("slug = ?", "compact").First(&stored).Error)
	assert.False(t, stored.Premium)
}

func TestCreateTemplateDuplicateSlug(t *testing.T) {
	router := adminRouter()
	body := gin.H{
		"slug": "duplicate-slug",
		"name": "First",
		"html": "<html></html>",
	}
	rec, _ := testutil.MakeJSONRequest(body, adminToken(t), router, "/admin/template", http.MethodPost)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec, _ = testutil.MakeJSONRequest(body, adminToken(t), router, "/admin/template", http.MethodPost)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateTemplateBrokenHTML(t *testing.T) {
	router := adminRouter()
	rec, _ := testutil.MakeJSONRequest(gin.H{
		"slug": "broken",
		"name": "Broken",
		"html": "<html>{{.unclosed</html>",
	}, adminToken(t), router, "/admin/template", http.MethodPost)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var count int64
	assert.NoError(t, testDB.Model(&model.ResumeTemplate{}).Where("slug = ?", "broken").Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestUpdateTemplate(t *testing.T) {
	assert.NoError(t, testDB.Create(&model.ResumeTemplate{
		Slug: "editable",
		Name: "Editable",
		HTML: "<html></html>",
	}).Error)

	router := adminRouter()
	rec, resp := testutil.MakeJSONRequest(gin.H{
		"name":    "Editable v2",
		"premium": true,
	}, adminToken(t), router, "/admin/template/editable", http.MethodPatch)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Editable v2", resp["name"])
	assert.Equal(t, true, resp["premium"])

	var stored model.ResumeTemplate
	assert.NoError(t, testDB.Where("slug = ?", "editable").First(&stored).Error)
	assert.True(t, stored.Premium)
	assert.Equal(t, "Editable v2", stored.Name)
}

func TestUpdateTemplateUnknownSlug(t *testing.T) {
	router := adminRouter()
	rec, _ := testutil.MakeJSONRequest(gin.H{
		"name": "Nope",
	}, adminToken(t), router, "/admin/template/no-such-slug", http.MethodPatch)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
