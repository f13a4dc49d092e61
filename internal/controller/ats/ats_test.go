package ats

import (
	"context"
	"encoding/json"
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

func atsRouter() *gin.Engine {
	r := gin.New()
	controller := NewATSController(testDB)
	protected := r.Group("/", middleware.RequireAuth(testDB))

	recruiter := protected.Group("/ats", middleware.CheckRole(model.RoleRecruiter, model.RoleAdmin))
	recruiter.POST("/job", controller.CreateJobHandler)
	recruiter.GET("/job", controller.ListMyJobsHandler)
	recruiter.PATCH("/job/:id", controller.UpdateJobHandler)
	recruiter.PATCH("/job/:id/open", controller.SetJobOpenHandler)
	recruiter.DELETE("/job/:id", controller.DeleteJobHandler)
	recruiter.POST("/job/:id/stage", controller.CreateStageHandler)
	recruiter.GET("/job/:id/applications", controller.ApplicationsGroupedHandler)
	recruiter.PATCH("/stage/:id", controller.UpdateStageHandler)
	recruiter.DELETE("/stage/:id", controller.DeleteStageHandler)
	recruiter.PATCH("/application/:id/stage", controller.MoveStageHandler)

	protected.GET("/jobs", controller.ListOpenJobsHandler)
	protected.POST("/jobs/:id/apply", controller.ApplyHandler)
	return r
}

func recruiterToken(t *testing.T) string {
	t.Helper()
	token, err := auth.GetAccessToken(t, testDB, database.TestUserRecruiter1.Username, database.TestSeedPassword)
	assert.NoError(t, err)
	return token
}

func applicantToken(t *testing.T) string {
	t.Helper()
	token, err := auth.GetAccessToken(t, testDB, database.TestUserApplicant1.Username, database.TestSeedPassword)
	assert.NoError(t, err)
	return token
}

func createJob(t *testing.T, router *gin.Engine, token, title string) uint {
	t.Helper()
	rec, resp := testutil.MakeJSONRequest(gin.H{
		"title":    title,
		"desc":     "A test posting",
		"location": "Remote",
		"type":     "Full-time",
		"tags":     []string{"go"},
	}, token, router, "/ats/job", http.MethodPost)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id, _ := resp["id"].(float64)
	assert.Greater(t, id, float64(0))
	return uint(id)
}

func TestCreateJobSeedsDefaultStages(t *testing.T) {
	router := atsRouter()
	token := recruiterToken(t)

	jobID := createJob(t, router, token, "Platform Engineer")

	var stages []model.PipelineStage
	assert.NoError(t, testDB.Where("job_id = ?", jobID).Order("stage_order ASC").Find(&stages).Error)
	assert.Len(t, stages, 4)
	assert.Equal(t, "Phone Screen", stages[0].Name)
	assert.Equal(t, "Hired", stages[3].Name)
	for i, stage := range stages {
		assert.Equal(t, i+1, stage.StageOrder)
	}
}

func TestCreateJobRequiresRecruiterRole(t *testing.T) {
	router := atsRouter()
	token := applicantToken(t)

	rec, _ := testutil.MakeJSONRequest(gin.H{"title": "Sneaky Job"}, token, router, "/ats/job", http.MethodPost)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestApplyLandsUnassigned(t *testing.T) {
	router := atsRouter()
	token := applicantToken(t)

	rec, resp := testutil.MakeJSONRequest(gin.H{
		"candidate_name":  "Dana Scully",
		"candidate_email": "dana@example.com",
		"note":            "Referred by Fox",
	}, token, router, fmt.Sprintf("/jobs/%d/apply", database.TestJob1.ID), http.MethodPost)

	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Nil(t, resp["current_stage_id"])
}

func TestApplyClosedJobRejected(t *testing.T) {
	router := atsRouter()
	rToken := recruiterToken(t)
	aToken := applicantToken(t)

	jobID := createJob(t, router, rToken, "Closing Soon")

	rec, _ := testutil.MakeJSONRequest(gin.H{"open": false}, rToken, router, fmt.Sprintf("/ats/job/%d/open", jobID), http.MethodPatch)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, _ = testutil.MakeJSONRequest(gin.H{
		"candidate_name":  "Too Late",
		"candidate_email": "late@example.com",
	}, aToken, router, fmt.Sprintf("/jobs/%d/apply", jobID), http.MethodPost)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "not accepting applications")
}

func TestMoveApplicationThroughPipeline(t *testing.T) {
	router := atsRouter()
	rToken := recruiterToken(t)
	aToken := applicantToken(t)

	jobID := createJob(t, router, rToken, "Pipeline Job")

	rec, resp := testutil.MakeJSONRequest(gin.H{
		"candidate_name":  "Ellen Ripley",
		"candidate_email": "ripley@example.com",
	}, aToken, router, fmt.Sprintf("/jobs/%d/apply", jobID), http.MethodPost)
	assert.Equal(t, http.StatusCreated, rec.Code)
	appID := uint(resp["id"].(float64))

	var stages []model.PipelineStage
	assert.NoError(t, testDB.Where("job_id = ?", jobID).Order("stage_order ASC").Find(&stages).Error)

	// unassigned -> Phone Screen
	rec, resp = testutil.MakeJSONRequest(gin.H{"stage_id": stages[0].ID}, rToken, router,
		fmt.Sprintf("/ats/application/%d/stage", appID), http.MethodPatch)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, float64(stages[0].ID), resp["current_stage_id"])

	// moving to the same stage again is a no-op, not an error
	rec, _ = testutil.MakeJSONRequest(gin.H{"stage_id": stages[0].ID}, rToken, router,
		fmt.Sprintf("/ats/application/%d/stage", appID), http.MethodPatch)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Phone Screen -> Interview
	rec, _ = testutil.MakeJSONRequest(gin.H{"stage_id": stages[1].ID}, rToken, router,
		fmt.Sprintf("/ats/application/%d/stage", appID), http.MethodPatch)
	assert.Equal(t, http.StatusOK, rec.Code)

	// back to unassigned
	rec, resp = testutil.MakeJSONRequest(gin.H{"stage_id": nil}, rToken, router,
		fmt.Sprintf("/ats/application/%d/stage", appID), http.MethodPatch)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, resp["current_stage_id"])
}

func TestMoveApplicationCrossJobRejected(t *testing.T) {
	router := atsRouter()
	rToken := recruiterToken(t)
	aToken := applicantToken(t)

	jobID := createJob(t, router, rToken, "Job A")

	rec, resp := testutil.MakeJSONRequest(gin.H{
		"candidate_name":  "Cross Job",
		"candidate_email": "cross@example.com",
	}, aToken, router, fmt.Sprintf("/jobs/%d/apply", jobID), http.MethodPost)
	assert.Equal(t, http.StatusCreated, rec.Code)
	appID := uint(resp["id"].(float64))

	// a stage from the seeded TestJob2 owned by another recruiter
	foreignStage := database.TestJob2.Stages[0]

	rec, _ = testutil.MakeJSONRequest(gin.H{"stage_id": foreignStage.ID}, rToken, router,
		fmt.Sprintf("/ats/application/%d/stage", appID), http.MethodPatch)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "different job")

	// the application did not move
	var stored model.JobApplication
	assert.NoError(t, testDB.First(&stored, appID).Error)
	assert.Nil(t, stored.CurrentStageID)
}

func TestMoveApplicationNotOwnedJob(t *testing.T) {
	router := atsRouter()
	token, err := auth.GetAccessToken(t, testDB, database.TestUserRecruiter2.Username, database.TestSeedPassword)
	assert.NoError(t, err)

	// TestApplication1 belongs to TestJob1 owned by recruiter 1
	rec, _ := testutil.MakeJSONRequest(gin.H{"stage_id": database.TestJob1.Stages[0].ID}, token, router,
		fmt.Sprintf("/ats/application/%d/stage", database.TestApplication1.ID), http.MethodPatch)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestApplicationsGroupedView(t *testing.T) {
	router := atsRouter()
	rToken := recruiterToken(t)
	aToken := applicantToken(t)

	jobID := createJob(t, router, rToken, "Grouped Job")

	var appIDs []uint
	for _, name := range []string{"One", "Two", "Three"} {
		rec, resp := testutil.MakeJSONRequest(gin.H{
			"candidate_name":  name,
			"candidate_email": name + "@example.com",
		}, aToken, router, fmt.Sprintf("/jobs/%d/apply", jobID), http.MethodPost)
		assert.Equal(t, http.StatusCreated, rec.Code)
		appIDs = append(appIDs, uint(resp["id"].(float64)))
	}

	var stages []model.PipelineStage
	assert.NoError(t, testDB.Where("job_id = ?", jobID).Order("stage_order ASC").Find(&stages).Error)

	rec, _ := testutil.MakeJSONRequest(gin.H{"stage_id": stages[1].ID}, rToken, router,
		fmt.Sprintf("/ats/application/%d/stage", appIDs[2]), http.MethodPatch)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec2, _ := testutil.MakeJSONRequest(nil, rToken, router, fmt.Sprintf("/ats/job/%d/applications", jobID), http.MethodGet)
	assert.Equal(t, http.StatusOK, rec2.Code, rec2.Body.String())

	var buckets []map[string]interface{}
	assert.NoError(t, json.Unmarshal(rec2.Body.Bytes(), &buckets))
	assert.Len(t, buckets, 5) // unassigned + 4 default stages

	// unassigned bucket leads and holds the two unmoved applications
	assert.Nil(t, buckets[0]["stage_id"])
	assert.Equal(t, "New Applications", buckets[0]["name"])
	assert.Len(t, buckets[0]["applications"], 2)

	// Interview column holds the moved application
	assert.Equal(t, "Interview", buckets[2]["name"])
	assert.Len(t, buckets[2]["applications"], 1)

	// empty columns are present with empty arrays
	assert.Len(t, buckets[4]["applications"], 0)
}

func TestStageCreateRenameDelete(t *testing.T) {
	router := atsRouter()
	rToken := recruiterToken(t)
	aToken := applicantToken(t)

	jobID := createJob(t, router, rToken, "Stage Mgmt Job")

	// new stage lands at the end of the board
	rec, resp := testutil.MakeJSONRequest(gin.H{"name": "Reference Check", "color": "#10b981"}, rToken, router,
		fmt.Sprintf("/ats/job/%d/stage", jobID), http.MethodPost)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, float64(5), resp["stage_order"])
	newStageID := uint(resp["id"].(float64))

	// rename
	rec, resp = testutil.MakeJSONRequest(gin.H{"name": "Background Check"}, rToken, router,
		fmt.Sprintf("/ats/stage/%d", newStageID), http.MethodPatch)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Background Check", resp["name"])

	// park an application in the stage, then delete the stage
	rec, resp = testutil.MakeJSONRequest(gin.H{
		"candidate_name":  "Parked",
		"candidate_email": "parked@example.com",
	}, aToken, router, fmt.Sprintf("/jobs/%d/apply", jobID), http.MethodPost)
	assert.Equal(t, http.StatusCreated, rec.Code)
	appID := uint(resp["id"].(float64))

	rec, _ = testutil.MakeJSONRequest(gin.H{"stage_id": newStageID}, rToken, router,
		fmt.Sprintf("/ats/application/%d/stage", appID), http.MethodPatch)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = testutil.MakeJSONRequest(nil, rToken, router,
		fmt.Sprintf("/ats/stage/%d", newStageID), http.MethodDelete)
	assert.Equal(t, http.StatusOK, rec.Code)

	// the parked application fell back to unassigned
	var stored model.JobApplication
	assert.NoError(t, testDB.First(&stored, appID).Error)
	assert.Nil(t, stored.CurrentStageID)
}

func TestStageManagementForeignJobForbidden(t *testing.T) {
	router := atsRouter()
	token, err := auth.GetAccessToken(t, testDB, database.TestUserRecruiter2.Username, database.TestSeedPassword)
	assert.NoError(t, err)

	// TestJob1 belongs to recruiter 1
	rec, _ := testutil.MakeJSONRequest(gin.H{"name": "Intruder Stage"}, token, router,
		fmt.Sprintf("/ats/job/%d/stage", database.TestJob1.ID), http.MethodPost)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = testutil.MakeJSONRequest(gin.H{"name": "Renamed"}, token, router,
		fmt.Sprintf("/ats/stage/%d", database.TestJob1.Stages[0].ID), http.MethodPatch)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUpdateJobMergesNonEmpty(t *testing.T) {
	router := atsRouter()
	rToken := recruiterToken(t)

	jobID := createJob(t, router, rToken, "Original Title")

	rec, resp := testutil.MakeJSONRequest(gin.H{"salary": "70000 THB"}, rToken, router,
		fmt.Sprintf("/ats/job/%d", jobID), http.MethodPatch)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Original Title", resp["title"])
	assert.Equal(t, "70000 THB", resp["salary"])
}
