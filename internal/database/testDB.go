package database

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/datatypes"

	// Load env
	_ "github.com/joho/godotenv/autoload"

	m "ResumeForge-backend/internal/model"
	"ResumeForge-backend/internal/utilities"
)

var testDBInstance *DBinstanceStruct
var teardown func(context.Context, ...testcontainers.TerminateOption) error

// Exported test users & fixtures
var (
	TestAdminUser      m.User
	TestUserApplicant1 m.User
	TestUserApplicant2 m.User
	TestUserRecruiter1 m.User
	TestUserRecruiter2 m.User

	TestProfile1 m.Profile

	// Add exported plain password
	TestSeedPassword = "SeedPass123!"

	// Exported seeded jobs with their default stages loaded
	TestJob1 m.Job
	TestJob2 m.Job

	// Seeded application on TestJob1, initially unassigned
	TestApplication1 m.JobApplication
)

// GetTestDB starts a PostgreSQL test container and returns a teardown function,
// the DB instance, and any error encountered during setup.
func GetTestDB() (func(context.Context, ...testcontainers.TerminateOption) error, *DBinstanceStruct, error) {

	if testDBInstance != nil && teardown != nil {
		return teardown, testDBInstance, nil
	}

	// Database configuration
	var (
		dbName = "database"
		dbPwd  = "password"
		dbUser = "user"
	)

	dbContainer, err := postgres.Run(
		context.Background(),
		"postgres:latest",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPwd),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second)),
	)
	if err != nil {
		return nil, nil, err
	}

	dbHost, err := dbContainer.Host(context.Background())
	if err != nil {
		return dbContainer.Terminate, nil, err
	}

	dbPort, err := dbContainer.MappedPort(context.Background(), nat.Port("5432/tcp"))
	if err != nil {
		return dbContainer.Terminate, nil, err
	}

	config := &DBConfig{
		useConstr: true,
		Constr:    fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable", dbHost, dbPort.Port(), dbUser, dbPwd, dbName),
	}

	db, err := NewDBInstance(config)
	if err != nil {
		return dbContainer.Terminate, nil, err
	}

	// Seed sample applicants, recruiters, jobs and applications
	if err := seedTestData(db); err != nil {
		_ = dbContainer.Terminate(context.Background())
		return nil, nil, err
	}

	testDBInstance = db
	teardown = dbContainer.Terminate

	return dbContainer.Terminate, db, nil
}

// seedTestData inserts sample users, one profile, two jobs with default stages
// and one unassigned application, if the database is empty.
func seedTestData(db *DBinstanceStruct) error {
	var userCount int64
	if err := db.Model(&m.User{}).Count(&userCount).Error; err != nil {
		return err
	}

	// Ignore admin user that got create during NewDBInstance
	if userCount > 1 {
		return loadTestData(db)
	}

	tels := []*string{ptr("0100000001"), ptr("0100000002"), ptr("0200000001"), ptr("0200000002"), ptr("0300000001")}
	emails := []*string{ptr("applicant1@example.com"), ptr("applicant2@example.com"), ptr("recruiter1@example.com"), ptr("recruiter2@example.com"), ptr("admin@example.com")}
	userSpecs := []struct {
		username string
		email    *string
		tel      *string
		role     string
	}{
		{"applicant_user_1", emails[0], tels[0], m.RoleApplicant},
		{"applicant_user_2", emails[1], tels[1], m.RoleApplicant},
		{"recruiter_user_1", emails[2], tels[2], m.RoleRecruiter},
		{"recruiter_user_2", emails[3], tels[3], m.RoleRecruiter},
		{"admin_user", emails[4], tels[4], m.RoleAdmin},
	}

	// Pre-hash shared password for all seeded users
	hashedPwd, errHash := utilities.HashPassword(TestSeedPassword)
	if errHash != nil {
		return errHash
	}

	users := make([]m.User, 0, len(userSpecs))
	for _, s := range userSpecs {
		users = append(users, m.User{
			ID:             uuid.New(),
			Username:       s.username,
			Email:          s.email,
			Tel:            s.tel,
			Role:           s.role,
			Password:       hashedPwd,
			ProfilePicture: "",
		})
	}

	if err := db.Create(&users).Error; err != nil {
		return err
	}

	for _, u := range users {
		switch u.Username {
		case "applicant_user_1":
			TestUserApplicant1 = u
		case "applicant_user_2":
			TestUserApplicant2 = u
		case "recruiter_user_1":
			TestUserRecruiter1 = u
		case "recruiter_user_2":
			TestUserRecruiter2 = u
		case "admin_user":
			TestAdminUser = u
		}
	}

	profile := m.Profile{
		UserID: TestUserApplicant1.ID,
		EditableProfileInfo: m.EditableProfileInfo{
			FullName: "Alice Nguyen",
			Headline: "Backend Engineer",
			Summary:  "Four years building Go services.",
			Email:    TestUserApplicant1.Email,
			Phone:    TestUserApplicant1.Tel,
			Location: ptr("Bangkok"),
			Experience: datatypes.JSON([]byte(`[
				{"title":"Backend Engineer","company":"TechNova","period":"2022 - now","description":"Go microservices and database layers."}
			]`)),
			Education: datatypes.JSON([]byte(`[
				{"degree":"B.Eng. Computer Engineering","institution":"Kasetsart University","period":"2017 - 2021"}
			]`)),
			Skills: datatypes.JSON([]byte(`["Go","PostgreSQL","Docker"]`)),
		},
	}
	profile.Completeness = profile.CompletenessScore()
	if err := db.Create(&profile).Error; err != nil {
		return err
	}
	TestProfile1 = profile

	jobs := []m.Job{
		{
			RecruiterID: TestUserRecruiter1.ID,
			EditableJobInfo: m.EditableJobInfo{
				Title:    "Backend Engineer",
				Desc:     "Work on Go microservices and database layers.",
				Location: "Bangkok (Hybrid)",
				Type:     "Full-time",
				Salary:   "60000 THB",
				Tags:     []string{"go", "backend", "api"},
			},
		},
		{
			RecruiterID: TestUserRecruiter2.ID,
			EditableJobInfo: m.EditableJobInfo{
				Title:    "Data Analyst",
				Desc:     "Support data cleansing and dashboard creation.",
				Location: "Remote",
				Type:     "Contract",
				Salary:   "45000 THB",
				Tags:     []string{"data", "sql", "analytics"},
			},
		},
	}
	if err := db.Create(&jobs).Error; err != nil {
		return err
	}

	for i := range jobs {
		stages := m.DefaultStages(jobs[i].ID)
		if err := db.Create(&stages).Error; err != nil {
			return err
		}
		jobs[i].Stages = stages
	}
	TestJob1 = jobs[0]
	TestJob2 = jobs[1]

	application := m.JobApplication{
		JobID:          TestJob1.ID,
		CandidateName:  "Bob Somsak",
		CandidateEmail: "bob@example.com",
	}
	if err := db.Create(&application).Error; err != nil {
		return err
	}
	TestApplication1 = application

	return nil
}

// loadTestData populates exported variables when records already exist.
func loadTestData(db *DBinstanceStruct) error {
	var users []m.User
	if err := db.Where("username IN ?", []string{
		"applicant_user_1", "applicant_user_2", "recruiter_user_1", "recruiter_user_2", "admin_user",
	}).Find(&users).Error; err != nil {
		return err
	}
	for _, u := range users {
		switch u.Username {
		case "applicant_user_1":
			TestUserApplicant1 = u
		case "applicant_user_2":
			TestUserApplicant2 = u
		case "recruiter_user_1":
			TestUserRecruiter1 = u
		case "recruiter_user_2":
			TestUserRecruiter2 = u
		case "admin_user":
			TestAdminUser = u
		}
	}

	_ = db.First(&TestProfile1, "user_id = ?", TestUserApplicant1.ID).Error

	var jobs []m.Job
	if err := db.Preload("Stages").Order("id ASC").Limit(2).Find(&jobs).Error; err == nil {
		if len(jobs) > 0 {
			TestJob1 = jobs[0]
		}
		if len(jobs) > 1 {
			TestJob2 = jobs[1]
		}
	}

	_ = db.Where("job_id = ?", TestJob1.ID).Order("id ASC").First(&TestApplication1).Error

	return nil
}

// ptr helper
func ptr[T any](v T) *T { return &v }
