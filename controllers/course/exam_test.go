package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"odl/config"
	"odl/database"
	"odl/middleware"
	"odl/models"
	courseModels "odl/models/course"
	courseRoutes "odl/routers/courseRoutes"
	courseService "odl/services/course"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// setupTestApp wires a fresh in-memory database and the user-facing course
// routes for one test.
func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()

	config.AppConfig = &config.Config{
		Port:               "3000",
		DBDriver:           "sqlite",
		DBName:             ":memory:",
		JWTKey:             "test-secret",
		SaltRound:          4,
		AttemptExpiryHours: 48,
	}

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1) // keep every query on the single in-memory connection

	database.RunMigrations(db)
	database.Database = database.DbInstance{Db: db}

	app := fiber.New()
	courseRoutes.SetupCourseRoutes(app)
	courseRoutes.SetupAdminCourseRoutes(app)
	return app
}

func createTestUser(t *testing.T, name, email string) (models.User, string) {
	t.Helper()

	user := models.User{
		Name:            name,
		Email:           email,
		Password:        "not-used-in-these-tests",
		Role:            "USER",
		IsEmailVerified: true,
	}
	require.NoError(t, database.Database.Db.Create(&user).Error)

	token, err := middleware.GenerateJWT(user.ID, user.Name, user.Role, user.Email)
	require.NoError(t, err)
	return user, token
}

type seededCourse struct {
	course    courseModels.Course
	lessons   []courseModels.Lesson
	exam      courseModels.Exam
	questions []courseModels.ExamQuestion
	correct   map[uint]uint // question ID -> correct choice ID
}

// seedCourseWithExam creates a published course with one module, three
// published lessons and a two-question exam at the default passing score.
func seedCourseWithExam(t *testing.T) seededCourse {
	t.Helper()
	db := database.Database.Db

	course := courseModels.Course{
		Title:       "Practical Backend Engineering",
		Description: "From zero to deployed",
		Author:      "Odl Academy",
		Category:    "Engineering",
		Duration:    180,
		Status:      "ACTIVE",
		IsPublished: true,
	}
	require.NoError(t, db.Create(&course).Error)

	module := courseModels.Module{CourseID: course.ID, Title: "Fundamentals", OrderIndex: 1}
	require.NoError(t, db.Create(&module).Error)

	lessons := make([]courseModels.Lesson, 3)
	for i := range lessons {
		lessons[i] = courseModels.Lesson{
			CourseID:    course.ID,
			ModuleID:    module.ID,
			Title:       fmt.Sprintf("Lesson %d", i+1),
			ContentType: "VIDEO",
			OrderIndex:  i + 1,
			IsPublished: true,
		}
		require.NoError(t, db.Create(&lessons[i]).Error)
	}

	exam := courseModels.Exam{
		CourseID:     course.ID,
		Title:        "Final Exam",
		PassingScore: 60,
		IsPublished:  true,
	}
	require.NoError(t, db.Create(&exam).Error)

	questions := make([]courseModels.ExamQuestion, 2)
	correct := make(map[uint]uint)
	for i := range questions {
		questions[i] = courseModels.ExamQuestion{
			ExamID:       exam.ID,
			Prompt:       fmt.Sprintf("Question %d", i+1),
			QuestionType: "SINGLE",
			Points:       1,
			OrderIndex:   i + 1,
		}
		require.NoError(t, db.Create(&questions[i]).Error)

		right := courseModels.ExamChoice{QuestionID: questions[i].ID, ChoiceText: "Right", IsCorrect: true, OrderIndex: 1}
		wrong := courseModels.ExamChoice{QuestionID: questions[i].ID, ChoiceText: "Wrong", OrderIndex: 2}
		require.NoError(t, db.Create(&right).Error)
		require.NoError(t, db.Create(&wrong).Error)
		correct[questions[i].ID] = right.ID
	}

	return seededCourse{course: course, lessons: lessons, exam: exam, questions: questions, correct: correct}
}

func doRequest(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var parsed map[string]interface{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &parsed))
	}
	return resp.StatusCode, parsed
}

func enroll(t *testing.T, app *fiber.App, token string, courseID uint) {
	t.Helper()
	status, _ := doRequest(t, app, http.MethodPost, fmt.Sprintf("/course/%d/enroll", courseID), token, nil)
	require.Equal(t, http.StatusOK, status)
}

func completeAllLessons(t *testing.T, app *fiber.App, token string, sc seededCourse) {
	t.Helper()
	for _, lesson := range sc.lessons {
		status, _ := doRequest(t, app, http.MethodPost,
			fmt.Sprintf("/course/%d/lesson/%d/complete", sc.course.ID, lesson.ID), token, nil)
		require.Equal(t, http.StatusOK, status)
	}
}

func correctAnswers(sc seededCourse) map[string]interface{} {
	answers := make(map[string]interface{})
	for _, q := range sc.questions {
		answers[courseService.AnswerKey(q.ID)] = sc.correct[q.ID]
	}
	return answers
}

// startAttempt drives a learner to an open attempt and returns its ID.
func startAttempt(t *testing.T, app *fiber.App, token string, sc seededCourse) uint {
	t.Helper()
	status, body := doRequest(t, app, http.MethodPost,
		fmt.Sprintf("/course/%d/exam/start", sc.course.ID), token,
		fiber.Map{"display_name": "Aminata Traoré"})
	require.Equal(t, http.StatusCreated, status)

	data := body["data"].(map[string]interface{})
	return uint(data["ID"].(float64))
}

func TestExamStartLockedUntilAllLessonsComplete(t *testing.T) {
	app := setupTestApp(t)
	sc := seedCourseWithExam(t)
	_, token := createTestUser(t, "Aminata", "aminata@example.com")

	enroll(t, app, token, sc.course.ID)

	// No lesson done yet: the entry state is locked, start is refused and
	// the question content is withheld
	status, body := doRequest(t, app, http.MethodGet, fmt.Sprintf("/course/%d/exam", sc.course.ID), token, nil)
	require.Equal(t, http.StatusOK, status)
	locked := body["data"].(map[string]interface{})
	assert.Equal(t, "LOCKED", locked["entry_state"])
	assert.Nil(t, locked["questions"], "locked exam must not expose its questions")

	status, body = doRequest(t, app, http.MethodPost,
		fmt.Sprintf("/course/%d/exam/start", sc.course.ID), token,
		fiber.Map{"display_name": "Aminata Traoré"})
	require.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Please finish your lessons before taking the exam!", body["message"])

	// Two of three lessons is still locked
	for _, lesson := range sc.lessons[:2] {
		status, _ = doRequest(t, app, http.MethodPost,
			fmt.Sprintf("/course/%d/lesson/%d/complete", sc.course.ID, lesson.ID), token, nil)
		require.Equal(t, http.StatusOK, status)
	}
	status, _ = doRequest(t, app, http.MethodPost,
		fmt.Sprintf("/course/%d/exam/start", sc.course.ID), token,
		fiber.Map{"display_name": "Aminata Traoré"})
	assert.Equal(t, http.StatusForbidden, status)

	// The last lesson unlocks the exam
	status, _ = doRequest(t, app, http.MethodPost,
		fmt.Sprintf("/course/%d/lesson/%d/complete", sc.course.ID, sc.lessons[2].ID), token, nil)
	require.Equal(t, http.StatusOK, status)

	status, body = doRequest(t, app, http.MethodGet, fmt.Sprintf("/course/%d/exam", sc.course.ID), token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "UNLOCKED", body["data"].(map[string]interface{})["entry_state"])

	status, _ = doRequest(t, app, http.MethodPost,
		fmt.Sprintf("/course/%d/exam/start", sc.course.ID), token,
		fiber.Map{"display_name": "Aminata Traoré"})
	assert.Equal(t, http.StatusCreated, status)
}

func TestExamRequiresEnrollment(t *testing.T) {
	app := setupTestApp(t)
	sc := seedCourseWithExam(t)
	_, token := createTestUser(t, "Moussa", "moussa@example.com")

	status, body := doRequest(t, app, http.MethodGet, fmt.Sprintf("/course/%d/exam", sc.course.ID), token, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "You are not enrolled in this course!", body["message"])
}

func TestExamPassFlowIssuesCertificate(t *testing.T) {
	app := setupTestApp(t)
	sc := seedCourseWithExam(t)
	user, token := createTestUser(t, "Aminata", "aminata@example.com")

	enroll(t, app, token, sc.course.ID)
	completeAllLessons(t, app, token, sc)
	attemptID := startAttempt(t, app, token, sc)

	// The certificate email is pinned to the account, whatever the form says
	var attempt courseModels.ExamAttempt
	require.NoError(t, database.Database.Db.First(&attempt, attemptID).Error)
	assert.Equal(t, "Aminata Traoré", attempt.CertificateName)
	assert.Equal(t, user.Email, attempt.CertificateEmail)

	status, body := doRequest(t, app, http.MethodPost,
		fmt.Sprintf("/exam/attempt/%d/submit", attemptID), token,
		fiber.Map{"answers": correctAnswers(sc)})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(0), body["data"].(map[string]interface{})["unanswered_questions"])

	// Results stay locked until the satisfaction survey is recorded
	status, body = doRequest(t, app, http.MethodGet,
		fmt.Sprintf("/exam/attempt/%d/results", attemptID), token, nil)
	require.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "Please complete the satisfaction survey to view your results!", body["message"])

	status, body = doRequest(t, app, http.MethodPost,
		fmt.Sprintf("/exam/attempt/%d/satisfaction", attemptID), token,
		fiber.Map{"rating": 5, "comment": "Great course"})
	require.Equal(t, http.StatusOK, status)

	data := body["data"].(map[string]interface{})
	assert.Equal(t, courseModels.AttemptPassed, data["result"])
	assert.Equal(t, float64(2), data["score"])
	assert.Equal(t, float64(2), data["max_score"])

	cert, ok := data["certificate"].(map[string]interface{})
	require.True(t, ok, "passed attempt should carry a certificate")
	assert.Equal(t, "Aminata Traoré", cert["recipient_name"])
	assert.Equal(t, user.Email, cert["recipient_email"])
	assert.NotEmpty(t, cert["certificate_number"])

	// Results are visible now
	status, body = doRequest(t, app, http.MethodGet,
		fmt.Sprintf("/exam/attempt/%d/results", attemptID), token, nil)
	require.Equal(t, http.StatusOK, status)
	data = body["data"].(map[string]interface{})
	assert.Equal(t, courseModels.AttemptPassed, data["result"])
	assert.Contains(t, data, "certificate")
}

func TestExamFailFlowNoCertificate(t *testing.T) {
	app := setupTestApp(t)
	sc := seedCourseWithExam(t)
	_, token := createTestUser(t, "Moussa", "moussa@example.com")

	enroll(t, app, token, sc.course.ID)
	completeAllLessons(t, app, token, sc)
	attemptID := startAttempt(t, app, token, sc)

	// Leave every question unanswered: advisory only, never a blocker
	status, body := doRequest(t, app, http.MethodPost,
		fmt.Sprintf("/exam/attempt/%d/submit", attemptID), token,
		fiber.Map{"answers": map[string]interface{}{}})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(2), body["data"].(map[string]interface{})["unanswered_questions"])

	status, body = doRequest(t, app, http.MethodPost,
		fmt.Sprintf("/exam/attempt/%d/satisfaction", attemptID), token,
		fiber.Map{"rating": 2, "comment": ""})
	require.Equal(t, http.StatusOK, status)

	data := body["data"].(map[string]interface{})
	assert.Equal(t, courseModels.AttemptFailed, data["result"])
	assert.NotContains(t, data, "certificate")

	var count int64
	database.Database.Db.Model(&courseModels.Certificate{}).Where("attempt_id = ?", attemptID).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestExamDoubleSubmitConflict(t *testing.T) {
	app := setupTestApp(t)
	sc := seedCourseWithExam(t)
	_, token := createTestUser(t, "Aminata", "aminata@example.com")

	enroll(t, app, token, sc.course.ID)
	completeAllLessons(t, app, token, sc)
	attemptID := startAttempt(t, app, token, sc)

	status, _ := doRequest(t, app, http.MethodPost,
		fmt.Sprintf("/exam/attempt/%d/submit", attemptID), token,
		fiber.Map{"answers": correctAnswers(sc)})
	require.Equal(t, http.StatusOK, status)

	status, body := doRequest(t, app, http.MethodPost,
		fmt.Sprintf("/exam/attempt/%d/submit", attemptID), token,
		fiber.Map{"answers": correctAnswers(sc)})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "Exam already submitted!", body["message"])
}

func TestExamRestartAfterPassRefused(t *testing.T) {
	app := setupTestApp(t)
	sc := seedCourseWithExam(t)
	_, token := createTestUser(t, "Aminata", "aminata@example.com")

	enroll(t, app, token, sc.course.ID)
	completeAllLessons(t, app, token, sc)
	attemptID := startAttempt(t, app, token, sc)

	status, _ := doRequest(t, app, http.MethodPost,
		fmt.Sprintf("/exam/attempt/%d/submit", attemptID), token,
		fiber.Map{"answers": correctAnswers(sc)})
	require.Equal(t, http.StatusOK, status)
	status, _ = doRequest(t, app, http.MethodPost,
		fmt.Sprintf("/exam/attempt/%d/satisfaction", attemptID), token,
		fiber.Map{"rating": 5, "comment": ""})
	require.Equal(t, http.StatusOK, status)

	// PASSED is absorbing: the entry state reports it and start is refused
	status, body := doRequest(t, app, http.MethodGet, fmt.Sprintf("/course/%d/exam", sc.course.ID), token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ALREADY_PASSED", body["data"].(map[string]interface{})["entry_state"])

	status, body = doRequest(t, app, http.MethodPost,
		fmt.Sprintf("/course/%d/exam/start", sc.course.ID), token,
		fiber.Map{"display_name": "Aminata Traoré"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "Exam already passed!", body["message"])
}

func TestExamRestartExpiresDanglingAttempt(t *testing.T) {
	app := setupTestApp(t)
	sc := seedCourseWithExam(t)
	_, token := createTestUser(t, "Aminata", "aminata@example.com")

	enroll(t, app, token, sc.course.ID)
	completeAllLessons(t, app, token, sc)

	first := startAttempt(t, app, token, sc)
	second := startAttempt(t, app, token, sc)
	require.NotEqual(t, first, second)

	var abandoned courseModels.ExamAttempt
	require.NoError(t, database.Database.Db.First(&abandoned, first).Error)
	assert.Equal(t, courseModels.AttemptExpired, abandoned.Status)

	// The expired attempt can no longer be submitted
	status, body := doRequest(t, app, http.MethodPost,
		fmt.Sprintf("/exam/attempt/%d/submit", first), token,
		fiber.Map{"answers": correctAnswers(sc)})
	assert.Equal(t, http.StatusGone, status)
	assert.Equal(t, "Attempt expired. Please start the exam again!", body["message"])
}

func TestSatisfactionBeforeSubmitRejected(t *testing.T) {
	app := setupTestApp(t)
	sc := seedCourseWithExam(t)
	_, token := createTestUser(t, "Aminata", "aminata@example.com")

	enroll(t, app, token, sc.course.ID)
	completeAllLessons(t, app, token, sc)
	attemptID := startAttempt(t, app, token, sc)

	status, body := doRequest(t, app, http.MethodPost,
		fmt.Sprintf("/exam/attempt/%d/satisfaction", attemptID), token,
		fiber.Map{"rating": 5, "comment": ""})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Please submit the exam first!", body["message"])
}

func TestExamQuestionsHideCorrectFlags(t *testing.T) {
	app := setupTestApp(t)
	sc := seedCourseWithExam(t)
	_, token := createTestUser(t, "Aminata", "aminata@example.com")

	enroll(t, app, token, sc.course.ID)
	completeAllLessons(t, app, token, sc)

	status, body := doRequest(t, app, http.MethodGet, fmt.Sprintf("/course/%d/exam", sc.course.ID), token, nil)
	require.Equal(t, http.StatusOK, status)

	questions := body["data"].(map[string]interface{})["questions"].([]interface{})
	require.Len(t, questions, 2)
	for _, raw := range questions {
		choices := raw.(map[string]interface{})["choices"].([]interface{})
		require.Len(t, choices, 2)
		for _, ch := range choices {
			assert.Equal(t, false, ch.(map[string]interface{})["is_correct"])
		}
	}
}
