package controllers_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"odl/database"
	courseModels "odl/models/course"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCourseModulesEnrollmentGate(t *testing.T) {
	app := setupTestApp(t)
	sc := seedCourseWithExam(t)
	_, token := createTestUser(t, "Aminata", "aminata@example.com")

	// Preview stays open, the module tree does not
	status, _ := doRequest(t, app, http.MethodGet, fmt.Sprintf("/course/%d", sc.course.ID), token, nil)
	assert.Equal(t, http.StatusOK, status)

	status, body := doRequest(t, app, http.MethodGet, fmt.Sprintf("/course/%d/modules", sc.course.ID), token, nil)
	require.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "You are not enrolled in this course!", body["message"])

	enroll(t, app, token, sc.course.ID)

	status, body = doRequest(t, app, http.MethodGet, fmt.Sprintf("/course/%d/modules", sc.course.ID), token, nil)
	require.Equal(t, http.StatusOK, status)
	modules := body["data"].(map[string]interface{})["modules"].([]interface{})
	require.Len(t, modules, 1)
	lessons := modules[0].(map[string]interface{})["lessons"].([]interface{})
	assert.Len(t, lessons, 3)
}

func TestEnrollTwiceConflict(t *testing.T) {
	app := setupTestApp(t)
	sc := seedCourseWithExam(t)
	_, token := createTestUser(t, "Aminata", "aminata@example.com")

	enroll(t, app, token, sc.course.ID)

	status, body := doRequest(t, app, http.MethodPost, fmt.Sprintf("/course/%d/enroll", sc.course.ID), token, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "User already enrolled in this course!", body["message"])
}

func TestMarkLessonCompleteIdempotent(t *testing.T) {
	app := setupTestApp(t)
	sc := seedCourseWithExam(t)
	user, token := createTestUser(t, "Aminata", "aminata@example.com")

	enroll(t, app, token, sc.course.ID)

	path := fmt.Sprintf("/course/%d/lesson/%d/complete", sc.course.ID, sc.lessons[0].ID)

	status, body := doRequest(t, app, http.MethodPost, path, token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Lesson marked as completed successfully!", body["message"])

	// Marking again changes nothing and still answers success
	status, body = doRequest(t, app, http.MethodPost, path, token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Lesson already completed!", body["message"])

	var count int64
	database.Database.Db.Model(&courseModels.LessonCompletion{}).
		Where("user_id = ? AND lesson_id = ?", user.ID, sc.lessons[0].ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestMarkLessonCompleteRequiresEnrollment(t *testing.T) {
	app := setupTestApp(t)
	sc := seedCourseWithExam(t)
	_, token := createTestUser(t, "Moussa", "moussa@example.com")

	status, body := doRequest(t, app, http.MethodPost,
		fmt.Sprintf("/course/%d/lesson/%d/complete", sc.course.ID, sc.lessons[0].ID), token, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "User not enrolled in this course!", body["message"])
}

func TestProgressReflectsCompletions(t *testing.T) {
	app := setupTestApp(t)
	sc := seedCourseWithExam(t)
	user, token := createTestUser(t, "Aminata", "aminata@example.com")

	enroll(t, app, token, sc.course.ID)

	status, body := doRequest(t, app, http.MethodGet, fmt.Sprintf("/course/%d/progress", sc.course.ID), token, nil)
	require.Equal(t, http.StatusOK, status)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(3), data["total_lessons"])
	assert.Equal(t, float64(0), data["completed_lessons"])
	assert.Equal(t, float64(0), data["percent"])

	status, _ = doRequest(t, app, http.MethodPost,
		fmt.Sprintf("/course/%d/lesson/%d/complete", sc.course.ID, sc.lessons[0].ID), token, nil)
	require.Equal(t, http.StatusOK, status)

	status, body = doRequest(t, app, http.MethodGet, fmt.Sprintf("/course/%d/progress", sc.course.ID), token, nil)
	require.Equal(t, http.StatusOK, status)
	data = body["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["completed_lessons"])
	assert.InDelta(t, 100.0/3.0, data["percent"].(float64), 0.01)

	completeAllLessons(t, app, token, sc)

	status, body = doRequest(t, app, http.MethodGet, fmt.Sprintf("/course/%d/progress", sc.course.ID), token, nil)
	require.Equal(t, http.StatusOK, status)
	data = body["data"].(map[string]interface{})
	assert.Equal(t, float64(3), data["completed_lessons"])
	assert.Equal(t, float64(100), data["percent"])

	// The enrollment row tracks the same numbers and flips to COMPLETED
	var enrollment courseModels.Enrollment
	require.NoError(t, database.Database.Db.
		Where("user_id = ? AND course_id = ?", user.ID, sc.course.ID).First(&enrollment).Error)
	assert.Equal(t, "COMPLETED", enrollment.Status)
	assert.Equal(t, 3, enrollment.CompletedLessons)
	require.NotNil(t, enrollment.CompletedAt)
	assert.WithinDuration(t, time.Now(), *enrollment.CompletedAt, time.Minute)
}

func TestPracticeQuizDuplicateSelectionsEarnNothing(t *testing.T) {
	app := setupTestApp(t)
	sc := seedCourseWithExam(t)
	_, token := createTestUser(t, "Aminata", "aminata@example.com")

	enroll(t, app, token, sc.course.ID)

	quizLesson := courseModels.Lesson{
		CourseID:    sc.course.ID,
		ModuleID:    sc.lessons[0].ModuleID,
		Title:       "Checkpoint quiz",
		ContentType: "QUIZ",
		OrderIndex:  10,
		IsPublished: true,
	}
	require.NoError(t, database.Database.Db.Create(&quizLesson).Error)

	first := courseModels.QuizOption{LessonID: quizLesson.ID, OptionText: "Right A", IsCorrect: true, OrderIndex: 1}
	second := courseModels.QuizOption{LessonID: quizLesson.ID, OptionText: "Right B", IsCorrect: true, OrderIndex: 2}
	wrong := courseModels.QuizOption{LessonID: quizLesson.ID, OptionText: "Wrong", OrderIndex: 3}
	require.NoError(t, database.Database.Db.Create(&first).Error)
	require.NoError(t, database.Database.Db.Create(&second).Error)
	require.NoError(t, database.Database.Db.Create(&wrong).Error)

	path := fmt.Sprintf("/course/%d/lesson/%d/quiz/submit", sc.course.ID, quizLesson.ID)

	// Repeating one correct option must not pass for the full correct set
	status, body := doRequest(t, app, http.MethodPost, path, token,
		map[string]interface{}{"selected_option_ids": []uint{first.ID, first.ID}})
	require.Equal(t, http.StatusOK, status)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, false, data["is_correct"])
	assert.Equal(t, float64(1), data["score"])

	// The exact set still passes
	status, body = doRequest(t, app, http.MethodPost, path, token,
		map[string]interface{}{"selected_option_ids": []uint{first.ID, second.ID}})
	require.Equal(t, http.StatusOK, status)
	data = body["data"].(map[string]interface{})
	assert.Equal(t, true, data["is_correct"])
}

func TestUnpublishedLessonNotCompletable(t *testing.T) {
	app := setupTestApp(t)
	sc := seedCourseWithExam(t)
	_, token := createTestUser(t, "Aminata", "aminata@example.com")

	enroll(t, app, token, sc.course.ID)

	hidden := courseModels.Lesson{
		CourseID:    sc.course.ID,
		ModuleID:    sc.lessons[0].ModuleID,
		Title:       "Draft lesson",
		ContentType: "VIDEO",
		OrderIndex:  99,
		IsPublished: false,
	}
	require.NoError(t, database.Database.Db.Create(&hidden).Error)

	status, body := doRequest(t, app, http.MethodPost,
		fmt.Sprintf("/course/%d/lesson/%d/complete", sc.course.ID, hidden.ID), token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Lesson not found!", body["message"])
}
