package controllers

import (
	"log"
	"time"

	"odl/database"
	"odl/middleware"
	"odl/models"
	courseModels "odl/models/course"
	courseService "odl/services/course"
	"odl/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
)

// QuestionWithChoices is an exam question as shown to the learner: choices
// carried, correct flags stripped.
type QuestionWithChoices struct {
	courseModels.ExamQuestion
	Choices []courseModels.ExamChoice `json:"choices"`
}

// GetCourseExam returns the course's terminal exam together with the
// learner's entry state, derived fresh from stored progress and the latest
// attempt on every call.
func GetCourseExam(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	courseID := c.Locals("courseID").(int)

	// Enrollment gate
	var enrollment courseModels.Enrollment
	if err := database.Database.Db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, courseID, false).First(&enrollment).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You are not enrolled in this course!", nil)
	}

	var exam courseModels.Exam
	if err := database.Database.Db.Where("course_id = ? AND is_deleted = ? AND is_published = ?", courseID, false, true).First(&exam).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "This course has no exam!", nil)
	}

	summary := buildCourseProgress(userID, uint(courseID))
	latest := latestAttempt(userID, exam.ID)
	entryState := courseService.ResolveEntryState(summary.Percent, summary.TotalLessons, latest)

	// A locked exam shows only the blocking screen: metadata and entry
	// state, never the question content
	if entryState == courseService.ExamLocked {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Exam fetched successfully!", fiber.Map{
			"exam":           exam,
			"entry_state":    entryState,
			"percent":        summary.Percent,
			"total_lessons":  summary.TotalLessons,
			"latest_attempt": attemptView(latest),
		})
	}

	questions, choicesByQuestion := loadExamQuestions(exam.ID)

	result := make([]QuestionWithChoices, len(questions))
	for i, q := range questions {
		choices := choicesByQuestion[q.ID]
		// Remove IsCorrect from choices for users (don't show answers)
		sanitized := make([]courseModels.ExamChoice, len(choices))
		copy(sanitized, choices)
		for j := range sanitized {
			sanitized[j].IsCorrect = false
		}
		result[i] = QuestionWithChoices{ExamQuestion: q, Choices: sanitized}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Exam fetched successfully!", fiber.Map{
		"exam":           exam,
		"questions":      result,
		"entry_state":    entryState,
		"percent":        summary.Percent,
		"total_lessons":  summary.TotalLessons,
		"latest_attempt": attemptView(latest),
	})
}

// StartExamAttempt opens a new attempt after the identity form. Hard guards:
// every lesson complete (and at least one lesson), and no prior passed
// attempt. Any dangling in-progress attempt is expired rather than resumed,
// so a fresh visit always restarts from the entry state.
func StartExamAttempt(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	courseID := c.Locals("courseID").(int)

	reqData, ok := c.Locals("validatedExamStart").(*struct {
		DisplayName string `json:"display_name"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	// Enrollment gate
	var enrollment courseModels.Enrollment
	if err := database.Database.Db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, courseID, false).First(&enrollment).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You are not enrolled in this course!", nil)
	}

	var exam courseModels.Exam
	if err := database.Database.Db.Where("course_id = ? AND is_deleted = ? AND is_published = ?", courseID, false, true).First(&exam).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "This course has no exam!", nil)
	}

	summary := buildCourseProgress(userID, uint(courseID))
	switch courseService.ResolveEntryState(summary.Percent, summary.TotalLessons, latestAttempt(userID, exam.ID)) {
	case courseService.ExamAlreadyPassed:
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Exam already passed!", nil)
	case courseService.ExamLocked:
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Please finish your lessons before taking the exam!", nil)
	}

	// Certificate identity: the email is pinned to the account, only the
	// display name comes from the form
	accountEmail := user.Email
	if email, ok := c.Locals("email").(string); ok && email != "" {
		accountEmail = email
	}
	identity := courseService.CertificateIdentity{DisplayName: reqData.DisplayName, Email: accountEmail}
	if err := courseService.ValidateIdentity(identity); err != nil {
		return middleware.ValidationErrorResponse(c, map[string]string{"identity": err.Error()})
	}

	// Abandoned attempts are never resumed mid-answering
	database.Database.Db.Model(&courseModels.ExamAttempt{}).
		Where("user_id = ? AND exam_id = ? AND status = ? AND is_deleted = ?", userID, exam.ID, courseModels.AttemptInProgress, false).
		Update("status", courseModels.AttemptExpired)

	attempt := courseModels.ExamAttempt{
		UserID:           userID,
		ExamID:           exam.ID,
		CourseID:         uint(courseID),
		Status:           courseModels.AttemptInProgress,
		Answers:          datatypes.JSONMap{},
		CertificateName:  identity.DisplayName,
		CertificateEmail: identity.Email,
	}

	tx := database.Database.Db.Begin()
	if err := tx.Create(&attempt).Error; err != nil {
		tx.Rollback()
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to start exam attempt!", nil)
	}
	tx.Commit()

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Exam attempt started!", attempt)
}

// SubmitExamAttempt records the collected answers and scores them
// server-side. The score stays hidden until the satisfaction survey lands.
// The status transition is guarded in the database so a double-fired submit
// results in exactly one accepted submission.
func SubmitExamAttempt(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	attemptID := c.Locals("attemptID").(int)

	reqData, ok := c.Locals("validatedExamSubmit").(*struct {
		Answers map[string]interface{} `json:"answers"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	var attempt courseModels.ExamAttempt
	if err := database.Database.Db.Where("id = ? AND user_id = ? AND is_deleted = ?", attemptID, userID, false).First(&attempt).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Exam attempt not found!", nil)
	}

	switch attempt.Status {
	case courseModels.AttemptSubmitted, courseModels.AttemptPassed, courseModels.AttemptFailed:
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Exam already submitted!", nil)
	case courseModels.AttemptExpired:
		return middleware.JsonResponse(c, fiber.StatusGone, false, "Attempt expired. Please start the exam again!", nil)
	}

	questions, choicesByQuestion := loadExamQuestions(attempt.ExamID)
	score, maxScore := courseService.ScoreAnswers(questions, choicesByQuestion, reqData.Answers)

	// Advisory only: unanswered questions never block submission
	unanswered := 0
	for _, q := range questions {
		if _, ok := reqData.Answers[courseService.AnswerKey(q.ID)]; !ok {
			unanswered++
		}
	}

	now := time.Now()
	result := database.Database.Db.Model(&courseModels.ExamAttempt{}).
		Where("id = ? AND status = ? AND is_deleted = ?", attempt.ID, courseModels.AttemptInProgress, false).
		Updates(map[string]interface{}{
			"status":       courseModels.AttemptSubmitted,
			"answers":      datatypes.JSONMap(reqData.Answers),
			"score":        score,
			"max_score":    maxScore,
			"submitted_at": &now,
		})
	if result.Error != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to submit exam!", nil)
	}
	if result.RowsAffected == 0 {
		// A concurrent submit won the transition
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Exam already submitted!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Exam submitted! Complete the satisfaction survey to view your results.", fiber.Map{
		"attempt_id":           attempt.ID,
		"unanswered_questions": unanswered,
	})
}

// SubmitSatisfaction records the mandatory post-submission survey and
// finalizes the attempt. Only now does the backend's pass/fail determination
// become visible; a passed attempt triggers certificate issuance.
func SubmitSatisfaction(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	attemptID := c.Locals("attemptID").(int)

	reqData, ok := c.Locals("validatedSatisfaction").(*struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	var attempt courseModels.ExamAttempt
	if err := database.Database.Db.Where("id = ? AND user_id = ? AND is_deleted = ?", attemptID, userID, false).First(&attempt).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Exam attempt not found!", nil)
	}

	switch attempt.Status {
	case courseModels.AttemptInProgress:
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Please submit the exam first!", nil)
	case courseModels.AttemptPassed, courseModels.AttemptFailed:
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Attempt already finalized!", nil)
	case courseModels.AttemptExpired:
		return middleware.JsonResponse(c, fiber.StatusGone, false, "Attempt expired. Please start the exam again!", nil)
	}

	var exam courseModels.Exam
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", attempt.ExamID, false).First(&exam).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to load exam!", nil)
	}

	percent := float64(0)
	if attempt.MaxScore > 0 {
		percent = float64(attempt.Score) / float64(attempt.MaxScore) * 100
	}
	finalStatus := courseModels.AttemptFailed
	if percent >= float64(exam.PassingScore) {
		finalStatus = courseModels.AttemptPassed
	}

	now := time.Now()
	result := database.Database.Db.Model(&courseModels.ExamAttempt{}).
		Where("id = ? AND status = ? AND is_deleted = ?", attempt.ID, courseModels.AttemptSubmitted, false).
		Updates(map[string]interface{}{
			"status":               finalStatus,
			"satisfaction_rating":  reqData.Rating,
			"satisfaction_comment": reqData.Comment,
			"finalized_at":         &now,
		})
	if result.Error != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to record satisfaction survey!", nil)
	}
	if result.RowsAffected == 0 {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Attempt already finalized!", nil)
	}

	response := fiber.Map{
		"attempt_id": attempt.ID,
		"result":     finalStatus,
		"score":      attempt.Score,
		"max_score":  attempt.MaxScore,
		"percent":    percent,
	}

	if finalStatus == courseModels.AttemptPassed {
		certificate, err := issueCertificate(user, attempt)
		if err != nil {
			log.Printf("Failed to issue certificate for attempt %d: %v", attempt.ID, err)
		} else {
			response["certificate"] = certificate
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Satisfaction survey recorded!", response)
}

// GetAttemptResults returns the finalized score and result. Results stay
// locked behind the satisfaction survey.
func GetAttemptResults(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	attemptID := c.Locals("attemptID").(int)

	var attempt courseModels.ExamAttempt
	if err := database.Database.Db.Where("id = ? AND user_id = ? AND is_deleted = ?", attemptID, userID, false).First(&attempt).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Exam attempt not found!", nil)
	}

	switch attempt.Status {
	case courseModels.AttemptInProgress:
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Exam not submitted yet!", nil)
	case courseModels.AttemptSubmitted:
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Please complete the satisfaction survey to view your results!", nil)
	case courseModels.AttemptExpired:
		return middleware.JsonResponse(c, fiber.StatusGone, false, "Attempt expired. Please start the exam again!", nil)
	}

	percent := float64(0)
	if attempt.MaxScore > 0 {
		percent = float64(attempt.Score) / float64(attempt.MaxScore) * 100
	}

	var certificate courseModels.Certificate
	hasCertificate := database.Database.Db.Where("attempt_id = ? AND is_deleted = ?", attempt.ID, false).First(&certificate).Error == nil

	response := fiber.Map{
		"attempt":   attempt,
		"result":    attempt.Status,
		"score":     attempt.Score,
		"max_score": attempt.MaxScore,
		"percent":   percent,
	}
	if hasCertificate {
		response["certificate"] = certificate
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Results fetched successfully!", response)
}

// latestAttempt returns the learner's most recent attempt for an exam, nil
// when none exists.
func latestAttempt(userID, examID uint) *courseModels.ExamAttempt {
	var attempt courseModels.ExamAttempt
	if err := database.Database.Db.Where("user_id = ? AND exam_id = ? AND is_deleted = ?", userID, examID, false).Order("created_at desc").First(&attempt).Error; err != nil {
		return nil
	}
	return &attempt
}

// attemptView hides the score of an attempt that is not finalized yet
func attemptView(attempt *courseModels.ExamAttempt) *courseModels.ExamAttempt {
	if attempt == nil {
		return nil
	}
	if attempt.Status == courseModels.AttemptInProgress || attempt.Status == courseModels.AttemptSubmitted {
		masked := *attempt
		masked.Score = 0
		masked.MaxScore = 0
		return &masked
	}
	return attempt
}

// loadExamQuestions fetches an exam's ordered questions and their choices
func loadExamQuestions(examID uint) ([]courseModels.ExamQuestion, map[uint][]courseModels.ExamChoice) {
	var questions []courseModels.ExamQuestion
	database.Database.Db.Where("exam_id = ? AND is_deleted = ?", examID, false).Order("order_index asc").Find(&questions)

	choicesByQuestion := make(map[uint][]courseModels.ExamChoice, len(questions))
	for _, q := range questions {
		var choices []courseModels.ExamChoice
		database.Database.Db.Where("question_id = ? AND is_deleted = ?", q.ID, false).Order("order_index asc").Find(&choices)
		choicesByQuestion[q.ID] = choices
	}
	return questions, choicesByQuestion
}

// issueCertificate creates the certificate row for a passed attempt, asks
// the external renderer for a document URL (best effort) and emails the
// learner.
func issueCertificate(user models.User, attempt courseModels.ExamAttempt) (courseModels.Certificate, error) {
	var course courseModels.Course
	database.Database.Db.Where("id = ?", attempt.CourseID).First(&course)

	certificate := courseModels.Certificate{
		UserID:            user.ID,
		CourseID:          attempt.CourseID,
		AttemptID:         attempt.ID,
		CertificateNumber: utils.NewCertificateNumber(),
		RecipientName:     attempt.CertificateName,
		RecipientEmail:    attempt.CertificateEmail,
		IssuedAt:          time.Now(),
	}

	if url, err := utils.RenderCertificate(certificate.CertificateNumber, certificate.RecipientName, course.Title); err != nil {
		log.Printf("Certificate renderer unavailable for %s: %v", certificate.CertificateNumber, err)
	} else {
		certificate.CertificateURL = url
	}

	if err := database.Database.Db.Create(&certificate).Error; err != nil {
		return certificate, err
	}

	go func(email, name, courseName, number string) {
		if err := utils.SendCertificateEmail(email, name, courseName, number); err != nil {
			log.Printf("Failed to send certificate email to %s: %v", email, err)
		}
	}(certificate.RecipientEmail, certificate.RecipientName, course.Title, certificate.CertificateNumber)

	return certificate, nil
}
