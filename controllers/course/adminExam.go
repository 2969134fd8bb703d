package controllers

import (
	"odl/database"
	"odl/middleware"
	"odl/models"
	courseModels "odl/models/course"

	"github.com/gofiber/fiber/v2"
)

// AdminCreateExam creates the exam for a course. One exam per course.
func AdminCreateExam(c *fiber.Ctx) error {
	if user := requireAdmin(c); user == nil {
		return nil
	}

	courseID := c.Locals("courseID").(int)

	var course courseModels.Course
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", courseID, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	var existing courseModels.Exam
	if err := database.Database.Db.Where("course_id = ? AND is_deleted = ?", courseID, false).First(&existing).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Course already has an exam!", nil)
	}

	reqData, ok := c.Locals("validatedExam").(*struct {
		Title        string `json:"title"`
		Description  string `json:"description"`
		PassingScore int    `json:"passing_score"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	passingScore := reqData.PassingScore
	if passingScore == 0 {
		passingScore = 60
	}

	exam := courseModels.Exam{
		CourseID:     uint(courseID),
		Title:        reqData.Title,
		Description:  reqData.Description,
		PassingScore: passingScore,
	}

	if err := database.Database.Db.Create(&exam).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create exam!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Exam created successfully!", exam)
}

// AdminUpdateExam updates an exam's metadata and publish state
func AdminUpdateExam(c *fiber.Ctx) error {
	if user := requireAdmin(c); user == nil {
		return nil
	}

	courseID := c.Locals("courseID").(int)

	var exam courseModels.Exam
	if err := database.Database.Db.Where("course_id = ? AND is_deleted = ?", courseID, false).First(&exam).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Exam not found!", nil)
	}

	reqData, ok := c.Locals("validatedExamUpdate").(*struct {
		Title        string `json:"title"`
		Description  string `json:"description"`
		PassingScore int    `json:"passing_score"`
		IsPublished  *bool  `json:"is_published"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	if reqData.Title != "" {
		exam.Title = reqData.Title
	}
	if reqData.Description != "" {
		exam.Description = reqData.Description
	}
	if reqData.PassingScore > 0 {
		exam.PassingScore = reqData.PassingScore
	}
	if reqData.IsPublished != nil {
		exam.IsPublished = *reqData.IsPublished
	}

	if err := database.Database.Db.Save(&exam).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update exam!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Exam updated successfully!", exam)
}

// AdminAddExamQuestion adds a question (with choices) to an exam
func AdminAddExamQuestion(c *fiber.Ctx) error {
	if user := requireAdmin(c); user == nil {
		return nil
	}

	courseID := c.Locals("courseID").(int)

	var exam courseModels.Exam
	if err := database.Database.Db.Where("course_id = ? AND is_deleted = ?", courseID, false).First(&exam).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Exam not found!", nil)
	}

	reqData, ok := c.Locals("validatedExamQuestion").(*struct {
		Prompt       string `json:"prompt"`
		QuestionType string `json:"question_type"`
		Points       int    `json:"points"`
		OrderIndex   int    `json:"order_index"`
		Choices      []struct {
			ChoiceText string `json:"choice_text"`
			IsCorrect  bool   `json:"is_correct"`
		} `json:"choices"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	questionType := reqData.QuestionType
	if questionType == "" {
		questionType = "SINGLE"
	}

	points := reqData.Points
	if points == 0 {
		points = 1
	}

	orderIndex := reqData.OrderIndex
	if orderIndex == 0 {
		var maxOrder int
		database.Database.Db.Model(&courseModels.ExamQuestion{}).Where("exam_id = ? AND is_deleted = ?", exam.ID, false).Select("COALESCE(MAX(order_index), 0)").Scan(&maxOrder)
		orderIndex = maxOrder + 1
	}

	tx := database.Database.Db.Begin()

	question := courseModels.ExamQuestion{
		ExamID:       exam.ID,
		Prompt:       reqData.Prompt,
		QuestionType: questionType,
		Points:       points,
		OrderIndex:   orderIndex,
	}

	if err := tx.Create(&question).Error; err != nil {
		tx.Rollback()
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create question!", nil)
	}

	for i, choice := range reqData.Choices {
		examChoice := courseModels.ExamChoice{
			QuestionID: question.ID,
			ChoiceText: choice.ChoiceText,
			IsCorrect:  choice.IsCorrect,
			OrderIndex: i + 1,
		}
		if err := tx.Create(&examChoice).Error; err != nil {
			tx.Rollback()
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create choices!", nil)
		}
	}

	tx.Commit()

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Question added successfully!", question)
}

// AdminDeleteExamQuestion soft deletes a question and its choices
func AdminDeleteExamQuestion(c *fiber.Ctx) error {
	if user := requireAdmin(c); user == nil {
		return nil
	}

	questionID := c.Locals("questionID").(int)

	var question courseModels.ExamQuestion
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", questionID, false).First(&question).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Question not found!", nil)
	}

	tx := database.Database.Db.Begin()

	question.IsDeleted = true
	if err := tx.Save(&question).Error; err != nil {
		tx.Rollback()
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete question!", nil)
	}

	if err := tx.Model(&courseModels.ExamChoice{}).Where("question_id = ?", questionID).Update("is_deleted", true).Error; err != nil {
		tx.Rollback()
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete choices!", nil)
	}

	tx.Commit()

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Question deleted successfully!", nil)
}

// AdminListExamAttempts lists exam attempts for a course with user details
func AdminListExamAttempts(c *fiber.Ctx) error {
	if user := requireAdmin(c); user == nil {
		return nil
	}

	courseID := c.Locals("courseID").(int)

	reqData, _ := c.Locals("validatedAdminList").(*struct {
		Page  *int `json:"page"`
		Limit *int `json:"limit"`
	})

	page := 1
	limit := 10
	if reqData != nil && reqData.Page != nil && *reqData.Page > 0 {
		page = *reqData.Page
	}
	if reqData != nil && reqData.Limit != nil && *reqData.Limit > 0 {
		limit = *reqData.Limit
	}
	offset := (page - 1) * limit

	var total int64
	database.Database.Db.Model(&courseModels.ExamAttempt{}).Where("course_id = ? AND is_deleted = ?", courseID, false).Count(&total)

	var attempts []courseModels.ExamAttempt
	if err := database.Database.Db.Where("course_id = ? AND is_deleted = ?", courseID, false).
		Offset(offset).Limit(limit).Order("created_at desc").Find(&attempts).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch attempts!", nil)
	}

	type AttemptWithUser struct {
		courseModels.ExamAttempt
		UserName  string `json:"user_name"`
		UserEmail string `json:"user_email"`
	}

	result := make([]AttemptWithUser, len(attempts))
	for i, a := range attempts {
		var attemptUser models.User
		database.Database.Db.Select("name, email").Where("id = ?", a.UserID).First(&attemptUser)
		result[i] = AttemptWithUser{
			ExamAttempt: a,
			UserName:    attemptUser.Name,
			UserEmail:   attemptUser.Email,
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Exam attempts fetched successfully!", fiber.Map{
		"attempts": result,
		"pagination": fiber.Map{
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}
