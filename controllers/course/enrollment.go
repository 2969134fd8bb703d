package controllers

import (
	"log"

	"odl/database"
	"odl/middleware"
	"odl/models"
	courseModels "odl/models/course"
	courseService "odl/services/course"
	"odl/utils"

	"github.com/gofiber/fiber/v2"
)

func EnrollInCourse(c *fiber.Ctx) error {
	// Retrieve userId from JWT middleware
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	// Check if user exists
	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	// Retrieve validated course ID
	courseID := c.Locals("courseID").(int)

	// Check if course exists and is published
	var course courseModels.Course
	if err := database.Database.Db.Where("id = ? AND is_deleted = ? AND is_published = ?", courseID, false, true).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found or not published!", nil)
	}

	// Check if user is already enrolled
	var existingEnrollment courseModels.Enrollment
	if err := database.Database.Db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, courseID, false).First(&existingEnrollment).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "User already enrolled in this course!", nil)
	}

	// Create enrollment
	enrollment := courseModels.Enrollment{
		UserID:   userID,
		CourseID: uint(courseID),
		Status:   "ENROLLED",
	}

	// Save to database with transaction
	tx := database.Database.Db.Begin()
	if err := tx.Create(&enrollment).Error; err != nil {
		tx.Rollback()
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to enroll in course!", nil)
	}
	tx.Commit()

	go func(email, name, courseName string) {
		if err := utils.SendEnrollmentEmail(email, name, courseName); err != nil {
			log.Printf("Failed to send enrollment email to %s: %v", email, err)
		}
	}(user.Email, user.Name, course.Title)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrolled in course successfully!", enrollment)
}

// ModuleWithLessons is one node of the gated module tree
type ModuleWithLessons struct {
	courseModels.Module
	Lessons []LessonWithQuiz `json:"lessons"`
}

// LessonWithQuiz enriches a lesson with its practice-quiz options (answers
// stripped) and the learner's completion flag
type LessonWithQuiz struct {
	courseModels.Lesson
	QuizOptions []courseModels.QuizOption `json:"quiz_options,omitempty"`
	IsCompleted bool                      `json:"is_completed"`
}

// GetCourseModules returns the module and lesson tree for an enrolled
// learner. A 403 here is the enrollment signal the learning page keys off:
// non-enrolled learners are bounced to the course preview, so this endpoint
// must fail closed rather than leak content.
func GetCourseModules(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	courseID := c.Locals("courseID").(int)

	// Check if course exists and is published
	var course courseModels.Course
	if err := database.Database.Db.Where("id = ? AND is_deleted = ? AND is_published = ?", courseID, false, true).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found or not published!", nil)
	}

	// Enrollment gate: the failed enrollment lookup is the not-enrolled
	// signal that bounces the learner back to the course preview
	_, enrollErr := courseService.FindEnrollment(database.Database.Db, userID, uint(courseID))
	gate := courseService.ResolveEnrollment(true, courseService.ModuleFetch{Err: enrollErr})
	if courseService.ShouldRedirectToPreview(gate) {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You are not enrolled in this course!", nil)
	}

	// Get modules in course order
	var modules []courseModels.Module
	database.Database.Db.Where("course_id = ? AND is_deleted = ?", courseID, false).Order("order_index asc").Find(&modules)

	// Completed lesson IDs for the completion flags
	var completions []courseModels.LessonCompletion
	database.Database.Db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, courseID, false).Find(&completions)
	completed := make(map[uint]bool, len(completions))
	for _, comp := range completions {
		completed[comp.LessonID] = true
	}

	tree := make([]ModuleWithLessons, len(modules))
	for i, mod := range modules {
		var lessons []courseModels.Lesson
		database.Database.Db.Where("module_id = ? AND is_deleted = ? AND is_published = ?", mod.ID, false, true).Order("order_index asc").Find(&lessons)

		node := ModuleWithLessons{Module: mod, Lessons: make([]LessonWithQuiz, len(lessons))}
		for j, lesson := range lessons {
			node.Lessons[j] = LessonWithQuiz{
				Lesson:      lesson,
				IsCompleted: completed[lesson.ID],
			}

			// Attach practice-quiz options for QUIZ lessons
			if lesson.ContentType == "QUIZ" {
				var options []courseModels.QuizOption
				database.Database.Db.Where("lesson_id = ? AND is_deleted = ?", lesson.ID, false).Order("order_index asc").Find(&options)
				// Remove IsCorrect from options for users (don't show answers)
				for k := range options {
					options[k].IsCorrect = false
				}
				node.Lessons[j].QuizOptions = options
			}
		}
		tree[i] = node
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course modules fetched successfully!", fiber.Map{
		"course":  course,
		"modules": tree,
	})
}

// GetUserEnrollmentsList gets all enrollments for the current user
func GetUserEnrollmentsList(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	type EnrollmentWithCourse struct {
		courseModels.Enrollment
		CourseName        string `json:"course_name"`
		CourseDescription string `json:"course_description"`
		CourseAuthor      string `json:"course_author"`
		CourseDuration    int64  `json:"course_duration"`
	}

	var enrollments []courseModels.Enrollment
	if err := database.Database.Db.Where("user_id = ? AND is_deleted = ?", userID, false).Order("created_at desc").Find(&enrollments).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch enrollments!", nil)
	}

	result := make([]EnrollmentWithCourse, len(enrollments))
	for i, e := range enrollments {
		var course courseModels.Course
		database.Database.Db.Where("id = ?", e.CourseID).First(&course)
		result[i] = EnrollmentWithCourse{
			Enrollment:        e,
			CourseName:        course.Title,
			CourseDescription: course.Description,
			CourseAuthor:      course.Author,
			CourseDuration:    course.Duration,
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollments fetched successfully!", fiber.Map{
		"enrollments": result,
		"total":       len(result),
	})
}
