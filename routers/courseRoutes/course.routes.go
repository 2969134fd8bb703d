package courseRoutes

import (
	controllers "odl/controllers/course"
	"odl/middleware"
	validators "odl/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupCourseRoutes sets up all user-facing course routes
func SetupCourseRoutes(app *fiber.App) {
	userGroup := app.Group("/course")

	// Course listing and preview details (no enrollment required)
	userGroup.Get("/list", middleware.JWTMiddleware, validators.CourseList(), controllers.GetAllCourses)
	userGroup.Get("/:id", middleware.JWTMiddleware, validators.GetCourseDetail(), controllers.GetCourseDetails)

	// Enrollment
	userGroup.Post("/:id/enroll", middleware.JWTMiddleware, validators.EnrollCourse(), controllers.EnrollInCourse)

	// Module tree (enrolled users only; 403 signals the enrollment gate)
	userGroup.Get("/:id/modules", middleware.JWTMiddleware, validators.GetCourseModules(), controllers.GetCourseModules)

	// Lesson completion and progress
	userGroup.Post("/:course_id/lesson/:lesson_id/complete", middleware.JWTMiddleware, validators.MarkLessonComplete(), controllers.MarkLessonComplete)
	userGroup.Get("/:course_id/progress", middleware.JWTMiddleware, validators.GetCourseProgress(), controllers.GetCourseProgress)

	// Practice quiz submission
	userGroup.Post("/:course_id/lesson/:lesson_id/quiz/submit", middleware.JWTMiddleware, validators.SubmitQuiz(), controllers.SubmitQuizAnswer)

	// Terminal exam
	userGroup.Get("/:course_id/exam", middleware.JWTMiddleware, validators.GetCourseExam(), controllers.GetCourseExam)
	userGroup.Post("/:course_id/exam/start", middleware.JWTMiddleware, validators.StartExam(), controllers.StartExamAttempt)

	examGroup := app.Group("/exam/attempt")
	examGroup.Post("/:attempt_id/submit", middleware.JWTMiddleware, validators.SubmitExam(), controllers.SubmitExamAttempt)
	examGroup.Post("/:attempt_id/satisfaction", middleware.JWTMiddleware, validators.SubmitSatisfaction(), controllers.SubmitSatisfaction)
	examGroup.Get("/:attempt_id/results", middleware.JWTMiddleware, validators.AttemptResults(), controllers.GetAttemptResults)

	// User enrollments and certificates
	userEnrollGroup := app.Group("/user")
	userEnrollGroup.Get("/enrollments", middleware.JWTMiddleware, controllers.GetUserEnrollmentsList)
	userEnrollGroup.Get("/certificates", middleware.JWTMiddleware, controllers.GetUserCertificates)

	// Public certificate verification by number
	app.Get("/certificate/:number", controllers.GetCertificate)
}
