package courseRoutes

import (
	controllers "odl/controllers/course"
	"odl/middleware"
	validators "odl/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupAdminCourseRoutes sets up all admin course management routes.
// Permissions are seeded at signup; content management runs behind
// "manage-courses" and the reporting surface behind "view-dashboard".
func SetupAdminCourseRoutes(app *fiber.App) {
	adminGroup := app.Group("/admin/course", middleware.JWTMiddleware, middleware.CheckPermissionMiddleware("manage-courses"))

	// Course CRUD
	adminGroup.Post("/create", validators.CreateCourseAdmin(), controllers.AdminCreateCourse)
	adminGroup.Get("/list", validators.AdminList(), controllers.AdminGetAllCourses)
	adminGroup.Put("/:id", validators.UpdateCourseAdmin(), controllers.AdminUpdateCourse)
	adminGroup.Delete("/:id", validators.CourseIDAdmin(), controllers.AdminDeleteCourse)
	adminGroup.Get("/:id", validators.CourseIDAdmin(), controllers.AdminGetCourseDetails)
	adminGroup.Post("/:id/publish", validators.PublishCourseAdmin(), controllers.AdminPublishCourse)

	// Module Management
	adminGroup.Post("/:id/module", validators.CreateModuleAdmin(), controllers.AdminCreateModule)
	adminGroup.Get("/:id/modules", validators.CourseIDAdmin(), controllers.AdminListModules)
	adminGroup.Put("/:id/module/:module_id", validators.UpdateModuleAdmin(), controllers.AdminUpdateModule)
	adminGroup.Delete("/:id/module/:module_id", validators.ModuleIDAdmin(), controllers.AdminDeleteModule)

	// Lesson Management
	adminGroup.Post("/:id/module/:module_id/lesson", validators.CreateLessonAdmin(), controllers.AdminCreateLesson)

	lessonGroup := app.Group("/admin/lesson", middleware.JWTMiddleware, middleware.CheckPermissionMiddleware("manage-courses"))
	lessonGroup.Put("/:lesson_id", validators.UpdateLessonAdmin(), controllers.AdminUpdateLesson)
	lessonGroup.Delete("/:lesson_id", validators.LessonIDAdmin(), controllers.AdminDeleteLesson)
	lessonGroup.Post("/:lesson_id/quiz/option", validators.AddQuizOptionAdmin(), controllers.AdminAddQuizOption)

	// Exam Management
	adminGroup.Post("/:id/exam", validators.CreateExamAdmin(), controllers.AdminCreateExam)
	adminGroup.Put("/:id/exam", validators.UpdateExamAdmin(), controllers.AdminUpdateExam)
	adminGroup.Post("/:id/exam/question", validators.AddExamQuestionAdmin(), controllers.AdminAddExamQuestion)
	adminGroup.Get("/:id/exam/attempts", validators.CourseIDAdmin(), validators.AdminList(), controllers.AdminListExamAttempts)

	examQuestionGroup := app.Group("/admin/exam/question", middleware.JWTMiddleware, middleware.CheckPermissionMiddleware("manage-courses"))
	examQuestionGroup.Delete("/:question_id", validators.QuestionIDAdmin(), controllers.AdminDeleteExamQuestion)

	// Enrollment & Progress Tracking
	adminGroup.Get("/:id/enrollments", validators.EnrollmentQueryAdmin(), controllers.AdminGetCourseEnrollments)
	adminGroup.Get("/:id/completed", validators.CourseIDAdmin(), controllers.AdminGetCompletedStudents)

	studentGroup := app.Group("/admin/student", middleware.JWTMiddleware, middleware.CheckPermissionMiddleware("view-dashboard"))
	studentGroup.Get("/:user_id/progress", validators.StudentIDAdmin(), controllers.AdminGetStudentProgress)

	// Certificate Management
	certGroup := app.Group("/admin/certificates", middleware.JWTMiddleware, middleware.CheckPermissionMiddleware("view-dashboard"))
	certGroup.Get("/issued", validators.AdminList(), controllers.AdminGetIssuedCertificates)

	// Dashboard
	dashGroup := app.Group("/admin/dashboard", middleware.JWTMiddleware, middleware.CheckPermissionMiddleware("view-dashboard"))
	dashGroup.Get("/stats", controllers.AdminDashboardStats)
}
