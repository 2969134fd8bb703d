package courseService

import (
	courseModels "odl/models/course"

	"gorm.io/gorm"
)

// EnrollmentStatus is the tri-state answer to "may this learner see this
// course's content". It is recomputed on every course visit and never cached
// across courses.
type EnrollmentStatus string

const (
	EnrollmentUnknown EnrollmentStatus = "UNKNOWN" // module fetch still pending
	EnrollmentActive  EnrollmentStatus = "ENROLLED"
	EnrollmentNone    EnrollmentStatus = "NOT_ENROLLED"
)

// ModuleFetch captures the outcome of the modules-for-course call. A failure
// on this specific call is the backend's enrollment signal, not a generic
// transport error.
type ModuleFetch struct {
	Pending bool
	Err     error
	Modules []courseModels.Module
}

// ResolveEnrollment applies the ordered, short-circuiting enrollment gates.
// Missing authentication always forces NOT_ENROLLED, whatever the fetch did.
// A successful fetch counts as enrolled even when the module list is empty.
func ResolveEnrollment(authenticated bool, fetch ModuleFetch) EnrollmentStatus {
	if !authenticated {
		return EnrollmentNone
	}
	if fetch.Pending {
		return EnrollmentUnknown
	}
	if fetch.Err != nil {
		return EnrollmentNone
	}
	return EnrollmentActive
}

// ShouldRedirectToPreview reports whether the learner must be sent back to
// the course preview page. No redirect happens while the gate is still
// resolving.
func ShouldRedirectToPreview(status EnrollmentStatus) bool {
	return status == EnrollmentNone
}

// FindEnrollment looks up the learner's active enrollment for a course.
func FindEnrollment(db *gorm.DB, userID, courseID uint) (*courseModels.Enrollment, error) {
	var enrollment courseModels.Enrollment
	if err := db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, courseID, false).First(&enrollment).Error; err != nil {
		return nil, err
	}
	return &enrollment, nil
}
