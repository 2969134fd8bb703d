package courseService

import (
	"fmt"
	"sort"

	courseModels "odl/models/course"
)

// CompletionSink persists a confirmed lesson completion. MarkComplete only
// records a lesson locally after the sink succeeds; there is no optimistic
// marking.
type CompletionSink interface {
	CompleteLesson(courseID, lessonID uint) error
}

// FlattenLessons orders a course's lessons by module order then in-module
// order, which is the canonical lesson sequence for navigation and progress.
func FlattenLessons(modules []courseModels.Module, lessons []courseModels.Lesson) []courseModels.Lesson {
	moduleOrder := make(map[uint]int, len(modules))
	sorted := make([]courseModels.Module, len(modules))
	copy(sorted, modules)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].OrderIndex < sorted[j].OrderIndex })
	for i, m := range sorted {
		moduleOrder[m.ID] = i
	}

	flat := make([]courseModels.Lesson, 0, len(lessons))
	for _, l := range lessons {
		if _, ok := moduleOrder[l.ModuleID]; ok {
			flat = append(flat, l)
		}
	}
	sort.SliceStable(flat, func(i, j int) bool {
		mi, mj := moduleOrder[flat[i].ModuleID], moduleOrder[flat[j].ModuleID]
		if mi != mj {
			return mi < mj
		}
		return flat[i].OrderIndex < flat[j].OrderIndex
	})
	return flat
}

// ProgressTracker maintains the ordered lesson list, the completion set and
// the current lesson for one enrolled course.
type ProgressTracker struct {
	lessons   []courseModels.Lesson
	completed map[uint]bool
	currentID uint
	sink      CompletionSink
}

// NewProgressTracker builds a tracker over an already-flattened lesson
// sequence.
func NewProgressTracker(lessons []courseModels.Lesson, sink CompletionSink) *ProgressTracker {
	return &ProgressTracker{
		lessons:   lessons,
		completed: make(map[uint]bool),
		sink:      sink,
	}
}

// Initialize sets the current lesson to the first in sequence when it is
// unset or refers to a lesson no longer present.
func (t *ProgressTracker) Initialize() {
	if len(t.lessons) == 0 {
		t.currentID = 0
		return
	}
	for _, l := range t.lessons {
		if l.ID == t.currentID {
			return
		}
	}
	t.currentID = t.lessons[0].ID
}

// Current returns the current lesson ID (0 when the course has no lessons).
func (t *ProgressTracker) Current() uint {
	return t.currentID
}

// MarkComplete records a lesson completion. It is idempotent: a lesson that
// is already complete produces no sink call. The completion is only recorded
// locally after the sink confirms.
func (t *ProgressTracker) MarkComplete(courseID, lessonID uint) error {
	if !t.contains(lessonID) {
		return fmt.Errorf("lesson %d is not part of this course", lessonID)
	}
	if t.completed[lessonID] {
		return nil
	}
	if err := t.sink.CompleteLesson(courseID, lessonID); err != nil {
		return err
	}
	t.completed[lessonID] = true
	return nil
}

// Advance moves the current lesson to the next in sequence. It is a no-op at
// the last lesson.
func (t *ProgressTracker) Advance() {
	for i, l := range t.lessons {
		if l.ID == t.currentID && i+1 < len(t.lessons) {
			t.currentID = t.lessons[i+1].ID
			return
		}
	}
}

// PercentComplete returns completion as a 0-100 percentage, 0 for a course
// with no lessons.
func (t *ProgressTracker) PercentComplete() float64 {
	if len(t.lessons) == 0 {
		return 0
	}
	return float64(len(t.completed)) / float64(len(t.lessons)) * 100
}

// Resync replaces the local completion set with the backend's payload. A
// replace, never a merge, so progress made in another session cannot drift.
// IDs that are not part of the lesson sequence are dropped.
func (t *ProgressTracker) Resync(completedIDs []uint) {
	fresh := make(map[uint]bool, len(completedIDs))
	for _, id := range completedIDs {
		if t.contains(id) {
			fresh[id] = true
		}
	}
	t.completed = fresh
}

// CompletedCount returns the size of the completion set.
func (t *ProgressTracker) CompletedCount() int {
	return len(t.completed)
}

// IsComplete reports whether a lesson is in the completion set.
func (t *ProgressTracker) IsComplete(lessonID uint) bool {
	return t.completed[lessonID]
}

func (t *ProgressTracker) contains(lessonID uint) bool {
	for _, l := range t.lessons {
		if l.ID == lessonID {
			return true
		}
	}
	return false
}

// LessonProgress is the per-lesson completed flag in a progress payload
type LessonProgress struct {
	LessonID  uint   `json:"lesson_id"`
	Title     string `json:"title"`
	ModuleID  uint   `json:"module_id"`
	Completed bool   `json:"completed"`
}

// ProgressSummary is the progress payload for one (user, course) pair
type ProgressSummary struct {
	TotalLessons     int              `json:"total_lessons"`
	CompletedLessons int              `json:"completed_lessons"`
	Percent          float64          `json:"percent"`
	Lessons          []LessonProgress `json:"lessons"`
}

// BuildProgress computes the progress summary from the flattened lesson
// sequence and the stored completion rows. Completions pointing at lessons
// outside the sequence are ignored, keeping the completion set a subset of
// the course's lessons.
func BuildProgress(lessons []courseModels.Lesson, completions []courseModels.LessonCompletion) ProgressSummary {
	done := make(map[uint]bool, len(completions))
	for _, c := range completions {
		done[c.LessonID] = true
	}

	summary := ProgressSummary{
		TotalLessons: len(lessons),
		Lessons:      make([]LessonProgress, len(lessons)),
	}
	for i, l := range lessons {
		completed := done[l.ID]
		if completed {
			summary.CompletedLessons++
		}
		summary.Lessons[i] = LessonProgress{
			LessonID:  l.ID,
			Title:     l.Title,
			ModuleID:  l.ModuleID,
			Completed: completed,
		}
	}
	if summary.TotalLessons > 0 {
		summary.Percent = float64(summary.CompletedLessons) / float64(summary.TotalLessons) * 100
	}
	return summary
}
