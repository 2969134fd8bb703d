package courseService

import (
	"errors"
	"testing"

	courseModels "odl/models/course"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSink struct {
	calls int
	err   error
}

func (s *countingSink) CompleteLesson(courseID, lessonID uint) error {
	s.calls++
	return s.err
}

func lessonWithID(id uint, moduleID uint, order int) courseModels.Lesson {
	l := courseModels.Lesson{ModuleID: moduleID, OrderIndex: order}
	l.ID = id
	return l
}

func moduleWithID(id uint, order int) courseModels.Module {
	m := courseModels.Module{OrderIndex: order}
	m.ID = id
	return m
}

func TestFlattenLessonsOrdersByModuleThenLesson(t *testing.T) {
	modules := []courseModels.Module{
		moduleWithID(2, 1),
		moduleWithID(1, 0),
	}
	lessons := []courseModels.Lesson{
		lessonWithID(30, 2, 0),
		lessonWithID(10, 1, 1),
		lessonWithID(20, 1, 0),
	}

	flat := FlattenLessons(modules, lessons)
	require.Len(t, flat, 3)
	assert.Equal(t, uint(20), flat[0].ID)
	assert.Equal(t, uint(10), flat[1].ID)
	assert.Equal(t, uint(30), flat[2].ID)
}

func TestFlattenLessonsDropsOrphans(t *testing.T) {
	modules := []courseModels.Module{moduleWithID(1, 0)}
	lessons := []courseModels.Lesson{
		lessonWithID(10, 1, 0),
		lessonWithID(99, 7, 0), // module not part of the course
	}

	flat := FlattenLessons(modules, lessons)
	require.Len(t, flat, 1)
	assert.Equal(t, uint(10), flat[0].ID)
}

func TestPercentCompleteEmptyCourse(t *testing.T) {
	tracker := NewProgressTracker(nil, &countingSink{})
	assert.Equal(t, float64(0), tracker.PercentComplete())
}

func TestMarkCompleteIsIdempotent(t *testing.T) {
	sink := &countingSink{}
	tracker := NewProgressTracker([]courseModels.Lesson{lessonWithID(1, 1, 0), lessonWithID(2, 1, 1)}, sink)

	require.NoError(t, tracker.MarkComplete(5, 1))
	require.NoError(t, tracker.MarkComplete(5, 1))

	assert.Equal(t, 1, sink.calls, "second call on a completed lesson must not reach the sink")
	assert.Equal(t, 1, tracker.CompletedCount())
	assert.Equal(t, float64(50), tracker.PercentComplete())
}

func TestMarkCompleteNotRecordedOnSinkFailure(t *testing.T) {
	sink := &countingSink{err: errors.New("network down")}
	tracker := NewProgressTracker([]courseModels.Lesson{lessonWithID(1, 1, 0)}, sink)

	err := tracker.MarkComplete(5, 1)
	require.Error(t, err)
	assert.False(t, tracker.IsComplete(1))
	assert.Equal(t, float64(0), tracker.PercentComplete())
}

func TestMarkCompleteRejectsUnknownLesson(t *testing.T) {
	sink := &countingSink{}
	tracker := NewProgressTracker([]courseModels.Lesson{lessonWithID(1, 1, 0)}, sink)

	require.Error(t, tracker.MarkComplete(5, 42))
	assert.Zero(t, sink.calls)
}

func TestInitializeAndAdvance(t *testing.T) {
	lessons := []courseModels.Lesson{lessonWithID(1, 1, 0), lessonWithID(2, 1, 1), lessonWithID(3, 1, 2)}
	tracker := NewProgressTracker(lessons, &countingSink{})

	tracker.Initialize()
	assert.Equal(t, uint(1), tracker.Current())

	tracker.Advance()
	assert.Equal(t, uint(2), tracker.Current())

	tracker.Advance()
	tracker.Advance() // already at the last lesson, no-op
	assert.Equal(t, uint(3), tracker.Current())
}

func TestInitializeResetsStaleCurrentLesson(t *testing.T) {
	lessons := []courseModels.Lesson{lessonWithID(1, 1, 0), lessonWithID(2, 1, 1)}
	tracker := NewProgressTracker(lessons, &countingSink{})
	tracker.currentID = 99 // refers to a lesson no longer present

	tracker.Initialize()
	assert.Equal(t, uint(1), tracker.Current())
}

func TestResyncReplacesNotMerges(t *testing.T) {
	lessons := []courseModels.Lesson{lessonWithID(1, 1, 0), lessonWithID(2, 1, 1), lessonWithID(3, 1, 2)}
	sink := &countingSink{}
	tracker := NewProgressTracker(lessons, sink)

	require.NoError(t, tracker.MarkComplete(5, 1))
	require.NoError(t, tracker.MarkComplete(5, 2))

	// Backend says only lesson 3 is complete; local state must not survive.
	tracker.Resync([]uint{3})

	assert.False(t, tracker.IsComplete(1))
	assert.False(t, tracker.IsComplete(2))
	assert.True(t, tracker.IsComplete(3))
	assert.Equal(t, 1, tracker.CompletedCount())
}

func TestResyncDropsForeignLessonIDs(t *testing.T) {
	tracker := NewProgressTracker([]courseModels.Lesson{lessonWithID(1, 1, 0)}, &countingSink{})
	tracker.Resync([]uint{1, 42})
	assert.Equal(t, 1, tracker.CompletedCount())
}

func TestBuildProgress(t *testing.T) {
	lessons := []courseModels.Lesson{lessonWithID(1, 1, 0), lessonWithID(2, 1, 1)}
	completions := []courseModels.LessonCompletion{{UserID: 5, CourseID: 9, LessonID: 2}}

	summary := BuildProgress(lessons, completions)
	assert.Equal(t, 2, summary.TotalLessons)
	assert.Equal(t, 1, summary.CompletedLessons)
	assert.Equal(t, float64(50), summary.Percent)
	require.Len(t, summary.Lessons, 2)
	assert.False(t, summary.Lessons[0].Completed)
	assert.True(t, summary.Lessons[1].Completed)
}

func TestBuildProgressEmptyCourse(t *testing.T) {
	summary := BuildProgress(nil, nil)
	assert.Equal(t, float64(0), summary.Percent)
	assert.Zero(t, summary.TotalLessons)
}
