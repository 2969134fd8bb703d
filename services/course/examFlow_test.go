package courseService

import (
	"errors"
	"math/rand"
	"testing"

	courseModels "odl/models/course"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubmitter struct {
	submitCalls       int
	satisfactionCalls int
	attemptID         uint
	submitErr         error
	result            string
	satisfactionErr   error
	gotAnswers        map[string]interface{}
	gotIdentity       CertificateIdentity
	gotRating         int
	reenter           *ExamSession // when set, SubmitExam re-fires Submit to simulate a double-click in the pending window
}

func (f *fakeSubmitter) SubmitExam(examID uint, answers map[string]interface{}, identity CertificateIdentity) (uint, error) {
	f.submitCalls++
	f.gotAnswers = answers
	f.gotIdentity = identity
	if f.reenter != nil {
		session := f.reenter
		f.reenter = nil
		err := session.Submit()
		if err == nil {
			panic("re-entrant submit must be rejected")
		}
	}
	return f.attemptID, f.submitErr
}

func (f *fakeSubmitter) SubmitSatisfaction(attemptID uint, rating int, comment string) (string, error) {
	f.satisfactionCalls++
	f.gotRating = rating
	if f.satisfactionErr != nil {
		return "", f.satisfactionErr
	}
	return f.result, nil
}

func questionWithID(id uint, qType string, points int) courseModels.ExamQuestion {
	q := courseModels.ExamQuestion{QuestionType: qType, Points: points}
	q.ID = id
	return q
}

func choiceWithID(id uint, correct bool) courseModels.ExamChoice {
	c := courseModels.ExamChoice{IsCorrect: correct}
	c.ID = id
	return c
}

func passedAttempt() *courseModels.ExamAttempt {
	return &courseModels.ExamAttempt{Status: courseModels.AttemptPassed}
}

func TestResolveEntryState(t *testing.T) {
	tests := []struct {
		name        string
		percent     float64
		lessonCount int
		latest      *courseModels.ExamAttempt
		want        ExamEntryState
	}{
		{"zero lessons stays locked even at 100 percent", 100, 0, nil, ExamLocked},
		{"incomplete lessons stay locked", 50, 2, nil, ExamLocked},
		{"all lessons complete unlocks", 100, 3, nil, ExamUnlocked},
		{"passed attempt is absorbing from locked", 50, 2, passedAttempt(), ExamAlreadyPassed},
		{"passed attempt is absorbing from unlocked", 100, 3, passedAttempt(), ExamAlreadyPassed},
		{"failed attempt does not block a retry", 100, 3, &courseModels.ExamAttempt{Status: courseModels.AttemptFailed}, ExamUnlocked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveEntryState(tt.percent, tt.lessonCount, tt.latest))
		})
	}
}

func newAnsweringSession(t *testing.T, questions []courseModels.ExamQuestion, submitter ExamSubmitter) *ExamSession {
	t.Helper()
	exam := courseModels.Exam{Title: "Final Exam"}
	exam.ID = 7
	session := NewExamSession(exam, questions, "aminata@example.com", submitter)
	require.NoError(t, session.ConfirmIdentity("Aminata Traoré"))
	return session
}

func TestConfirmIdentityValidation(t *testing.T) {
	exam := courseModels.Exam{}
	exam.ID = 7

	session := NewExamSession(exam, nil, "aminata@example.com", &fakeSubmitter{})
	assert.Error(t, session.ConfirmIdentity("   "), "display name is required")
	assert.Equal(t, SessionIdentityForm, session.State())

	broken := NewExamSession(exam, nil, "not-an-email", &fakeSubmitter{})
	assert.Error(t, broken.ConfirmIdentity("Aminata Traoré"))

	require.NoError(t, session.ConfirmIdentity("Aminata Traoré"))
	assert.Equal(t, SessionAnswering, session.State())
}

func TestIdentityEmailPinnedToAccount(t *testing.T) {
	submitter := &fakeSubmitter{attemptID: 42}
	session := newAnsweringSession(t, []courseModels.ExamQuestion{questionWithID(1, "SINGLE", 1)}, submitter)

	require.NoError(t, session.Submit())
	assert.Equal(t, "aminata@example.com", submitter.gotIdentity.Email)
	assert.Equal(t, "Aminata Traoré", submitter.gotIdentity.DisplayName)
}

func TestCursorBounds(t *testing.T) {
	questions := []courseModels.ExamQuestion{
		questionWithID(1, "SINGLE", 1),
		questionWithID(2, "SINGLE", 1),
	}
	session := newAnsweringSession(t, questions, &fakeSubmitter{})

	session.Previous()
	assert.Equal(t, 0, session.Cursor())

	session.Next()
	session.Next()
	session.Next()
	assert.Equal(t, 1, session.Cursor())
}

func TestAnswersKeyedByQuestionIDSurviveShuffle(t *testing.T) {
	questions := []courseModels.ExamQuestion{
		questionWithID(11, "SINGLE", 1),
		questionWithID(12, "SINGLE", 1),
		questionWithID(13, "SINGLE", 1),
	}
	choices := map[uint][]courseModels.ExamChoice{
		11: {choiceWithID(111, true), choiceWithID(112, false)},
		12: {choiceWithID(121, false), choiceWithID(122, true)},
		13: {choiceWithID(131, true), choiceWithID(132, false)},
	}

	session := newAnsweringSession(t, questions, &fakeSubmitter{attemptID: 42})
	require.NoError(t, session.Answer(11, uint(111)))
	require.NoError(t, session.Answer(12, uint(122)))
	require.NoError(t, session.Answer(13, uint(132)))

	score, maxScore := ScoreAnswers(questions, choices, session.answers)
	assert.Equal(t, 2, score)
	assert.Equal(t, 3, maxScore)

	// Reorder the questions between load and submit; the score must not move.
	for i := 0; i < 10; i++ {
		shuffled := make([]courseModels.ExamQuestion, len(questions))
		copy(shuffled, questions)
		rand.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		shuffledScore, shuffledMax := ScoreAnswers(shuffled, choices, session.answers)
		assert.Equal(t, score, shuffledScore)
		assert.Equal(t, maxScore, shuffledMax)
	}
}

func TestUnansweredCountWarnsButNeverBlocks(t *testing.T) {
	questions := []courseModels.ExamQuestion{
		questionWithID(1, "SINGLE", 1),
		questionWithID(2, "SINGLE", 1),
	}
	session := newAnsweringSession(t, questions, &fakeSubmitter{attemptID: 9})

	require.NoError(t, session.Answer(1, uint(10)))
	assert.Equal(t, 1, session.UnansweredCount())

	require.NoError(t, session.Submit(), "submission proceeds despite unanswered questions")
	assert.Equal(t, SessionAwaitingSatisfaction, session.State())
}

func TestMarkForReviewIsCosmetic(t *testing.T) {
	questions := []courseModels.ExamQuestion{questionWithID(1, "SINGLE", 1)}
	session := newAnsweringSession(t, questions, &fakeSubmitter{attemptID: 9})

	session.MarkForReview(1, true)
	assert.True(t, session.IsMarked(1))
	assert.Equal(t, 1, session.UnansweredCount(), "marking does not answer the question")

	require.NoError(t, session.Submit())
}

func TestSubmitSingleFlight(t *testing.T) {
	questions := []courseModels.ExamQuestion{questionWithID(1, "SINGLE", 1)}
	submitter := &fakeSubmitter{attemptID: 42}
	session := newAnsweringSession(t, questions, submitter)
	submitter.reenter = session // second fire arrives while the first is pending

	require.NoError(t, session.Submit())
	assert.Equal(t, 1, submitter.submitCalls, "exactly one backend submission")
}

func TestSubmitAlreadySubmittedBecomesAlreadyPassed(t *testing.T) {
	questions := []courseModels.ExamQuestion{questionWithID(1, "SINGLE", 1)}
	submitter := &fakeSubmitter{submitErr: ErrAlreadySubmitted}
	session := newAnsweringSession(t, questions, submitter)

	require.NoError(t, session.Submit())
	assert.Equal(t, SessionAlreadyPassed, session.State())
}

func TestSubmitTransientErrorKeepsAnswers(t *testing.T) {
	questions := []courseModels.ExamQuestion{questionWithID(1, "SINGLE", 1)}
	submitter := &fakeSubmitter{submitErr: errors.New("gateway timeout")}
	session := newAnsweringSession(t, questions, submitter)
	require.NoError(t, session.Answer(1, uint(10)))

	require.Error(t, session.Submit())
	assert.Equal(t, SessionAnswering, session.State())
	assert.Zero(t, session.UnansweredCount(), "answers preserved for retry")

	// Retry succeeds once the backend recovers.
	submitter.submitErr = nil
	submitter.attemptID = 42
	require.NoError(t, session.Submit())
	assert.Equal(t, uint(42), session.AttemptID())
}

func TestSatisfactionFinalizesResult(t *testing.T) {
	questions := []courseModels.ExamQuestion{questionWithID(1, "SINGLE", 1)}
	submitter := &fakeSubmitter{attemptID: 42, result: courseModels.AttemptPassed}
	session := newAnsweringSession(t, questions, submitter)
	require.NoError(t, session.Submit())

	assert.Error(t, session.SubmitSatisfaction(0, ""), "rating bounds")
	assert.Error(t, session.SubmitSatisfaction(6, ""))

	require.NoError(t, session.SubmitSatisfaction(5, "great course"))
	assert.Equal(t, SessionPassed, session.State())
	assert.Equal(t, courseModels.AttemptPassed, session.Result())
	assert.Equal(t, uint(42), session.AttemptID())
	assert.Equal(t, 5, submitter.gotRating)
}

func TestSatisfactionFailedResult(t *testing.T) {
	questions := []courseModels.ExamQuestion{questionWithID(1, "SINGLE", 1)}
	submitter := &fakeSubmitter{attemptID: 7, result: courseModels.AttemptFailed}
	session := newAnsweringSession(t, questions, submitter)
	require.NoError(t, session.Submit())

	require.NoError(t, session.SubmitSatisfaction(2, "too hard"))
	assert.Equal(t, SessionFailed, session.State())
}

func TestSatisfactionRequiredBeforeResults(t *testing.T) {
	questions := []courseModels.ExamQuestion{questionWithID(1, "SINGLE", 1)}
	session := newAnsweringSession(t, questions, &fakeSubmitter{attemptID: 7})

	assert.Error(t, session.SubmitSatisfaction(5, ""), "survey only opens after submission")

	require.NoError(t, session.Submit())
	assert.Equal(t, SessionAwaitingSatisfaction, session.State())
}

func TestScoreAnswersMulti(t *testing.T) {
	questions := []courseModels.ExamQuestion{questionWithID(1, "MULTI", 2)}
	choices := map[uint][]courseModels.ExamChoice{
		1: {choiceWithID(10, true), choiceWithID(11, true), choiceWithID(12, false)},
	}

	exact := map[string]interface{}{AnswerKey(1): []interface{}{float64(10), float64(11)}}
	score, maxScore := ScoreAnswers(questions, choices, exact)
	assert.Equal(t, 2, score)
	assert.Equal(t, 2, maxScore)

	partial := map[string]interface{}{AnswerKey(1): []interface{}{float64(10)}}
	score, _ = ScoreAnswers(questions, choices, partial)
	assert.Zero(t, score, "partial selection earns nothing")

	over := map[string]interface{}{AnswerKey(1): []interface{}{float64(10), float64(11), float64(12)}}
	score, _ = ScoreAnswers(questions, choices, over)
	assert.Zero(t, score, "selecting a wrong choice on top of the correct set earns nothing")
}

func TestScoreAnswersMultiDuplicatesAreNotASet(t *testing.T) {
	questions := []courseModels.ExamQuestion{questionWithID(1, "MULTI", 2)}
	choices := map[uint][]courseModels.ExamChoice{
		1: {choiceWithID(10, true), choiceWithID(11, true), choiceWithID(12, false)},
	}

	duplicated := map[string]interface{}{AnswerKey(1): []interface{}{float64(10), float64(10)}}
	score, _ := ScoreAnswers(questions, choices, duplicated)
	assert.Zero(t, score, "repeating one correct choice must not count as the full correct set")

	padded := map[string]interface{}{AnswerKey(1): []interface{}{float64(10), float64(10), float64(11)}}
	score, _ = ScoreAnswers(questions, choices, padded)
	assert.Equal(t, 2, score, "duplicates of correct choices collapse to the exact set")
}

func TestScoreAnswersTextNeedsManualReview(t *testing.T) {
	questions := []courseModels.ExamQuestion{questionWithID(1, "TEXT", 3)}
	answers := map[string]interface{}{AnswerKey(1): "free text response"}

	score, maxScore := ScoreAnswers(questions, nil, answers)
	assert.Zero(t, score)
	assert.Equal(t, 3, maxScore)
}
