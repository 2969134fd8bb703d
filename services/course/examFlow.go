package courseService

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	courseModels "odl/models/course"

	"github.com/go-playground/validator/v10"
)

// ExamEntryState gates the exam entry point. It is derived fresh on every
// visit from progress and the latest stored attempt, never from transient
// client memory.
type ExamEntryState string

const (
	ExamLocked        ExamEntryState = "LOCKED"
	ExamUnlocked      ExamEntryState = "UNLOCKED"
	ExamAlreadyPassed ExamEntryState = "ALREADY_PASSED"
)

// Session states for an exam attempt in flight
type SessionState string

const (
	SessionIdentityForm         SessionState = "IDENTITY_FORM"
	SessionAnswering            SessionState = "ANSWERING"
	SessionAwaitingSatisfaction SessionState = "AWAITING_SATISFACTION"
	SessionPassed               SessionState = "PASSED"
	SessionFailed               SessionState = "FAILED"
	SessionAlreadyPassed        SessionState = "ALREADY_PASSED"
)

// ErrAlreadySubmitted is the backend's "already submitted" business error.
// It converts into the ALREADY_PASSED state instead of surfacing as a
// failure.
var ErrAlreadySubmitted = errors.New("exam already submitted")

var validate = validator.New()

// ResolveEntryState derives the exam entry state. An earlier PASSED attempt
// is absorbing and overrides everything else. Unlocking requires every
// lesson complete and at least one lesson; an empty course stays locked.
func ResolveEntryState(percentComplete float64, lessonCount int, latest *courseModels.ExamAttempt) ExamEntryState {
	if latest != nil && latest.Status == courseModels.AttemptPassed {
		return ExamAlreadyPassed
	}
	if lessonCount > 0 && percentComplete >= 100 {
		return ExamUnlocked
	}
	return ExamLocked
}

// CertificateIdentity is the name/email pair printed on the certificate. The
// email is fixed to the authenticated account's email; only the display name
// is editable.
type CertificateIdentity struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

// ValidateIdentity checks the identity form before any network call: a
// non-empty display name and a syntactically valid email.
func ValidateIdentity(identity CertificateIdentity) error {
	if strings.TrimSpace(identity.DisplayName) == "" {
		return errors.New("display name is required")
	}
	if err := validate.Var(identity.Email, "required,email"); err != nil {
		return errors.New("invalid email address")
	}
	return nil
}

// ExamSubmitter is the backend collaborator for the terminal exam. The
// pass/fail determination comes from the backend, never from the session.
type ExamSubmitter interface {
	SubmitExam(examID uint, answers map[string]interface{}, identity CertificateIdentity) (attemptID uint, err error)
	SubmitSatisfaction(attemptID uint, rating int, comment string) (result string, err error)
}

// ExamSession drives one attempt through identity form, answering,
// submission and the mandatory satisfaction survey.
type ExamSession struct {
	state        SessionState
	exam         courseModels.Exam
	questions    []courseModels.ExamQuestion
	cursor       int
	answers      map[string]interface{}
	marked       map[string]bool
	identity     CertificateIdentity
	accountEmail string
	attemptID    uint
	result       string
	submitting   bool // single-flight guard for SubmitExam
	finalizing   bool // single-flight guard for SubmitSatisfaction
	submitter    ExamSubmitter
}

// NewExamSession opens a session at the identity form. The account email is
// pinned as the certificate email and cannot be overridden.
func NewExamSession(exam courseModels.Exam, questions []courseModels.ExamQuestion, accountEmail string, submitter ExamSubmitter) *ExamSession {
	return &ExamSession{
		state:        SessionIdentityForm,
		exam:         exam,
		questions:    questions,
		answers:      make(map[string]interface{}),
		marked:       make(map[string]bool),
		accountEmail: accountEmail,
		submitter:    submitter,
	}
}

// State returns the current session state.
func (s *ExamSession) State() SessionState { return s.state }

// AttemptID returns the backend attempt identifier, 0 before submission.
func (s *ExamSession) AttemptID() uint { return s.attemptID }

// Result returns the backend's pass/fail determination once finalized.
func (s *ExamSession) Result() string { return s.result }

// ConfirmIdentity validates the form and moves to answering. The email half
// of the identity is forced to the account email whatever was supplied.
func (s *ExamSession) ConfirmIdentity(displayName string) error {
	if s.state != SessionIdentityForm {
		return fmt.Errorf("cannot confirm identity in state %s", s.state)
	}
	identity := CertificateIdentity{DisplayName: strings.TrimSpace(displayName), Email: s.accountEmail}
	if err := ValidateIdentity(identity); err != nil {
		return err
	}
	s.identity = identity
	s.state = SessionAnswering
	return nil
}

// Cursor returns the current question index.
func (s *ExamSession) Cursor() int { return s.cursor }

// Next moves the question cursor forward, bounded to the last question.
func (s *ExamSession) Next() {
	if s.cursor < len(s.questions)-1 {
		s.cursor++
	}
}

// Previous moves the question cursor back, bounded to the first question.
func (s *ExamSession) Previous() {
	if s.cursor > 0 {
		s.cursor--
	}
}

// Answer records an answer keyed by question ID, so submission stays correct
// under any question reordering between load and submit.
func (s *ExamSession) Answer(questionID uint, value interface{}) error {
	if s.state != SessionAnswering {
		return fmt.Errorf("cannot answer in state %s", s.state)
	}
	if !s.hasQuestion(questionID) {
		return fmt.Errorf("question %d is not part of this exam", questionID)
	}
	s.answers[AnswerKey(questionID)] = value
	return nil
}

// MarkForReview tags a question. Purely cosmetic: no effect on scoring or
// submission eligibility.
func (s *ExamSession) MarkForReview(questionID uint, marked bool) {
	s.marked[AnswerKey(questionID)] = marked
}

// IsMarked reports whether a question carries the review tag.
func (s *ExamSession) IsMarked(questionID uint) bool {
	return s.marked[AnswerKey(questionID)]
}

// UnansweredCount returns how many questions have no recorded answer. Used
// for the pre-submit warning; it never blocks submission.
func (s *ExamSession) UnansweredCount() int {
	count := 0
	for _, q := range s.questions {
		if _, ok := s.answers[AnswerKey(q.ID)]; !ok {
			count++
		}
	}
	return count
}

// Submit sends the collected answers. Guarded against double-fire: a submit
// while one is pending is rejected. On the backend's "already submitted"
// error the session lands in ALREADY_PASSED; on any other error it stays in
// ANSWERING with answers preserved so the learner can retry.
func (s *ExamSession) Submit() error {
	if s.state != SessionAnswering {
		return fmt.Errorf("cannot submit in state %s", s.state)
	}
	if s.submitting {
		return errors.New("submission already in progress")
	}
	s.submitting = true
	attemptID, err := s.submitter.SubmitExam(s.exam.ID, s.answers, s.identity)
	s.submitting = false
	if err != nil {
		if errors.Is(err, ErrAlreadySubmitted) {
			s.state = SessionAlreadyPassed
			return nil
		}
		return err
	}
	s.attemptID = attemptID
	s.state = SessionAwaitingSatisfaction
	return nil
}

// SubmitSatisfaction records the mandatory survey and finalizes the attempt
// with the backend's pass/fail result.
func (s *ExamSession) SubmitSatisfaction(rating int, comment string) error {
	if s.state != SessionAwaitingSatisfaction {
		return fmt.Errorf("cannot submit satisfaction in state %s", s.state)
	}
	if rating < 1 || rating > 5 {
		return errors.New("rating must be between 1 and 5")
	}
	if s.finalizing {
		return errors.New("satisfaction submission already in progress")
	}
	s.finalizing = true
	result, err := s.submitter.SubmitSatisfaction(s.attemptID, rating, comment)
	s.finalizing = false
	if err != nil {
		return err
	}
	s.result = result
	if result == courseModels.AttemptPassed {
		s.state = SessionPassed
	} else {
		s.state = SessionFailed
	}
	return nil
}

func (s *ExamSession) hasQuestion(questionID uint) bool {
	for _, q := range s.questions {
		if q.ID == questionID {
			return true
		}
	}
	return false
}

// AnswerKey converts a question ID to its key in the answers map.
func AnswerKey(questionID uint) string {
	return strconv.FormatUint(uint64(questionID), 10)
}

// ScoreAnswers grades a submitted answer map against the exam's questions
// and correct choice sets. SINGLE expects one choice ID, MULTI an exact
// match of the correct set, TEXT is left for manual review and earns no
// automatic points. Only the backend runs this; practice quizzes have their
// own scoring path with a weaker trust model.
func ScoreAnswers(questions []courseModels.ExamQuestion, choicesByQuestion map[uint][]courseModels.ExamChoice, answers map[string]interface{}) (score, maxScore int) {
	for _, q := range questions {
		maxScore += q.Points
		raw, ok := answers[AnswerKey(q.ID)]
		if !ok {
			continue
		}
		switch q.QuestionType {
		case "SINGLE":
			if id, ok := answerAsID(raw); ok && isCorrectSingle(choicesByQuestion[q.ID], id) {
				score += q.Points
			}
		case "MULTI":
			if ids, ok := answerAsIDs(raw); ok && isCorrectMulti(choicesByQuestion[q.ID], ids) {
				score += q.Points
			}
		}
	}
	return score, maxScore
}

func isCorrectSingle(choices []courseModels.ExamChoice, selected uint) bool {
	for _, ch := range choices {
		if ch.ID == selected {
			return ch.IsCorrect
		}
	}
	return false
}

func isCorrectMulti(choices []courseModels.ExamChoice, selected []uint) bool {
	correct := make(map[uint]bool)
	for _, ch := range choices {
		if ch.IsCorrect {
			correct[ch.ID] = true
		}
	}
	// Compare as sets: duplicate selections must not stand in for the
	// missing half of the correct set
	picked := make(map[uint]bool, len(selected))
	for _, id := range selected {
		if !correct[id] {
			return false
		}
		picked[id] = true
	}
	return len(picked) == len(correct)
}

// answerAsID tolerates the numeric types a JSON answer payload may carry.
func answerAsID(raw interface{}) (uint, bool) {
	switch v := raw.(type) {
	case float64:
		return uint(v), true
	case int:
		return uint(v), true
	case uint:
		return v, true
	case string:
		if id, err := strconv.ParseUint(v, 10, 64); err == nil {
			return uint(id), true
		}
	}
	return 0, false
}

func answerAsIDs(raw interface{}) ([]uint, bool) {
	list, ok := raw.([]interface{})
	if !ok {
		if typed, ok := raw.([]uint); ok {
			return typed, true
		}
		return nil, false
	}
	ids := make([]uint, 0, len(list))
	for _, item := range list {
		id, ok := answerAsID(item)
		if !ok {
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, true
}
