package play

import (
	"github.com/abhisek/timestables/internal/progression"
	"github.com/abhisek/timestables/internal/question"
)

// questionMsg carries the result of GetNextQuestion. A nil Question with
// no error means nothing is eligible yet.
type questionMsg struct {
	Question *question.Question
	Err      error
}

// answeredMsg carries the orchestrator's feedback for a submission.
type answeredMsg struct {
	Question *question.Question
	Feedback progression.Feedback
	Err      error
}

// timerTickMsg drives the countdown of one question. Ticks for any other
// question are stale and dropped.
type timerTickMsg struct {
	QuestionID string
}

// feedbackDoneMsg ends the feedback pause of one question.
type feedbackDoneMsg struct {
	QuestionID string
}

// pollMsg asks for another question after an idle wait.
type pollMsg struct{}
