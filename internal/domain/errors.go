package domain

import "errors"

var (
	// ErrSimulationNotFound is returned when a simulation id does not exist.
	ErrSimulationNotFound = errors.New("simulation not found")
	// ErrWordNotFound indicates a vocabulary word id is unknown.
	ErrWordNotFound = errors.New("word not found")
	// ErrRunNotFound is returned when a simulation run has not been started.
	ErrRunNotFound = errors.New("simulation run not found")
	// ErrRunNotStarted is returned when acting on a run before Start.
	ErrRunNotStarted = errors.New("simulation run not started")
	// ErrRunClosed is returned when acting on a run after teardown.
	ErrRunClosed = errors.New("simulation run closed")
	// ErrStageSubmitted is returned when acting on a stage that was already submitted.
	ErrStageSubmitted = errors.New("stage already submitted")
	// ErrIncompleteStage is returned when submitting a stage with unanswered questions.
	ErrIncompleteStage = errors.New("stage has unanswered questions")
	// ErrRunFinished is returned when the run has reached its final state.
	ErrRunFinished = errors.New("simulation run finished")
	// ErrOptionOutOfRange indicates a selected option index does not exist.
	ErrOptionOutOfRange = errors.New("option index out of range")
	// ErrQuestionIndexOutOfRange indicates a question position outside the current stage.
	ErrQuestionIndexOutOfRange = errors.New("question index out of range")
	// ErrInvalidStatus indicates an unknown progress status value.
	ErrInvalidStatus = errors.New("invalid status")
	// ErrInvalidQuestionType indicates an unknown question type.
	ErrInvalidQuestionType = errors.New("invalid question type")
)
