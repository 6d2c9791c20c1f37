package quiz

import "errors"

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionEnded      = errors.New("session has ended")
	ErrSessionExpired    = errors.New("session expired from inactivity")
	ErrUserNotFound      = errors.New("user not found")
	ErrTopicNotFound     = errors.New("topic not found")
	ErrTopicLocked       = errors.New("topic is not unlocked for this user")
	ErrNoPendingQuestion = errors.New("no question awaiting an action")
	ErrPendingQuestion   = errors.New("current question awaits an action")
	ErrUnknownAction     = errors.New("unknown action")
	ErrQuestionMismatch  = errors.New("question is no longer pending")
	ErrNoTopicsAvailable = errors.New("no unlocked topics available")
)
