// Package quiz runs practice sessions: serving questions, judging
// answers, feeding the mastery ledger, and kicking off ontology
// expansion when a learner levels up.
package quiz

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/apoorv/socratic/internal/logger"
	"github.com/apoorv/socratic/internal/mastery"
	"github.com/apoorv/socratic/internal/ontology"
	"github.com/apoorv/socratic/internal/question"
	"github.com/apoorv/socratic/internal/store"
	"github.com/apoorv/socratic/internal/teach"
)

// Learner actions on a served question.
const (
	ActionAnswer  = "answer"
	ActionSkip    = "skip"
	ActionTeachMe = "teach_me"
)

// Interest deltas per action. Answering signals engagement, asking to
// be taught signals mild interest, skipping signals aversion.
const (
	interestAnswer  = 0.15
	interestTeachMe = 0.05
	interestSkip    = -0.4
)

// Config controls session behavior.
type Config struct {
	// IdleTimeout ends a session that has seen no activity.
	IdleTimeout time.Duration

	// ExpansionTimeout bounds the background ontology expansion
	// started by a level advance.
	ExpansionTimeout time.Duration
}

// DefaultConfig returns the standard session configuration.
func DefaultConfig() Config {
	return Config{
		IdleTimeout:      30 * time.Minute,
		ExpansionTimeout: 60 * time.Second,
	}
}

// Service coordinates sessions, question serving, and progress.
type Service struct {
	st          *store.Store
	ledger      *mastery.Ledger
	provisioner *question.Provisioner
	generator   *ontology.Generator
	cache       *ontology.TreeCache
	teacher     *teach.Service
	config      Config
	locks       *sessionLocks
	log         *logger.Logger
}

// NewService wires a quiz service. The teach service is optional; when
// nil, teach-me actions serve the question's stored explanation.
func NewService(st *store.Store, ledger *mastery.Ledger, prov *question.Provisioner, gen *ontology.Generator, cache *ontology.TreeCache, teacher *teach.Service, cfg Config, log *logger.Logger) *Service {
	return &Service{
		st:          st,
		ledger:      ledger,
		provisioner: prov,
		generator:   gen,
		cache:       cache,
		teacher:     teacher,
		config:      cfg,
		locks:       newSessionLocks(),
		log:         log.With("component", "quiz"),
	}
}

// SessionView is the API shape of a session.
type SessionView struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	TopicID   *uuid.UUID `json:"topic_id,omitempty"`
	StartedAt time.Time  `json:"started_at"`
}

// ServedView is a question as presented to the learner. Options are in
// presentation order; the correct answer is not included.
type ServedView struct {
	SessionID  uuid.UUID `json:"session_id"`
	QuestionID string    `json:"question_id"`
	Sequence   int       `json:"sequence"`
	TopicID    uuid.UUID `json:"topic_id"`
	TopicName  string    `json:"topic_name"`
	Prompt     string    `json:"prompt"`
	Options    []string  `json:"options"`
	Difficulty int       `json:"difficulty"`
	Source     string    `json:"source"`
}

// ActionResult reports the outcome of acting on a question.
type ActionResult struct {
	Action        string          `json:"action"`
	Correct       *bool           `json:"correct,omitempty"`
	CorrectAnswer string          `json:"correct_answer"`
	Explanation   string          `json:"explanation"`
	Mastery       *mastery.Result `json:"mastery,omitempty"`

	// Lesson is set on teach-me actions.
	Lesson *teach.Lesson `json:"lesson,omitempty"`

	// ExpansionPending is true when this action triggered subtopic
	// generation that is still running.
	ExpansionPending bool `json:"expansion_pending"`
}

// Summary describes a finished or running session.
type Summary struct {
	SessionID      uuid.UUID  `json:"session_id"`
	TotalQuestions int        `json:"total_questions"`
	TotalCorrect   int        `json:"total_correct"`
	StartedAt      time.Time  `json:"started_at"`
	EndedAt        *time.Time `json:"ended_at,omitempty"`
}

// Start opens a session for the user. A nil topicID starts an adaptive
// session that picks a topic per question; otherwise the topic must be
// unlocked for the user.
func (s *Service) Start(ctx context.Context, userID uuid.UUID, topicID *uuid.UUID) (*SessionView, error) {
	if _, err := s.st.Users().Get(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	if topicID != nil {
		if _, err := s.st.Topics().Get(ctx, *topicID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, ErrTopicNotFound
			}
			return nil, fmt.Errorf("load topic: %w", err)
		}
		rec, err := s.st.Mastery().Get(ctx, userID, *topicID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("load mastery: %w", err)
		}
		if err != nil || !rec.Unlocked {
			return nil, ErrTopicLocked
		}
	}

	sess := &store.QuizSession{UserID: userID, TopicID: topicID}
	if err := s.st.Sessions().Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.log.Info("session started", "session_id", sess.ID, "user_id", userID, "adaptive", topicID == nil)
	return &SessionView{
		ID:        sess.ID,
		UserID:    sess.UserID,
		TopicID:   sess.TopicID,
		StartedAt: sess.StartedAt,
	}, nil
}

// Next serves the session's next question. If a question is already
// pending it is served again with freshly shuffled options; the
// sequence only advances through actions.
func (s *Service) Next(ctx context.Context, sessionID uuid.UUID) (*ServedView, error) {
	release := s.locks.acquire(sessionID)
	defer release()

	sess, err := s.activeSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	last, err := s.st.Sessions().LastServed(ctx, sessionID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("load last served: %w", err)
	}
	if err == nil && last.Action == "" {
		return s.presentStored(ctx, last)
	}

	topic, level, err := s.pickTopic(ctx, sess)
	if err != nil {
		return nil, err
	}

	served, err := s.st.Sessions().Served(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load served: %w", err)
	}
	exclude := make([]string, 0, len(served))
	var prior []string
	for _, sq := range served {
		exclude = append(exclude, sq.QuestionID)
		if sq.TopicID == topic.ID {
			prior = append(prior, sq.Prompt)
		}
	}

	q := s.provisioner.Next(ctx, question.ProvisionInput{
		TopicID:       topic.ID,
		TopicName:     topic.Name,
		Description:   topic.Description,
		Level:         level,
		DifficultyMin: topic.DifficultyMin,
		DifficultyMax: topic.DifficultyMax,
		ExcludeIDs:    exclude,
		PriorPrompts:  prior,
	})

	seq := 1
	if last != nil {
		seq = last.Sequence + 1
	}
	row := &store.ServedQuestion{
		SessionID:     sessionID,
		Sequence:      seq,
		TopicID:       topic.ID,
		QuestionID:    q.ID,
		Prompt:        q.Prompt,
		Options:       datatypes.NewJSONType(q.Options),
		CorrectAnswer: q.CorrectAnswer,
		Explanation:   q.Explanation,
		Difficulty:    q.Difficulty,
		Source:        string(q.Source),
	}
	if err := s.st.Sessions().AppendServed(ctx, row); err != nil {
		return nil, fmt.Errorf("persist served question: %w", err)
	}
	if err := s.st.Sessions().Touch(ctx, sessionID, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("touch session: %w", err)
	}

	return &ServedView{
		SessionID:  sessionID,
		QuestionID: q.ID,
		Sequence:   seq,
		TopicID:    topic.ID,
		TopicName:  topic.Name,
		Prompt:     q.Prompt,
		Options:    shuffleOptions(q.Options),
		Difficulty: q.Difficulty,
		Source:     string(q.Source),
	}, nil
}

// Act applies a learner action to the pending question. Every action
// advances the sequence exactly once; acting twice on the same
// question fails. A non-empty questionID must name the pending
// question, so a client acting on a question it no longer holds gets
// a mismatch instead of scoring the wrong one.
func (s *Service) Act(ctx context.Context, sessionID uuid.UUID, questionID, action, answer string) (*ActionResult, error) {
	release := s.locks.acquire(sessionID)
	defer release()

	sess, err := s.activeSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	pending, err := s.st.Sessions().LastServed(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNoPendingQuestion
		}
		return nil, fmt.Errorf("load pending question: %w", err)
	}
	if pending.Action != "" {
		return nil, ErrNoPendingQuestion
	}
	if questionID != "" && questionID != pending.QuestionID {
		return nil, ErrQuestionMismatch
	}

	var (
		isCorrect *bool
		interest  float64
	)
	switch action {
	case ActionAnswer:
		correct := question.Matches(answer, pending.CorrectAnswer)
		isCorrect = &correct
		interest = interestAnswer
	case ActionSkip:
		interest = interestSkip
	case ActionTeachMe:
		interest = interestTeachMe
	default:
		return nil, ErrUnknownAction
	}

	err = s.st.Sessions().RecordAction(ctx, pending.ID, action, answer, isCorrect, interest)
	if err != nil {
		if errors.Is(err, store.ErrAlreadyAnswered) {
			return nil, ErrNoPendingQuestion
		}
		return nil, fmt.Errorf("record action: %w", err)
	}

	result := &ActionResult{
		Action:        action,
		Correct:       isCorrect,
		CorrectAnswer: pending.CorrectAnswer,
		Explanation:   pending.Explanation,
	}

	switch action {
	case ActionAnswer:
		mres, err := s.ledger.RecordAnswer(ctx, sess.UserID, pending.TopicID, *isCorrect)
		if err != nil {
			return nil, err
		}
		result.Mastery = &mres
		if mres.Advanced {
			s.expandAsync(sess.UserID, pending.TopicID, mres.Level)
			result.ExpansionPending = s.generator.Tracker().InFlight(sess.UserID, pending.TopicID)
		}
	case ActionTeachMe:
		if s.teacher != nil {
			topic, err := s.st.Topics().Get(ctx, pending.TopicID)
			if err != nil {
				return nil, fmt.Errorf("load topic: %w", err)
			}
			st, err := s.ledger.StatusFor(ctx, sess.UserID, pending.TopicID)
			if err != nil {
				return nil, err
			}
			result.Lesson = s.teacher.Lesson(ctx, teach.Input{
				TopicName:     topic.Name,
				Level:         st.Level,
				Prompt:        pending.Prompt,
				CorrectAnswer: pending.CorrectAnswer,
				Explanation:   pending.Explanation,
			})
		}
	}

	return result, nil
}

// expandAsync runs ontology expansion off the request path so the
// session keeps moving while subtopics generate.
func (s *Service) expandAsync(userID, topicID uuid.UUID, level mastery.Level) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.config.ExpansionTimeout)
		defer cancel()
		if _, err := s.generator.MaybeExpand(ctx, userID, topicID, level); err != nil {
			s.log.Error("background expansion failed", "user_id", userID, "topic_id", topicID, "error", err)
		}
	}()
}

// End closes a session and returns its summary. Ending twice fails
// with ErrSessionEnded.
func (s *Service) End(ctx context.Context, sessionID uuid.UUID) (*Summary, error) {
	release := s.locks.acquire(sessionID)
	defer release()

	sess, err := s.st.Sessions().Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	if sess.EndedAt != nil {
		return nil, ErrSessionEnded
	}

	now := time.Now().UTC()
	if err := s.st.Sessions().End(ctx, sessionID, now); err != nil {
		return nil, fmt.Errorf("end session: %w", err)
	}

	sess, err = s.st.Sessions().Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("reload session: %w", err)
	}
	s.log.Info("session ended", "session_id", sessionID, "questions", sess.TotalQuestions, "correct", sess.TotalCorrect)
	return summaryOf(sess), nil
}

// Progress returns the running summary without ending the session.
func (s *Service) Progress(ctx context.Context, sessionID uuid.UUID) (*Summary, error) {
	sess, err := s.st.Sessions().Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	return summaryOf(sess), nil
}

func summaryOf(sess *store.QuizSession) *Summary {
	return &Summary{
		SessionID:      sess.ID,
		TotalQuestions: sess.TotalQuestions,
		TotalCorrect:   sess.TotalCorrect,
		StartedAt:      sess.StartedAt,
		EndedAt:        sess.EndedAt,
	}
}

// activeSession loads a session and enforces liveness: ended sessions
// reject further operations and idle sessions expire on touch.
func (s *Service) activeSession(ctx context.Context, sessionID uuid.UUID) (*store.QuizSession, error) {
	sess, err := s.st.Sessions().Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	if sess.EndedAt != nil {
		return nil, ErrSessionEnded
	}
	if time.Since(sess.LastActivityAt) > s.config.IdleTimeout {
		if err := s.st.Sessions().End(ctx, sessionID, time.Now().UTC()); err != nil {
			return nil, fmt.Errorf("expire session: %w", err)
		}
		s.log.Info("session expired", "session_id", sessionID)
		return nil, ErrSessionExpired
	}
	return sess, nil
}

// presentStored re-serves a pending question with a fresh shuffle.
func (s *Service) presentStored(ctx context.Context, row *store.ServedQuestion) (*ServedView, error) {
	topic, err := s.st.Topics().Get(ctx, row.TopicID)
	if err != nil {
		return nil, fmt.Errorf("load topic: %w", err)
	}
	return &ServedView{
		SessionID:  row.SessionID,
		Sequence:   row.Sequence,
		TopicID:    row.TopicID,
		TopicName:  topic.Name,
		Prompt:     row.Prompt,
		Options:    shuffleOptions(row.Options.Data()),
		Difficulty: row.Difficulty,
		Source:     row.Source,
	}, nil
}

// pickTopic resolves the topic for the next question: the session's
// fixed topic, or for adaptive sessions the unlocked topic the learner
// has shown the most interest in, breaking ties toward the least
// practiced.
func (s *Service) pickTopic(ctx context.Context, sess *store.QuizSession) (*store.Topic, mastery.Level, error) {
	if sess.TopicID != nil {
		topic, err := s.st.Topics().Get(ctx, *sess.TopicID)
		if err != nil {
			return nil, "", fmt.Errorf("load topic: %w", err)
		}
		st, err := s.ledger.StatusFor(ctx, sess.UserID, topic.ID)
		if err != nil {
			return nil, "", err
		}
		return topic, st.Level, nil
	}

	// A pending expansion may be about to unlock topics; wait so the
	// adaptive choice sees them.
	if err := s.generator.Tracker().Wait(ctx, sess.UserID); err != nil {
		return nil, "", err
	}

	records, err := s.st.Mastery().ForUser(ctx, sess.UserID)
	if err != nil {
		return nil, "", fmt.Errorf("load mastery records: %w", err)
	}
	interest, err := s.st.Sessions().InterestByTopic(ctx, sess.UserID)
	if err != nil {
		return nil, "", fmt.Errorf("load interest: %w", err)
	}

	type scored struct {
		rec      store.MasteryRecord
		interest float64
	}
	var unlocked []scored
	for _, rec := range records {
		if rec.Unlocked {
			unlocked = append(unlocked, scored{rec: rec, interest: interest[rec.TopicID]})
		}
	}
	if len(unlocked) == 0 {
		return nil, "", ErrNoTopicsAvailable
	}

	sort.Slice(unlocked, func(i, j int) bool {
		if unlocked[i].interest != unlocked[j].interest {
			return unlocked[i].interest > unlocked[j].interest
		}
		if unlocked[i].rec.TotalAnswered != unlocked[j].rec.TotalAnswered {
			return unlocked[i].rec.TotalAnswered < unlocked[j].rec.TotalAnswered
		}
		return unlocked[i].rec.CreatedAt.Before(unlocked[j].rec.CreatedAt)
	})

	best := unlocked[0].rec
	topic, err := s.st.Topics().Get(ctx, best.TopicID)
	if err != nil {
		return nil, "", fmt.Errorf("load topic: %w", err)
	}
	return topic, mastery.Level(best.Level), nil
}
