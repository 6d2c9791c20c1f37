package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/apoorv/socratic/internal/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Config{Driver: "sqlite", DSN: "file:" + uuid.NewString() + "?mode=memory&cache=shared"}, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedUserAndTopic(t *testing.T, s *Store) (uuid.UUID, uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	u := &User{Email: uuid.NewString() + "@example.com", Username: uuid.NewString()}
	require.NoError(t, s.Users().Create(ctx, u))
	topic := &Topic{Name: "Linear Algebra", DifficultyMin: 1, DifficultyMax: 10}
	require.NoError(t, s.Topics().Create(ctx, topic))
	return u.ID, topic.ID
}

func TestTopicCreateRejectsMissingParent(t *testing.T) {
	s := newTestStore(t)
	missing := uuid.New()
	err := s.Topics().Create(context.Background(), &Topic{Name: "Orphan", ParentID: &missing})
	require.Error(t, err)
}

func TestTopicTreeQueries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	root := &Topic{Name: "Mathematics"}
	require.NoError(t, s.Topics().Create(ctx, root))
	child := &Topic{Name: "Calculus", ParentID: &root.ID}
	require.NoError(t, s.Topics().Create(ctx, child))

	roots, err := s.Topics().Roots(ctx)
	require.NoError(t, err)
	require.Len(t, roots, 1)
	require.Equal(t, root.ID, roots[0].ID)

	kids, err := s.Topics().ChildrenOf(ctx, root.ID)
	require.NoError(t, err)
	require.Len(t, kids, 1)
	require.Equal(t, child.ID, kids[0].ID)
}

func TestTopicNameUniquePerParent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	root := &Topic{Name: "Mathematics"}
	require.NoError(t, s.Topics().Create(ctx, root))
	require.NoError(t, s.Topics().Create(ctx, &Topic{Name: "Calculus", ParentID: &root.ID}))

	err := s.Topics().Create(ctx, &Topic{Name: "Calculus", ParentID: &root.ID})
	require.Error(t, err)

	// The same name under a different parent is fine.
	other := &Topic{Name: "Physics"}
	require.NoError(t, s.Topics().Create(ctx, other))
	require.NoError(t, s.Topics().Create(ctx, &Topic{Name: "Calculus", ParentID: &other.ID}))
}

func TestMasteryGetOrCreateIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	userID, topicID := seedUserAndTopic(t, s)

	a, err := s.Mastery().GetOrCreate(ctx, userID, topicID, true)
	require.NoError(t, err)
	b, err := s.Mastery().GetOrCreate(ctx, userID, topicID, false)
	require.NoError(t, err)

	require.Equal(t, a.ID, b.ID)
	require.True(t, b.Unlocked)
	require.Equal(t, "novice", b.Level)
}

func TestMasteryUpdatePersistsCallbackChanges(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	userID, topicID := seedUserAndTopic(t, s)

	_, err := s.Mastery().GetOrCreate(ctx, userID, topicID, true)
	require.NoError(t, err)

	rec, err := s.Mastery().Update(ctx, userID, topicID, func(m *MasteryRecord) error {
		counts := m.LevelCounts.Data()
		if counts == nil {
			counts = map[string]int{}
		}
		counts["novice"] = 3
		m.LevelCounts = datatypes.NewJSONType(counts)
		m.TotalAnswered = 5
		m.TotalCorrect = 3
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, rec.LevelCounts.Data()["novice"])

	got, err := s.Mastery().Get(ctx, userID, topicID)
	require.NoError(t, err)
	require.Equal(t, 3, got.LevelCounts.Data()["novice"])
	require.Equal(t, 5, got.TotalAnswered)
}

func TestTryAcquireGenerationSingleWinner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	userID, topicID := seedUserAndTopic(t, s)

	_, err := s.Mastery().GetOrCreate(ctx, userID, topicID, true)
	require.NoError(t, err)

	first, err := s.Mastery().TryAcquireGeneration(ctx, userID, topicID)
	require.NoError(t, err)
	require.True(t, first)

	second, err := s.Mastery().TryAcquireGeneration(ctx, userID, topicID)
	require.NoError(t, err)
	require.False(t, second)

	require.NoError(t, s.Mastery().ReleaseGeneration(ctx, userID, topicID))
	again, err := s.Mastery().TryAcquireGeneration(ctx, userID, topicID)
	require.NoError(t, err)
	require.True(t, again)
}

func TestRecordActionRejectsDoubleSubmission(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	userID, topicID := seedUserAndTopic(t, s)

	sess := &QuizSession{UserID: userID, TopicID: &topicID}
	require.NoError(t, s.Sessions().Create(ctx, sess))

	served := &ServedQuestion{
		SessionID:     sess.ID,
		Sequence:      1,
		TopicID:       topicID,
		QuestionID:    "fallback:linear-algebra:1",
		Prompt:        "What is a vector?",
		Options:       datatypes.NewJSONType([]string{"a", "b", "c", "d"}),
		CorrectAnswer: "a",
		Source:        "fallback",
	}
	require.NoError(t, s.Sessions().AppendServed(ctx, served))

	correct := true
	require.NoError(t, s.Sessions().RecordAction(ctx, served.ID, "answer", "a", &correct, 0.15))

	err := s.Sessions().RecordAction(ctx, served.ID, "answer", "b", &correct, 0.15)
	require.ErrorIs(t, err, ErrAlreadyAnswered)

	got, err := s.Sessions().Get(ctx, sess.ID)
	require.NoError(t, err)
	require.Equal(t, 1, got.TotalQuestions)
	require.Equal(t, 1, got.TotalCorrect)
}

func TestServedIDsReturnServingOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	userID, topicID := seedUserAndTopic(t, s)

	sess := &QuizSession{UserID: userID, TopicID: &topicID}
	require.NoError(t, s.Sessions().Create(ctx, sess))

	for i := 1; i <= 3; i++ {
		q := &ServedQuestion{
			SessionID:     sess.ID,
			Sequence:      i,
			TopicID:       topicID,
			QuestionID:    uuid.NewString(),
			Prompt:        "q",
			Options:       datatypes.NewJSONType([]string{"a", "b", "c", "d"}),
			CorrectAnswer: "a",
			Source:        "llm",
		}
		require.NoError(t, s.Sessions().AppendServed(ctx, q))
	}

	ids, err := s.Sessions().ServedIDs(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, ids, 3)
}

func TestCommitExpansionIsAtomic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	userID, parentID := seedUserAndTopic(t, s)

	exp := Expansion{
		UserID:       userID,
		ParentID:     parentID,
		TriggerLevel: "competent",
		Topics: []Topic{
			{Name: "Eigenvalues"},
			{Name: "Matrix Decompositions"},
		},
	}
	require.NoError(t, s.CommitExpansion(ctx, exp))

	kids, err := s.Topics().ChildrenOf(ctx, parentID)
	require.NoError(t, err)
	require.Len(t, kids, 2)

	for _, k := range kids {
		rec, err := s.Mastery().Get(ctx, userID, k.ID)
		require.NoError(t, err)
		require.True(t, rec.Unlocked)
	}

	events, err := s.Unlocks().ForUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, events, 2)

	// Committing the same unlocks again must not duplicate events.
	require.NoError(t, s.UnlockExisting(ctx, userID, parentID, "competent", kids))
	events, err = s.Unlocks().ForUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, events, 2)
}

func TestSessionEndIsTerminal(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	userID, topicID := seedUserAndTopic(t, s)

	sess := &QuizSession{UserID: userID, TopicID: &topicID}
	require.NoError(t, s.Sessions().Create(ctx, sess))

	require.NoError(t, s.Sessions().End(ctx, sess.ID, time.Now().UTC()))
	err := s.Sessions().End(ctx, sess.ID, time.Now().UTC())
	require.ErrorIs(t, err, ErrNotFound)
}
