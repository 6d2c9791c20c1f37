package quiz

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/apoorv/socratic/internal/mastery"
)

// TopicNode is one node of the user's view of the topic tree.
type TopicNode struct {
	ID          uuid.UUID    `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Unlocked    bool         `json:"unlocked"`
	Level       string       `json:"level,omitempty"`
	Generating  bool         `json:"generating,omitempty"`
	Children    []*TopicNode `json:"children,omitempty"`
}

// TopicStatus pairs a topic with the user's mastery on it.
type TopicStatus struct {
	TopicID       uuid.UUID `json:"topic_id"`
	TopicName     string    `json:"topic_name"`
	Level         string    `json:"level"`
	Description   string    `json:"level_description"`
	CountAtLevel  int       `json:"count_at_level"`
	Threshold     int       `json:"threshold"`
	TotalAnswered int       `json:"total_answered"`
	TotalCorrect  int       `json:"total_correct"`
	Unlocked      bool      `json:"unlocked"`
	Generating    bool      `json:"generating"`
}

// TopicTree returns the full tree annotated with the user's unlock
// state and levels. Locked topics are visible but flagged, so clients
// can render what lies ahead.
func (s *Service) TopicTree(ctx context.Context, userID uuid.UUID) ([]*TopicNode, error) {
	// Let a running expansion land first so the tree never shows a
	// level advance without the topics it unlocked.
	if err := s.generator.Tracker().Wait(ctx, userID); err != nil {
		return nil, err
	}

	topics, err := s.cache.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load topic tree: %w", err)
	}
	statuses, err := s.ledger.StatusesFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	nodes := make(map[uuid.UUID]*TopicNode, len(topics))
	for i := range topics {
		t := &topics[i]
		node := &TopicNode{
			ID:          t.ID,
			Name:        t.Name,
			Description: t.Description,
			Generating:  s.generator.Tracker().InFlight(userID, t.ID),
		}
		if st, ok := statuses[t.ID]; ok {
			node.Unlocked = st.Unlocked
			node.Level = string(st.Level)
		}
		nodes[t.ID] = node
	}

	var roots []*TopicNode
	for i := range topics {
		t := &topics[i]
		if t.ParentID == nil {
			roots = append(roots, nodes[t.ID])
			continue
		}
		if parent, ok := nodes[*t.ParentID]; ok {
			parent.Children = append(parent.Children, nodes[t.ID])
		}
	}
	return roots, nil
}

// MasteryOverview lists the user's mastery across every topic they
// have a record on, ordered by topic name.
func (s *Service) MasteryOverview(ctx context.Context, userID uuid.UUID) ([]TopicStatus, error) {
	statuses, err := s.ledger.StatusesFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	topics, err := s.cache.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load topics: %w", err)
	}
	names := make(map[uuid.UUID]string, len(topics))
	for _, t := range topics {
		names[t.ID] = t.Name
	}

	out := make([]TopicStatus, 0, len(statuses))
	for topicID, st := range statuses {
		out = append(out, TopicStatus{
			TopicID:       topicID,
			TopicName:     names[topicID],
			Level:         string(st.Level),
			Description:   st.Description,
			CountAtLevel:  st.CountAtLevel,
			Threshold:     st.Threshold,
			TotalAnswered: st.TotalAnswered,
			TotalCorrect:  st.TotalCorrect,
			Unlocked:      st.Unlocked,
			Generating:    s.generator.Tracker().InFlight(userID, topicID),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TopicName < out[j].TopicName })
	return out, nil
}

// MasteryStatus returns the user's mastery on one topic.
func (s *Service) MasteryStatus(ctx context.Context, userID, topicID uuid.UUID) (*TopicStatus, error) {
	topic, err := s.st.Topics().Get(ctx, topicID)
	if err != nil {
		return nil, ErrTopicNotFound
	}
	st, err := s.ledger.StatusFor(ctx, userID, topicID)
	if err != nil {
		return nil, err
	}
	return &TopicStatus{
		TopicID:       topicID,
		TopicName:     topic.Name,
		Level:         string(st.Level),
		Description:   st.Description,
		CountAtLevel:  st.CountAtLevel,
		Threshold:     st.Threshold,
		TotalAnswered: st.TotalAnswered,
		TotalCorrect:  st.TotalCorrect,
		Unlocked:      st.Unlocked,
		Generating:    s.generator.Tracker().InFlight(userID, topicID),
	}, nil
}

// Levels exposes the mastery ladder with thresholds and descriptions
// for client display.
func Levels() []map[string]any {
	levels := mastery.Levels()
	out := make([]map[string]any, len(levels))
	for i, l := range levels {
		out[i] = map[string]any{
			"name":        string(l),
			"threshold":   l.Threshold(),
			"description": l.Description(),
		}
	}
	return out
}
