package board

import (
	"slices"
)

// Board is the in-memory domain state: topics in display order, tasks and
// milestones in insertion order.
// PRINCIPLES:
// - SRP: holds state and applies single mutations, knows nothing of history
// - KISS: slices and linear scans; a board holds a single user's data
// Board is not safe for concurrent use; callers serialise access.
type Board struct {
	topics     []Topic
	tasks      []Task
	milestones []Milestone
}

// New creates a board seeded with the given entities.
func New(topics []Topic, tasks []Task, milestones []Milestone) *Board {
	return &Board{
		topics:     slices.Clone(topics),
		tasks:      slices.Clone(tasks),
		milestones: slices.Clone(milestones),
	}
}

// Clone returns an independent copy of the board.
func (b *Board) Clone() *Board {
	return New(b.topics, b.tasks, b.milestones)
}

// Topics returns the topics in display order.
func (b *Board) Topics() []Topic { return slices.Clone(b.topics) }

// Tasks returns every live task.
func (b *Board) Tasks() []Task { return slices.Clone(b.tasks) }

// Milestones returns every milestone.
func (b *Board) Milestones() []Milestone { return slices.Clone(b.milestones) }

// Topic looks up a topic by ID.
func (b *Board) Topic(id string) (Topic, bool) {
	if i := b.topicIndex(id); i >= 0 {
		return b.topics[i], true
	}
	return Topic{}, false
}

// Task looks up a task by ID.
func (b *Board) Task(id string) (Task, bool) {
	if i := b.taskIndex(id); i >= 0 {
		return b.tasks[i], true
	}
	return Task{}, false
}

// Milestone looks up a milestone by ID.
func (b *Board) Milestone(id string) (Milestone, bool) {
	if i := b.milestoneIndex(id); i >= 0 {
		return b.milestones[i], true
	}
	return Milestone{}, false
}

// TasksForTopic returns the tasks that belong to topicID.
func (b *Board) TasksForTopic(topicID string) []Task {
	var out []Task
	for _, t := range b.tasks {
		if t.TopicID == topicID {
			out = append(out, t)
		}
	}
	return out
}

// MilestonesForTopic returns the milestones that belong to topicID.
func (b *Board) MilestonesForTopic(topicID string) []Milestone {
	var out []Milestone
	for _, m := range b.milestones {
		if m.TopicID == topicID {
			out = append(out, m)
		}
	}
	return out
}

// MilestonesIn returns the milestones occupying a calendar slot.
func (b *Board) MilestonesIn(topicID string, kind MilestoneKind, month, week int) []Milestone {
	var out []Milestone
	for _, m := range b.milestones {
		if m.InSlot(topicID, kind, month, week) {
			out = append(out, m)
		}
	}
	return out
}

// PendingTasks returns the incomplete tasks.
func (b *Board) PendingTasks() []Task {
	return b.filterTasks(func(t Task) bool { return !t.Completed })
}

// CompletedTasks returns the completed tasks.
func (b *Board) CompletedTasks() []Task {
	return b.filterTasks(func(t Task) bool { return t.Completed })
}

// InsertTopic appends a topic to the end of the display order.
func (b *Board) InsertTopic(t Topic) error {
	if b.topicIndex(t.ID) >= 0 {
		return ErrDuplicateTopic
	}
	b.topics = append(b.topics, t)
	return nil
}

// RemoveTopic removes a topic together with its tasks and milestones.
func (b *Board) RemoveTopic(id string) error {
	i := b.topicIndex(id)
	if i < 0 {
		return ErrTopicNotFound
	}
	b.topics = slices.Delete(b.topics, i, i+1)
	b.tasks = slices.DeleteFunc(b.tasks, func(t Task) bool { return t.TopicID == id })
	b.milestones = slices.DeleteFunc(b.milestones, func(m Milestone) bool { return m.TopicID == id })
	return nil
}

// ReplaceTopic overwrites the topic with the same ID.
func (b *Board) ReplaceTopic(t Topic) error {
	i := b.topicIndex(t.ID)
	if i < 0 {
		return ErrTopicNotFound
	}
	b.topics[i] = t
	return nil
}

// SetTopicOrder rearranges topics to follow ids. Unknown ids are skipped;
// topics missing from ids keep their relative order after the listed ones.
func (b *Board) SetTopicOrder(ids []string) {
	ordered := make([]Topic, 0, len(b.topics))
	placed := make(map[string]bool, len(ids))
	for _, id := range ids {
		if i := b.topicIndex(id); i >= 0 && !placed[id] {
			ordered = append(ordered, b.topics[i])
			placed[id] = true
		}
	}
	for _, t := range b.topics {
		if !placed[t.ID] {
			ordered = append(ordered, t)
		}
	}
	b.topics = ordered
}

// SetTopicBio replaces a topic's bio.
func (b *Board) SetTopicBio(topicID, bio string) error {
	i := b.topicIndex(topicID)
	if i < 0 {
		return ErrTopicNotFound
	}
	b.topics[i].Bio = bio
	return nil
}

// AdjustCompletedCount adds delta to a topic's completed-task count,
// clamping at zero.
func (b *Board) AdjustCompletedCount(topicID string, delta int) error {
	i := b.topicIndex(topicID)
	if i < 0 {
		return ErrTopicNotFound
	}
	b.topics[i].CompletedTasks = max(0, b.topics[i].CompletedTasks+delta)
	return nil
}

// InsertTask appends a task.
func (b *Board) InsertTask(t Task) error {
	if b.taskIndex(t.ID) >= 0 {
		return ErrDuplicateTask
	}
	b.tasks = append(b.tasks, t)
	return nil
}

// RemoveTask removes a task by ID.
func (b *Board) RemoveTask(id string) error {
	i := b.taskIndex(id)
	if i < 0 {
		return ErrTaskNotFound
	}
	b.tasks = slices.Delete(b.tasks, i, i+1)
	return nil
}

// ReplaceTask overwrites the task with the same ID.
func (b *Board) ReplaceTask(t Task) error {
	i := b.taskIndex(t.ID)
	if i < 0 {
		return ErrTaskNotFound
	}
	b.tasks[i] = t
	return nil
}

// InsertMilestone appends a milestone.
func (b *Board) InsertMilestone(m Milestone) error {
	if b.milestoneIndex(m.ID) >= 0 {
		return ErrDuplicateMilestone
	}
	b.milestones = append(b.milestones, m)
	return nil
}

// RemoveMilestone removes a milestone by ID.
func (b *Board) RemoveMilestone(id string) error {
	i := b.milestoneIndex(id)
	if i < 0 {
		return ErrMilestoneNotFound
	}
	b.milestones = slices.Delete(b.milestones, i, i+1)
	return nil
}

// ReplaceMilestone overwrites the milestone with the same ID.
func (b *Board) ReplaceMilestone(m Milestone) error {
	i := b.milestoneIndex(m.ID)
	if i < 0 {
		return ErrMilestoneNotFound
	}
	b.milestones[i] = m
	return nil
}

// Reorder moves the dragged topic into the target's index, shifting the
// rest. It reports false when either ID is unknown.
func Reorder(topics []Topic, draggedID, targetID string) ([]Topic, bool) {
	from := slices.IndexFunc(topics, func(t Topic) bool { return t.ID == draggedID })
	to := slices.IndexFunc(topics, func(t Topic) bool { return t.ID == targetID })
	if from < 0 || to < 0 {
		return nil, false
	}
	out := slices.Clone(topics)
	dragged := out[from]
	out = slices.Delete(out, from, from+1)
	out = slices.Insert(out, to, dragged)
	return out, true
}

// TopicIDs lists the IDs of topics in order.
func TopicIDs(topics []Topic) []string {
	ids := make([]string, len(topics))
	for i, t := range topics {
		ids[i] = t.ID
	}
	return ids
}

func (b *Board) topicIndex(id string) int {
	return slices.IndexFunc(b.topics, func(t Topic) bool { return t.ID == id })
}

func (b *Board) taskIndex(id string) int {
	return slices.IndexFunc(b.tasks, func(t Task) bool { return t.ID == id })
}

func (b *Board) milestoneIndex(id string) int {
	return slices.IndexFunc(b.milestones, func(m Milestone) bool { return m.ID == id })
}

func (b *Board) filterTasks(keep func(Task) bool) []Task {
	var out []Task
	for _, t := range b.tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}
