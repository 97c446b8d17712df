package history

import "github.com/taskflow/taskflow/internal/core/board"

// Payload is the typed forward/reverse data of an action. The set of
// implementations is closed; each maps to exactly one Kind.
type Payload interface {
	Kind() Kind
	payload()
}

// CreateTopic: undo removes Topic.ID, redo re-inserts Topic.
type CreateTopic struct {
	Topic board.Topic `json:"topic"`
}

// DeleteTopic: undo re-inserts the topic with its tasks and milestones,
// redo removes the topic and cascades.
type DeleteTopic struct {
	TopicID    string            `json:"topic_id"`
	Topic      board.Topic       `json:"topic"`
	Tasks      []board.Task      `json:"tasks,omitempty"`
	Milestones []board.Milestone `json:"milestones,omitempty"`
}

// EditTopic swaps between the prior and updated topic.
type EditTopic struct {
	Updated board.Topic `json:"updated"`
	Prior   board.Topic `json:"prior"`
}

// ReorderTopics holds the topic IDs in their new and prior display order.
type ReorderTopics struct {
	Order      []string `json:"order"`
	PriorOrder []string `json:"prior_order"`
}

// CreateTask: undo removes Task.ID, redo re-inserts Task.
type CreateTask struct {
	Task board.Task `json:"task"`
}

// DeleteTask: undo re-inserts Task, redo removes TaskID.
type DeleteTask struct {
	TaskID string     `json:"task_id"`
	Task   board.Task `json:"task"`
}

// EditTask swaps between the prior and updated task.
type EditTask struct {
	Updated board.Task `json:"updated"`
	Prior   board.Task `json:"prior"`
}

// ToggleTask swaps completion state. Applying either side also moves the
// owning topic's completed count by one.
type ToggleTask struct {
	Updated board.Task `json:"updated"`
	Prior   board.Task `json:"prior"`
}

// CreateMilestone: undo removes Milestone.ID, redo re-inserts Milestone.
type CreateMilestone struct {
	Milestone board.Milestone `json:"milestone"`
}

// DeleteMilestone: undo re-inserts Milestone, redo removes MilestoneID.
type DeleteMilestone struct {
	MilestoneID string          `json:"milestone_id"`
	Milestone   board.Milestone `json:"milestone"`
}

// EditMilestone swaps between the prior and updated milestone.
type EditMilestone struct {
	Updated board.Milestone `json:"updated"`
	Prior   board.Milestone `json:"prior"`
}

// UpdateBio swaps a topic's bio text.
type UpdateBio struct {
	TopicID  string `json:"topic_id"`
	Bio      string `json:"bio"`
	PriorBio string `json:"prior_bio"`
}

func (CreateTopic) Kind() Kind     { return KindCreateTopic }
func (DeleteTopic) Kind() Kind     { return KindDeleteTopic }
func (EditTopic) Kind() Kind       { return KindEditTopic }
func (ReorderTopics) Kind() Kind   { return KindReorderTopics }
func (CreateTask) Kind() Kind      { return KindCreateTask }
func (DeleteTask) Kind() Kind      { return KindDeleteTask }
func (EditTask) Kind() Kind        { return KindEditTask }
func (ToggleTask) Kind() Kind      { return KindToggleTask }
func (CreateMilestone) Kind() Kind { return KindCreateMilestone }
func (DeleteMilestone) Kind() Kind { return KindDeleteMilestone }
func (EditMilestone) Kind() Kind   { return KindEditMilestone }
func (UpdateBio) Kind() Kind       { return KindUpdateBio }

func (CreateTopic) payload()     {}
func (DeleteTopic) payload()     {}
func (EditTopic) payload()       {}
func (ReorderTopics) payload()   {}
func (CreateTask) payload()      {}
func (DeleteTask) payload()      {}
func (EditTask) payload()        {}
func (ToggleTask) payload()      {}
func (CreateMilestone) payload() {}
func (DeleteMilestone) payload() {}
func (EditMilestone) payload()   {}
func (UpdateBio) payload()       {}
