package history

// Kind identifies one of the closed set of reversible edits.
type Kind string

const (
	KindCreateTopic     Kind = "create_topic"
	KindDeleteTopic     Kind = "delete_topic"
	KindEditTopic       Kind = "edit_topic"
	KindReorderTopics   Kind = "reorder_topics"
	KindCreateTask      Kind = "create_task"
	KindDeleteTask      Kind = "delete_task"
	KindEditTask        Kind = "edit_task"
	KindToggleTask      Kind = "toggle_task"
	KindCreateMilestone Kind = "create_milestone"
	KindDeleteMilestone Kind = "delete_milestone"
	KindEditMilestone   Kind = "edit_milestone"
	KindUpdateBio       Kind = "update_bio"
)

// Kinds lists every kind in declaration order.
func Kinds() []Kind {
	return []Kind{
		KindCreateTopic, KindDeleteTopic, KindEditTopic, KindReorderTopics,
		KindCreateTask, KindDeleteTask, KindEditTask, KindToggleTask,
		KindCreateMilestone, KindDeleteMilestone, KindEditMilestone,
		KindUpdateBio,
	}
}

// IsCreation reports whether the kind carries no reverse payload.
func (k Kind) IsCreation() bool {
	return k == KindCreateTopic || k == KindCreateTask || k == KindCreateMilestone
}

func (k Kind) String() string { return string(k) }
