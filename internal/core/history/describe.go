package history

import "fmt"

// Describe renders a one-line label for a. It panics on a payload type
// outside the closed set.
func Describe(a Action) string {
	switch p := a.Payload.(type) {
	case CreateTopic:
		return labeled("Create topic", p.Topic.Name)
	case DeleteTopic:
		return labeled("Delete topic", p.Topic.Name)
	case EditTopic:
		return labeled("Edit topic", p.Updated.Name)
	case ReorderTopics:
		return "Reorder topics"
	case CreateTask:
		return labeled("Create task", p.Task.Title)
	case DeleteTask:
		return labeled("Delete task", p.Task.Title)
	case EditTask:
		return labeled("Edit task", p.Updated.Title)
	case ToggleTask:
		if p.Updated.Completed {
			return "Complete task"
		}
		return "Uncomplete task"
	case CreateMilestone:
		return labeled("Create milestone", p.Milestone.Title)
	case DeleteMilestone:
		return labeled("Delete milestone", p.Milestone.Title)
	case EditMilestone:
		return labeled("Edit milestone", p.Updated.Title)
	case UpdateBio:
		return "Update topic bio"
	default:
		panic(fmt.Sprintf("history: unknown action payload %T", a.Payload))
	}
}

func labeled(verb, name string) string {
	return verb + ` "` + name + `"`
}
