package domain

// Kind tags the two task variants
type Kind string

const (
	// KindOverall is the project-level task: it has a planned start time
	// and a set of direct sub-tasks.
	KindOverall Kind = "overall"
	// KindSub is a unit of work that carries a duration and prerequisites.
	KindSub Kind = "sub"
)

// ChangeKind describes a model mutation delivered to observers
type ChangeKind string

const (
	ChangeTaskAdded         ChangeKind = "task_added"
	ChangeTaskUpdated       ChangeKind = "task_updated"
	ChangeSubTaskAdded      ChangeKind = "subtask_added"
	ChangeSubTaskRemoved    ChangeKind = "subtask_removed"
	ChangeDependencyAdded   ChangeKind = "dependency_added"
	ChangeDependencyRemoved ChangeKind = "dependency_removed"
)
