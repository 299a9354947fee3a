package network

import (
	"github.com/hochfrequenz/critpath/internal/domain"
	"github.com/hochfrequenz/critpath/internal/timeline"
)

// EventID indexes an event in its Network
type EventID int

// ActivityID indexes an activity (arc) in its Network
type ActivityID int

// NoEvent marks an unset start or end
const NoEvent EventID = -1

// Event is a node of the activity-on-arc network: the moment at which its
// incoming activities have all completed and its outgoing ones may begin.
type Event struct {
	ID  EventID
	In  []ActivityID
	Out []ActivityID
}

// Activity is a directed arc from Tail to Head. Real activities carry the
// task they stand for; dummies carry domain.NoTask and a zero duration.
type Activity struct {
	ID       ActivityID
	Tail     EventID
	Head     EventID
	Task     domain.TaskID
	Name     string
	Duration timeline.Duration
	Dummy    bool
}

// Stats summarises a network's size
type Stats struct {
	Events     int
	Activities int
	Dummies    int
}
