package event

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeProjectsUpdated     Type = "projects_updated"
	TypeProjectsFetchFailed Type = "projects_fetch_failed"
	TypeCacheCleared        Type = "cache_cleared"
)

// Channel groups event types for subscribers.
type Channel string

const (
	ChannelProjects Channel = "projects"
	ChannelCache    Channel = "cache"
)

var typeToChannel = map[Type]Channel{
	TypeProjectsUpdated:     ChannelProjects,
	TypeProjectsFetchFailed: ChannelProjects,
	TypeCacheCleared:        ChannelCache,
}

// ChannelFor returns the channel for a given event type.
func ChannelFor(t Type) Channel { return typeToChannel[t] }

// LocalOrigin identifies this process. Events published here carry it so a
// shared bus can tell them apart from events raised by peer instances.
var LocalOrigin = uuid.NewString()

// Event carries the query key and counts only, not the records.
// Subscribers read fresh state from the cache of the instance named by Origin;
// other instances must invalidate their own copy instead.
type Event struct {
	ID        uuid.UUID `json:"id"`
	Type      Type      `json:"type"`
	Origin    string    `json:"origin"`
	QueryKey  string    `json:"query_key,omitempty"`
	Count     int       `json:"count"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func New(eventType Type, queryKey string, count int) Event {
	return Event{
		ID:        uuid.New(),
		Type:      eventType,
		Origin:    LocalOrigin,
		QueryKey:  queryKey,
		Count:     count,
		Timestamp: time.Now().UTC(),
	}
}

func Failed(queryKey string, err error) Event {
	e := New(TypeProjectsFetchFailed, queryKey, 0)
	e.Error = err.Error()
	return e
}

// From reports whether e was raised by the instance identified by origin.
func (e Event) From(origin string) bool { return e.Origin == origin }
