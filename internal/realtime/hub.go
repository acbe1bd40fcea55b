// Package realtime pushes full-state snapshots of workspaces, projects
// and tasks to subscribed clients whenever a service-layer mutation
// touches them. Delivery is fire-and-forget: a slow or dead subscriber
// never fails or delays the triggering request.
package realtime

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Message is the wire shape of one push: a full serialized snapshot of
// the addressed resource. Subscribers replace local state with Data
// wholesale; they must not treat pushes as deltas.
type Message struct {
	Type string `json:"type"`
	UUID string `json:"uuid"`
	Data any    `json:"data"`
}

// Push message types per addressable resource.
const (
	TypeWorkspaceChange = "workspace.change"
	TypeProjectChange   = "project.change"
	TypeTaskChange      = "task.change"
)

// Group names addressing one resource's subscription channel.
func WorkspaceGroup(uuid string) string { return fmt.Sprintf("workspace-%s", uuid) }
func ProjectGroup(uuid string) string  { return fmt.Sprintf("project-%s", uuid) }
func TaskGroup(uuid string) string     { return fmt.Sprintf("task-%s", uuid) }

// GroupPublisher is what the broadcaster fans out through: the bare Hub
// in a single process, or the redis Bridge when several processes share
// subscribers.
type GroupPublisher interface {
	Publish(group string, msg Message)
	CloseGroup(group string)
}

const subscriberBuffer = 16

// Subscription is one client's membership in a group. Receive from C;
// the channel closes when the group is closed (subscribed resource
// deleted) or Cancel is called.
type Subscription struct {
	C      <-chan Message
	hub    *Hub
	group  string
	send   chan Message
	cancel sync.Once
}

// Cancel detaches the subscription from its group.
func (s *Subscription) Cancel() {
	s.cancel.Do(func() {
		s.hub.remove(s)
	})
}

// Hub routes messages to in-process subscribers, grouped by resource
// channel name.
type Hub struct {
	mu     sync.RWMutex
	groups map[string]map[*Subscription]struct{}
	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		groups: make(map[string]map[*Subscription]struct{}),
		logger: logger,
	}
}

// Subscribe attaches a new subscriber to a group.
func (h *Hub) Subscribe(group string) *Subscription {
	sub := &Subscription{
		hub:   h,
		group: group,
		send:  make(chan Message, subscriberBuffer),
	}
	sub.C = sub.send

	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.groups[group]
	if !ok {
		subs = make(map[*Subscription]struct{})
		h.groups[group] = subs
	}
	subs[sub] = struct{}{}
	return sub
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.groups[sub.group]
	if !ok {
		return
	}
	if _, member := subs[sub]; !member {
		return
	}
	delete(subs, sub)
	close(sub.send)
	if len(subs) == 0 {
		delete(h.groups, sub.group)
	}
}

// Publish enqueues msg to every subscriber of the group without
// blocking. Subscribers whose buffers are full miss the message; they
// recover on the next snapshot since every push carries full state.
func (h *Hub) Publish(group string, msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.groups[group] {
		select {
		case sub.send <- msg:
		default:
			h.logger.Warn("dropping push for slow subscriber",
				zap.String("group", group),
				zap.String("type", msg.Type),
			)
		}
	}
}

// CloseGroup disconnects every subscriber of the group. Used when the
// subscribed resource is deleted and no further snapshots will arrive.
func (h *Hub) CloseGroup(group string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.groups[group]
	if !ok {
		return
	}
	for sub := range subs {
		close(sub.send)
	}
	delete(h.groups, group)
}
