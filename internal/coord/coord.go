// Package coord manages the multi-agent work registry under
// .rotd/coordination. Agents claim unclaimed registry tasks in priority
// order, release them when done, and leave a trail in the coordination log.
package coord

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/rotd/rotd/internal/storage"
)

// Status is a registry task's lifecycle state.
type Status string

const (
	StatusUnclaimed Status = "unclaimed"
	StatusClaimed   Status = "claimed"
	StatusBlocked   Status = "blocked"
	StatusReview    Status = "review"
	StatusDone      Status = "done"
)

// Priority orders claimable work. Urgent outranks high outranks medium
// outranks low.
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) rank() int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	}
	return 4
}

// Task is one entry in the active work registry. Registry tasks are
// coordination units and are distinct from the scored tasks in tasks.jsonl,
// though they usually share ids.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Status      Status     `json:"status"`
	Priority    Priority   `json:"priority"`
	ClaimedBy   *string    `json:"claimed_by"`
	ClaimedAt   *time.Time `json:"claimed_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

// Registry is the on-disk shape of active_work_registry.json.
type Registry struct {
	Tasks []Task `json:"tasks"`
}

// AgentID returns this agent's identity: ROTD_AGENT_ID when set, otherwise a
// fresh UUID per invocation.
func AgentID() string {
	if id := os.Getenv("ROTD_AGENT_ID"); id != "" {
		return id
	}
	return uuid.NewString()
}

// Manager performs registry operations on behalf of one agent.
type Manager struct {
	store *storage.Store
	agent string
	now   func() time.Time
}

// NewManager returns a manager acting as the given agent id.
func NewManager(store *storage.Store, agent string) *Manager {
	return &Manager{store: store, agent: agent, now: time.Now}
}

// Agent returns the agent id this manager acts as.
func (m *Manager) Agent() string { return m.agent }

// Claim takes the highest-priority unclaimed task in the registry, marks it
// claimed by this agent, and returns it. Returns (nil, nil) when no task is
// eligible or no registry exists.
func (m *Manager) Claim() (*Task, error) {
	var registry Registry
	ok, err := m.store.ReadJSON(m.store.RegistryPath(), &registry)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	order := make([]int, len(registry.Tasks))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return registry.Tasks[order[a]].Priority.rank() < registry.Tasks[order[b]].Priority.rank()
	})

	for _, i := range order {
		task := &registry.Tasks[i]
		if task.Status != StatusUnclaimed {
			continue
		}
		now := m.now().UTC()
		task.Status = StatusClaimed
		task.ClaimedBy = &m.agent
		task.ClaimedAt = &now

		if err := m.store.WriteJSON(m.store.RegistryPath(), &registry); err != nil {
			return nil, err
		}
		claimed := *task
		if err := m.log(fmt.Sprintf("claimed task %s", claimed.ID)); err != nil {
			return nil, err
		}
		return &claimed, nil
	}
	return nil, nil
}

// Release marks a task claimed by this agent as done. Releasing a task the
// agent does not hold is an error.
func (m *Manager) Release(taskID string) error {
	var registry Registry
	ok, err := m.store.ReadJSON(m.store.RegistryPath(), &registry)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no work registry at %s", m.store.RegistryPath())
	}

	for i := range registry.Tasks {
		task := &registry.Tasks[i]
		if task.ID != taskID {
			continue
		}
		if task.ClaimedBy == nil || *task.ClaimedBy != m.agent {
			return fmt.Errorf("task %s is not claimed by agent %s", taskID, m.agent)
		}
		now := m.now().UTC()
		task.Status = StatusDone
		task.CompletedAt = &now

		if err := m.store.WriteJSON(m.store.RegistryPath(), &registry); err != nil {
			return err
		}
		return m.log(fmt.Sprintf("completed task %s", taskID))
	}
	return fmt.Errorf("task %s not found in work registry", taskID)
}

// List returns every registry task in file order. A project without a
// registry yields an empty slice.
func (m *Manager) List() ([]Task, error) {
	var registry Registry
	ok, err := m.store.ReadJSON(m.store.RegistryPath(), &registry)
	if err != nil || !ok {
		return nil, err
	}
	return registry.Tasks, nil
}

func (m *Manager) log(message string) error {
	line := fmt.Sprintf("[%s] %s ▶ %s",
		m.now().UTC().Format(time.RFC3339), m.agent, message)
	return m.store.AppendCoordinationLine(line)
}
