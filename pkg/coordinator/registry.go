package coordinator

import (
	"sync"
	"time"

	"ideascope/pkg/agent"
)

// ActiveExecution is an observability snapshot of one in-flight request.
type ActiveExecution struct {
	RequestID  string                  `json:"requestId"`
	StartTime  time.Time               `json:"startTime"`
	TaskStatus map[string]agent.Status `json:"taskStatus"`
}

// registry tracks in-flight requests. It exists purely for observability;
// correctness never depends on it.
type registry struct {
	mu      sync.RWMutex
	entries map[string]*ActiveExecution
}

func newRegistry() *registry {
	return &registry{entries: make(map[string]*ActiveExecution)}
}

func (r *registry) add(requestID string, taskIDs []string) {
	statuses := make(map[string]agent.Status, len(taskIDs))
	for _, id := range taskIDs {
		statuses[id] = agent.StatusIdle
	}
	r.mu.Lock()
	r.entries[requestID] = &ActiveExecution{
		RequestID:  requestID,
		StartTime:  time.Now().UTC(),
		TaskStatus: statuses,
	}
	r.mu.Unlock()
}

func (r *registry) setStatus(requestID, taskID string, status agent.Status) {
	r.mu.Lock()
	if entry, ok := r.entries[requestID]; ok {
		entry.TaskStatus[taskID] = status
	}
	r.mu.Unlock()
}

func (r *registry) remove(requestID string) {
	r.mu.Lock()
	delete(r.entries, requestID)
	r.mu.Unlock()
}

// list returns deep copies so callers never see concurrent mutation.
func (r *registry) list() []ActiveExecution {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ActiveExecution, 0, len(r.entries))
	for _, entry := range r.entries {
		statuses := make(map[string]agent.Status, len(entry.TaskStatus))
		for id, s := range entry.TaskStatus {
			statuses[id] = s
		}
		out = append(out, ActiveExecution{
			RequestID:  entry.RequestID,
			StartTime:  entry.StartTime,
			TaskStatus: statuses,
		})
	}
	return out
}
