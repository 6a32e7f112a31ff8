package notify

import "encoding/json"

// Task is the queued form of one notification, consumed by the async
// worker.
type Task struct {
	Kind Kind `json:"kind"`
	Data Data `json:"data"`
}

// Encode marshals the task for the queue.
func (t Task) Encode() ([]byte, error) {
	return json.Marshal(t)
}

// DecodeTask unmarshals a queued task body.
func DecodeTask(body []byte) (Task, error) {
	var t Task
	err := json.Unmarshal(body, &t)
	return t, err
}
