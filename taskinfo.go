package runqy

import "github.com/Publikey/runqy-go/internal/jsonx"

// Task lifecycle states reported by the server. The set is open: the server
// may emit values not listed here and the client passes them through as-is.
const (
	StatePending   = "pending"
	StateActive    = "active"
	StateCompleted = "completed"
	StateFailed    = "failed"
)

// TaskInfo is the client's normalized view of a task: its identity, queue,
// lifecycle state, result and original payload. Instances are plain values;
// the client keeps no task state between calls.
type TaskInfo struct {
	TaskID  string
	Queue   string
	State   string
	Result  any    // structured result once the server reports completion
	LastErr string // failure message reported by the server, if any
	Payload any    // the input submitted at enqueue time
}

// taskInfoFromEnqueue builds the TaskInfo for a freshly created task. The
// creation response nests a lowercase "info" object; missing fields fall back
// to the empty id, the queue that was asked for, and the pending state. The
// payload is the caller's original value, not the server's echo.
func taskInfoFromEnqueue(response map[string]any, queue string, payload any) TaskInfo {
	info := asMap(response["info"])

	taskID, _ := pickString(info, "id")
	state, ok := pickString(info, "state")
	if !ok {
		state = StatePending
	}
	taskQueue, ok := pickString(info, "queue")
	if !ok {
		taskQueue = queue
	}

	return TaskInfo{
		TaskID:  taskID,
		Queue:   taskQueue,
		State:   state,
		Payload: payload,
	}
}

// taskInfoFromLookup builds the TaskInfo for a task fetched by id. The server
// emits either capitalized or lowercase keys depending on code path, for the
// containing object and for every field, so each value resolves through an
// ordered synonym list with the capitalized spelling preferred. Result and
// payload strings holding embedded JSON are decoded opportunistically.
func taskInfoFromLookup(response map[string]any, taskID string) TaskInfo {
	info := asMap(pick(response, "Info", "info"))

	id, ok := pickString(info, "ID", "id")
	if !ok {
		id = taskID
	}
	queue, _ := pickString(info, "Queue", "queue")
	state, _ := pickString(info, "State", "state")
	lastErr, _ := pickString(info, "LastErr", "last_err")

	return TaskInfo{
		TaskID:  id,
		Queue:   queue,
		State:   state,
		Result:  decodeEmbedded(pick(info, "Result", "result")),
		LastErr: lastErr,
		Payload: decodeEmbedded(pick(info, "Payload", "payload")),
	}
}

// pick returns the value for the first key present in m, in argument order.
func pick(m map[string]any, keys ...string) any {
	for _, key := range keys {
		if value, ok := m[key]; ok {
			return value
		}
	}
	return nil
}

// pickString resolves the first key whose value is a string. Keys holding
// non-string values are skipped rather than coerced.
func pickString(m map[string]any, keys ...string) (string, bool) {
	for _, key := range keys {
		if value, ok := m[key]; ok {
			if s, ok := value.(string); ok {
				return s, true
			}
		}
	}
	return "", false
}

// asMap narrows a decoded JSON value to an object, treating anything else as
// an empty one so a malformed wrapper degrades to fallback values instead of
// failing the call.
func asMap(value any) map[string]any {
	if m, ok := value.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// decodeEmbedded attempts to parse a non-empty string value as JSON. A string
// that does not decode is returned unchanged: the server sometimes stores
// plain text in result/payload fields, and that is a valid value, not a
// protocol violation.
func decodeEmbedded(value any) any {
	s, ok := value.(string)
	if !ok || s == "" {
		return value
	}
	var decoded any
	if err := jsonx.Unmarshal([]byte(s), &decoded); err != nil {
		return s
	}
	return decoded
}
