package events

// EventData is the interface all typed event payloads implement.
// It ties a payload to its event type at compile time.
type EventData interface {
	EventType() EventType
}

// AllocationUpdatedData contains data for AllocationUpdated events
type AllocationUpdatedData struct {
	Classes int `json:"classes"`
	Items   int `json:"items"`
}

// EventType returns the event type for AllocationUpdatedData
func (d *AllocationUpdatedData) EventType() EventType {
	return AllocationUpdated
}

// SnapshotIngestedData contains data for SnapshotIngested events
type SnapshotIngestedData struct {
	SnapshotID      int64   `json:"snapshot_id"`
	TotalEvalAmount float64 `json:"total_eval_amount"`
}

// EventType returns the event type for SnapshotIngestedData
func (d *SnapshotIngestedData) EventType() EventType {
	return SnapshotIngested
}

// EvaluationCompletedData contains data for EvaluationCompleted events
type EvaluationCompletedData struct {
	RunID       string `json:"run_id"`
	WorstStatus string `json:"worst_status"`
	WorstClass  string `json:"worst_class"`
	OrderCount  int    `json:"order_count"`
}

// EventType returns the event type for EvaluationCompletedData
func (d *EvaluationCompletedData) EventType() EventType {
	return EvaluationCompleted
}

// DriftStatusChangedData contains data for DriftStatusChanged events.
// Emitted when the worst MP status moves between severity tiers.
type DriftStatusChangedData struct {
	Previous string `json:"previous"`
	Current  string `json:"current"`
}

// EventType returns the event type for DriftStatusChangedData
func (d *DriftStatusChangedData) EventType() EventType {
	return DriftStatusChanged
}

// SettingsChangedData contains data for SettingsChanged events
type SettingsChangedData struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

// EventType returns the event type for SettingsChangedData
func (d *SettingsChangedData) EventType() EventType {
	return SettingsChanged
}

// BackupCompletedData contains data for BackupCompleted events
type BackupCompletedData struct {
	Archive   string `json:"archive"`
	SizeBytes int64  `json:"size_bytes"`
}

// EventType returns the event type for BackupCompletedData
func (d *BackupCompletedData) EventType() EventType {
	return BackupCompleted
}

// ErrorData contains data for ErrorOccurred events
type ErrorData struct {
	Error   string                 `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// EventType returns the event type for ErrorData
func (d *ErrorData) EventType() EventType {
	return ErrorOccurred
}
