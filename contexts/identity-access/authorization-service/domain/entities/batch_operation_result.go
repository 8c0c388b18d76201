package entities

// BatchOperationResult is the per-operation outcome inside a bulk request.
type BatchOperationResult struct {
	OperationID   string `json:"operation_id"`
	OperationType string `json:"operation_type"`
	UserID        string `json:"user_id"`
	ResourceType  string `json:"resource_type"`
	ResourceName  string `json:"resource_name"`
	Success       bool   `json:"success"`
	ErrorText     string `json:"error_text,omitempty"`
}
