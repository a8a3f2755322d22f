package dto

// CreateTaskRequest carries data to create a new task via the REST surface.
// The server assigns the identifier and both timestamps.
type CreateTaskRequest struct {
	Text          string `json:"text" validate:"required,max=500"`
	Description   string `json:"description" validate:"max=2000"`
	Completed     bool   `json:"completed"`
	Important     bool   `json:"important"`
	Tag           string `json:"tag" validate:"max=50"`
	DueAt         *int64 `json:"due_at,omitempty"`
	Recurrence    string `json:"recurrence" validate:"omitempty,oneof=none daily weekly monthly"`
	RecurrenceAlt bool   `json:"recurrence_alt"`
}

// UpdateTaskRequest carries a partial task update; nil fields are left unchanged
type UpdateTaskRequest struct {
	Text          *string `json:"text,omitempty" validate:"omitempty,min=1,max=500"`
	Description   *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	Completed     *bool   `json:"completed,omitempty"`
	Important     *bool   `json:"important,omitempty"`
	Tag           *string `json:"tag,omitempty" validate:"omitempty,max=50"`
	DueAt         *int64  `json:"due_at,omitempty"`
	Recurrence    *string `json:"recurrence,omitempty" validate:"omitempty,oneof=none daily weekly monthly"`
	RecurrenceAlt *bool   `json:"recurrence_alt,omitempty"`
}

// ListTasksRequest filters for listing tasks
type ListTasksRequest struct {
	Tag       *string `json:"tag,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
	Important *bool   `json:"important,omitempty"`
}

// TaskResponse returns a task including server-tracked timestamps
type TaskResponse struct {
	ID            string `json:"id"`
	Text          string `json:"text"`
	Description   string `json:"description"`
	Completed     bool   `json:"completed"`
	Important     bool   `json:"important"`
	Tag           string `json:"tag"`
	DueAt         *int64 `json:"due_at"`
	Recurrence    string `json:"recurrence"`
	RecurrenceAlt bool   `json:"recurrence_alt"`
	CreatedAt     int64  `json:"created_at"`
	UpdatedAt     int64  `json:"updated_at"`
	DeletedAt     *int64 `json:"deleted_at"`
}
