package dto

// TaskSyncRecord is the wire shape of a task inside a sync envelope. All
// fields travel in both directions; created_at/updated_at/deleted_at are
// client-asserted Unix millisecond timestamps.
type TaskSyncRecord struct {
	ID            string `json:"id" validate:"required,uuid4"`
	Text          string `json:"text" validate:"required,max=500"`
	Description   string `json:"description" validate:"max=2000"`
	Completed     bool   `json:"completed"`
	Important     bool   `json:"important"`
	Tag           string `json:"tag" validate:"max=50"`
	DueAt         *int64 `json:"due_at,omitempty"`
	Recurrence    string `json:"recurrence" validate:"omitempty,oneof=none daily weekly monthly"`
	RecurrenceAlt bool   `json:"recurrence_alt"`
	CreatedAt     int64  `json:"created_at" validate:"required,gt=0"`
	UpdatedAt     int64  `json:"updated_at" validate:"required,gt=0,gtefield=CreatedAt"`
	DeletedAt     *int64 `json:"deleted_at,omitempty"`
}

// TagSyncRecord is the wire shape of a tag inside a sync envelope
type TagSyncRecord struct {
	ID        string `json:"id" validate:"required,uuid4"`
	Name      string `json:"name" validate:"required,max=50"`
	Color     string `json:"color" validate:"required,hexcolor"`
	IsDefault bool   `json:"is_default"`
	CreatedAt int64  `json:"created_at" validate:"required,gt=0"`
	UpdatedAt int64  `json:"updated_at" validate:"required,gt=0,gtefield=CreatedAt"`
	DeletedAt *int64 `json:"deleted_at,omitempty"`
}

// TaskSyncRequest is the sync envelope a client submits for tasks.
// Cursor is the server_time of the client's last successful sync; absent
// means a first-time client, so the full dataset comes back.
type TaskSyncRequest struct {
	Records []TaskSyncRecord `json:"records" validate:"dive"`
	Cursor  *int64           `json:"cursor,omitempty"`
}

// TaskSyncResponse is the sync envelope returned for tasks. The caller must
// persist ServerTime as its next cursor.
type TaskSyncResponse struct {
	Records        []TaskSyncRecord `json:"records"`
	ServerTime     int64            `json:"server_time"`
	HardDeletedIDs []string         `json:"hard_deleted_ids"`
}

// TagSyncRequest is the sync envelope a client submits for tags
type TagSyncRequest struct {
	Records []TagSyncRecord `json:"records" validate:"dive"`
	Cursor  *int64          `json:"cursor,omitempty"`
}

// TagSyncResponse is the sync envelope returned for tags
type TagSyncResponse struct {
	Records        []TagSyncRecord `json:"records"`
	ServerTime     int64           `json:"server_time"`
	HardDeletedIDs []string        `json:"hard_deleted_ids"`
}
