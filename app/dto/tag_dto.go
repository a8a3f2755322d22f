package dto

// CreateTagRequest carries data to create a new tag. Clients that created
// the tag while offline may assert their own timestamps; when omitted the
// server stamps both.
type CreateTagRequest struct {
	Name      string `json:"name" validate:"required,min=1,max=50"`
	Color     string `json:"color" validate:"required,hexcolor"`
	CreatedAt *int64 `json:"created_at,omitempty" validate:"omitempty,gt=0"`
	UpdatedAt *int64 `json:"updated_at,omitempty" validate:"omitempty,gt=0"`
}

// UpdateTagRequest carries a partial tag update; nil fields are left unchanged
type UpdateTagRequest struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,min=1,max=50"`
	Color *string `json:"color,omitempty" validate:"omitempty,hexcolor"`
}

// TagResponse returns a tag including server-tracked timestamps
type TagResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	IsDefault bool   `json:"is_default"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
	DeletedAt *int64 `json:"deleted_at"`
}
