package dto

// RegisterDeviceRequest registers a client device for authenticated sync
type RegisterDeviceRequest struct {
	DeviceID   string `json:"device_id" validate:"required,min=8,max=128"`
	DeviceName string `json:"device_name" validate:"omitempty,max=100"`
}

// RegisterDeviceResponse carries the issued device token
type RegisterDeviceResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"` // seconds
}
