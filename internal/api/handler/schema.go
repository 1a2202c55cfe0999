package handler

import "time"

type commandResponse struct {
	Channel string `json:"channel"`
	Method  string `json:"method"`
	Result  bool   `json:"result"`
}

type statusResponse struct {
	Tracking  bool       `json:"tracking"`
	State     string     `json:"state"`
	SessionID string     `json:"session_id,omitempty"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	LastError string     `json:"last_error,omitempty"`
	Listening bool       `json:"listening"`
	Channel   string     `json:"channel"`
}

// fixRequest is a fix posted by a device. Coordinates are pointers so that
// 0 stays a valid value while absence is rejected. A missing timestamp is
// stamped on arrival.
type fixRequest struct {
	Latitude  *float64 `json:"latitude"  validate:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
	Accuracy  float64  `json:"accuracy"  validate:"gte=0"`
	Timestamp int64    `json:"timestamp" validate:"omitempty,gt=0"`
}

type acceptedResponse struct {
	Message string `json:"message"`
}
