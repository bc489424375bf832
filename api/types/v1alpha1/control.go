package v1alpha1

import "time"

// ControlMessageType defines types of control messages
type ControlMessageType string

const (
	// ControlMessageStateUpdate carries a new panel render state
	ControlMessageStateUpdate ControlMessageType = "STATE_UPDATE"
	// ControlMessageMediaStatus reports a media load result from a display
	ControlMessageMediaStatus ControlMessageType = "MEDIA_STATUS"
	// ControlMessageReload asks the display to reload its page
	ControlMessageReload ControlMessageType = "RELOAD"
	// ControlMessageError reports a problem with a message the display sent
	ControlMessageError ControlMessageType = "ERROR"
)

// ControlMessage represents a message sent over the panel WebSocket
type ControlMessage struct {
	// TypeMeta describes API version details
	TypeMeta `json:",inline"`
	// Type indicates the kind of control message
	Type ControlMessageType `json:"type"`
	// Timestamp indicates when message was created
	Timestamp time.Time `json:"timestamp"`
	// State is set for STATE_UPDATE messages
	State *PanelState `json:"state,omitempty"`
	// Media is set for MEDIA_STATUS messages
	Media *MediaStatus `json:"media,omitempty"`
	// Error contains error details if applicable
	Error *ControlError `json:"error,omitempty"`
}

// MediaStatus is a renderer's report of one media load attempt
type MediaStatus struct {
	// MediaRef identifies the media that was loaded
	MediaRef string `json:"mediaRef"`
	// Loaded is true on success and false on a load error
	Loaded bool `json:"loaded"`
	// Width and Height are the natural dimensions when known
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`
}

// ControlError represents control message errors
type ControlError struct {
	// Code provides error classification
	Code string `json:"code"`
	// Message provides error details
	Message string `json:"message"`
}

// NewStateUpdate wraps a panel state in a control message
func NewStateUpdate(state PanelState) ControlMessage {
	return ControlMessage{
		TypeMeta:  NewTypeMeta("ControlMessage"),
		Type:      ControlMessageStateUpdate,
		Timestamp: time.Now().UTC(),
		State:     &state,
	}
}
