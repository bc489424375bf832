// Package v1alpha1 contains API types for the Wrale Panels system.
package v1alpha1

import (
	"time"
)

// APIVersion is the version string stamped on every object in this package
const APIVersion = "v1alpha1"

// TypeMeta describes an individual object's type and API version
type TypeMeta struct {
	// Kind is a string value representing the type of this object
	Kind string `json:"kind,omitempty"`
	// APIVersion defines the versioned schema of this object
	APIVersion string `json:"apiVersion,omitempty"`
}

// NewTypeMeta returns TypeMeta for kind at the current API version
func NewTypeMeta(kind string) TypeMeta {
	return TypeMeta{Kind: kind, APIVersion: APIVersion}
}

// ObjectMeta is metadata that all served resources carry
type ObjectMeta struct {
	// ID uniquely identifies this object
	ID string `json:"id"`
	// Name is a human-readable identifier for this object
	Name string `json:"name,omitempty"`
	// UpdatedAt indicates when this object was last modified
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// Error is the JSON body returned for failed API requests
type Error struct {
	// Code is a machine-readable error classification
	Code string `json:"code"`
	// Message is a human-readable description
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}
