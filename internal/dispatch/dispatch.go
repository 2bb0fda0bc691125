// Package dispatch forwards accepted uploads to the external lead-processing workflow.
package dispatch

import (
	"context"
	"errors"
)

// ErrDispatchFailed wraps every failure to hand a file to the workflow.
var ErrDispatchFailed = errors.New("lead file dispatch failed")

// File is one uploaded CSV ready for processing.
type File struct {
	LeadFileID  string `json:"leadFileId"`
	UserID      string `json:"userId"`
	Name        string `json:"fileName"`
	ContentType string `json:"contentType"`
	Content     []byte `json:"content"`
}

// Dispatcher delivers a file exactly once per call. Implementations never retry.
type Dispatcher interface {
	Dispatch(ctx context.Context, file File) error
}
