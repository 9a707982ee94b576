package capture

import (
	"errors"
	"fmt"
	"time"

	"geocapture/internal/model"
)

// Stage is a step of a capture tick.
type Stage string

const (
	StageCheckReady Stage = "check_ready"
	StageDraw       Stage = "draw"
	StageEncode     Stage = "encode"
	StageUpload     Stage = "upload"
	StageResolveURL Stage = "resolve_url"
	StageLocate     Stage = "locate"
	StageRecord     Stage = "record"
)

// Status is how a tick ended.
type Status string

const (
	StatusRecorded        Status = "recorded"
	StatusSkippedNotReady Status = "skipped_not_ready"
	StatusSkippedBusy     Status = "skipped_busy"
	StatusEncodeAborted   Status = "encode_aborted"
	StatusUploadFailed    Status = "upload_failed"
	StatusURLFailed       Status = "url_failed"
	StatusLocateFailed    Status = "locate_failed"
	StatusRecordFailed    Status = "record_failed"
)

// Skipped reports whether the tick ended before any capture work.
func (s Status) Skipped() bool {
	return s == StatusSkippedNotReady || s == StatusSkippedBusy
}

// Outcome is the result of exactly one tick.
type Outcome struct {
	Tick     int64
	Stage    Stage
	Status   Status
	Filename string
	URL      string
	Record   *model.CaptureRecord
	Err      error
	Started  time.Time
	Duration time.Duration
}

// Stored reports whether the tick's asset reached the object store.
func (o Outcome) Stored() bool {
	switch o.Status {
	case StatusURLFailed, StatusLocateFailed, StatusRecordFailed, StatusRecorded:
		return true
	}
	return false
}

// StageError is a failure at one stage of a tick.
type StageError struct {
	Stage  Stage
	Status Status
	Err    error
}

func (e *StageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Stage, e.Status)
	}
	return fmt.Sprintf("%s: %s: %v", e.Stage, e.Status, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageErr(stage Stage, status Status, err error) error {
	return &StageError{Stage: stage, Status: status, Err: err}
}

// apply copies a StageError into the outcome. Other errors are unexpected and
// leave the outcome untouched apart from Err.
func (o *Outcome) apply(err error) {
	var se *StageError
	if errors.As(err, &se) {
		o.Stage = se.Stage
		o.Status = se.Status
		o.Err = se.Err
		return
	}
	o.Err = err
}
