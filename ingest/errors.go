package ingest

import "fmt"

// The pipeline surfaces exactly one error class per failing step:
//
//	AcquisitionError — bad/missing input, archive failure, URL fetch failure
//	ExtractionError  — text extraction from a malformed document, or the
//	                   structured-extraction service failing
//	DetectionError   — inconsistency detection failure; callers never see it
//	                   because the pipeline downgrades it to an empty result
//	PersistenceError — database unreachable during any write
//
// Any of these aborts the remaining steps. When the failure happens after
// the statement row exists, the row is left with a nil processed_at so the
// UI shows it as unprocessed.

type AcquisitionError struct {
	Reason string
	Err    error
}

func (e *AcquisitionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("acquisition failed: %s: %v", e.Reason, e.Err)
	}
	return "acquisition failed: " + e.Reason
}

func (e *AcquisitionError) Unwrap() error { return e.Err }

type ExtractionError struct {
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction failed: %s: %v", e.Reason, e.Err)
	}
	return "extraction failed: " + e.Reason
}

func (e *ExtractionError) Unwrap() error { return e.Err }

type DetectionError struct {
	Err error
}

func (e *DetectionError) Error() string {
	return fmt.Sprintf("inconsistency detection failed: %v", e.Err)
}

func (e *DetectionError) Unwrap() error { return e.Err }

type PersistenceError struct {
	Step string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failed (%s): %v", e.Step, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
