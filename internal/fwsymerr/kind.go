package fwsymerr

import (
	"errors"
	"net/http"
)

// Kind classifies an error by the stage of the pipeline it came from.
type Kind string

const (
	// KindCatalog is a failed or malformed release catalog response.
	KindCatalog Kind = "catalog"
	// KindExistence is a failed artifact store lookup other than "not found".
	KindExistence Kind = "existence"
	// KindAcquisition is a failed archive download.
	KindAcquisition Kind = "acquisition"
	// KindExtraction is a missing manifest field, unreadable archive
	// or missing shared cache directory.
	KindExtraction Kind = "extraction"
	// KindTool is a non-zero exit from an external executable.
	KindTool Kind = "tool"
	// KindCleanup is a failure to release a resource such as a mounted volume.
	KindCleanup Kind = "cleanup"
	// KindPublish is a failed upload to the artifact store.
	KindPublish Kind = "publish"
	// KindInvalid is invalid input.
	KindInvalid Kind = "invalid"
)

// New wraps err with kind. It returns nil if err is nil.
func New(kind Kind, err error) error {
	if err == nil {
		return nil
	}

	return &kindError{
		err:  err,
		kind: kind,
	}
}

type kindError struct {
	err  error
	kind Kind
}

func (e *kindError) Error() string {
	if e.err == nil {
		return ""
	}

	return e.err.Error()
}

func (e *kindError) Unwrap() error {
	return e.err
}

func (e *kindError) ExitCode() int {
	if e.kind == KindInvalid {
		return 2
	}

	return 1
}

// KindOf returns the outermost Kind in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	kerr := &kindError{}
	if errors.As(err, &kerr) {
		return kerr.kind
	}

	return ""
}

// Is reports whether any error in err's chain is of kind.
func Is(err error, kind Kind) bool {
	for _, e := range flatten(err) {
		if KindOf(e) == kind {
			return true
		}
	}

	return false
}

func flatten(err error) []error {
	if err == nil {
		return nil
	}

	errs := []error{err}

	switch u := err.(type) {
	case interface{ Unwrap() []error }:
		for _, e := range u.Unwrap() {
			errs = append(errs, flatten(e)...)
		}
	case interface{ Unwrap() error }:
		errs = append(errs, flatten(u.Unwrap())...)
	}

	return errs
}

// HTTPStatusCode maps err to the status code to respond to an HTTP request with.
func HTTPStatusCode(err error) int {
	if KindOf(err) == KindInvalid {
		return http.StatusBadRequest
	}

	return http.StatusInternalServerError
}
