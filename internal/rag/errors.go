package rag

import "errors"

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrRetrieval       = errors.New("retrieval failed")
	ErrAnswerPipeline  = errors.New("answer pipeline failed")
	ErrMissingDocument = errors.New("session document not found")
)
