package app

import (
	"errors"

	"gopherai-docchat/internal/rag"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrStoreWrite        = errors.New("store write failed")
	ErrTooLarge          = errors.New("file too large")

	ErrInvalidInput    = rag.ErrInvalidInput
	ErrRetrieval       = rag.ErrRetrieval
	ErrAnswerPipeline  = rag.ErrAnswerPipeline
	ErrMissingDocument = rag.ErrMissingDocument
)
