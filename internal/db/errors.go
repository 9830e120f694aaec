package db

import (
	"errors"
	"fmt"
)

// Sentinel errors for index lifecycle operations.
var (
	ErrIndexExists   = errors.New("index already exists")
	ErrIndexNotFound = errors.New("index not found")
)

// Op identifies the failed storage operation.
type Op string

// Storage operations.
const (
	OpCreateIndex Op = "create_index"
	OpDropIndex   Op = "drop_index"
	OpIndexInfo   Op = "index_info"
	OpHSet        Op = "hset"
	OpDel         Op = "del"
	OpSearch      Op = "search"
)

// Error wraps a backend failure with the operation that produced it.
type Error struct {
	Op  Op
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("db %s: %v", e.Op, e.Err) }

func (e *Error) Unwrap() error { return e.Err }
