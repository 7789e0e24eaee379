package domain

import "errors"

var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrInvalidCredentials = errors.New("invalid room password")
	ErrInvalidArgument    = errors.New("invalid argument")
)
