package repository

import "errors"

var (
	// ErrRoomOccupied is returned when an insert loses to an existing
	// reservation occupying an overlapping date range for the same room.
	ErrRoomOccupied = errors.New("room already reserved for an overlapping date range")

	// ErrVersionConflict is returned when a status update finds the row
	// changed since it was read. Callers re-read and decide again.
	ErrVersionConflict = errors.New("reservation modified concurrently")
)
