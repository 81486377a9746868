package domain

// GroupID identifies a group chat and, at the same time, its live-delivery room.
type GroupID string
