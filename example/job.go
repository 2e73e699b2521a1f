package main

// Job is a unit of work.
type Job struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}
