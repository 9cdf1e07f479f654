package metrics

import "github.com/contre95/dropzone/src/features/watching"

// WatcherSummary is the outcome count breakdown of one watcher.
type WatcherSummary struct {
	Watcher  string                  `json:"watcher"`
	Total    int                     `json:"total"`
	Statuses map[watching.Status]int `json:"statuses"`
}

// Overview holds the in-memory counters since startup.
type Overview struct {
	Watchers []WatcherSummary `json:"watchers"`
	Total    int              `json:"total"`
}
