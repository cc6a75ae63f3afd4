package types

// ThreadID identifies the execution context that owns a region. The engine
// uses goroutine IDs; zero is never a valid identity.
type ThreadID int64

// Stats is a point-in-time snapshot of engine state.
type Stats struct {
	PageSize     int   `json:"page_size"`
	Regions      int   `json:"regions"`
	LivePages    int64 `json:"live_pages"`
	COWSplits    int64 `json:"cow_splits"`
	Terminations int64 `json:"terminations"`
	Initialized  bool  `json:"initialized"`
}
