package partition

// ChangeKind identifies the operation that produced a Change.
type ChangeKind string

// Change kinds.
const (
	ChangeRegistered ChangeKind = "registered"
	ChangeLoaded     ChangeKind = "loaded"
	ChangeReset      ChangeKind = "reset"
	ChangeRenamed    ChangeKind = "renamed"
	ChangeRemoved    ChangeKind = "removed"
	ChangeMerged     ChangeKind = "merged"
	ChangeSplit      ChangeKind = "split"
	ChangeModel      ChangeKind = "model"
	ChangeCompacted  ChangeKind = "compacted"
)

// Change describes one committed mutation of a partition set.
// Names lists the partitions involved: for renames the old then the new
// name, for merges and splits the inputs followed by the outputs.
type Change struct {
	Kind  ChangeKind
	Names []string
}

// Listener is notified after each committed change.
// Listeners are called synchronously and must not mutate the partition set.
type Listener interface {
	PartitionsChanged(Change)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(Change)

// PartitionsChanged calls f(c).
func (f ListenerFunc) PartitionsChanged(c Change) {
	f(c)
}
