package lifecycle

// Default values for policy fields.
const (
	// DefaultDeleteBatchSize is the number of index names joined into one
	// delete request.
	DefaultDeleteBatchSize = 20

	// DefaultMaxConcurrency bounds the number of backend calls in flight
	// during a fan-out.
	DefaultMaxConcurrency = 8
)

// Policy describes which indices are managed and how they age.
// It is built once from configuration and handed to NewManager.
type Policy struct {
	// Prefix selects managed indices: an index is managed iff its name
	// starts with Prefix.
	Prefix string

	// RetentionDays is the number of calendar days, today included, whose
	// indices are kept.
	RetentionDays int

	// DeleteBatchSize is the number of indices per delete request.
	// Zero or negative means DefaultDeleteBatchSize.
	DeleteBatchSize int

	// MaxConcurrency bounds concurrent backend calls during fan-out.
	// Zero or negative means DefaultMaxConcurrency.
	MaxConcurrency int

	// AliasWindows maps each managed alias to its window in days.
	AliasWindows map[string]int

	// Replicas is the optional replica policy. Nil disables replica changes.
	Replicas *ReplicaPolicy

	// ExcludeIndices lists name fragments of reserved indices (for example
	// ".kibana") that never take part in alias computation.
	ExcludeIndices []string
}

// ReplicaPolicy sets Value replicas on managed indices older than the most
// recent Days dates.
type ReplicaPolicy struct {
	Days  int
	Value int
}

func (p *Policy) batchSize() int {
	if p.DeleteBatchSize <= 0 {
		return DefaultDeleteBatchSize
	}
	return p.DeleteBatchSize
}

func (p *Policy) concurrency() int {
	if p.MaxConcurrency <= 0 {
		return DefaultMaxConcurrency
	}
	return p.MaxConcurrency
}
