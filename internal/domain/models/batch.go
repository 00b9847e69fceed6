package models

// Batch is a half-open range [Start, End) of trade indices handed to one worker.
type Batch struct {
	Index int
	Start int64
	End   int64
}

// Len returns the number of trade indices covered by the batch.
func (b Batch) Len() int64 {
	return b.End - b.Start
}
