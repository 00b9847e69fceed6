package pipeline

import (
	"fmt"

	"github.com/guttosm/varpulse/internal/domain/models"
)

// Partition splits [0, total) into consecutive batches of batchSize indices.
// The last batch may be shorter. A zero total yields no batches.
func Partition(total, batchSize int64) ([]models.Batch, error) {
	if total < 0 {
		return nil, fmt.Errorf("%w: negative total %d", ErrInvalidPartition, total)
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("%w: batch size must be positive, got %d", ErrInvalidPartition, batchSize)
	}

	n := total / batchSize
	if total%batchSize != 0 {
		n++
	}
	batches := make([]models.Batch, 0, n)
	for i := int64(0); i < n; i++ {
		start := i * batchSize
		batches = append(batches, models.Batch{
			Index: int(i),
			Start: start,
			End:   start + min(batchSize, total-start),
		})
	}
	return batches, nil
}
