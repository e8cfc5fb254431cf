package nvmefile

import "errors"

// ErrSubmitQueueFull is the synchronous refusal returned by Read when
// the submission queue has no room. The caller sees it as a plain
// submission failure.
var ErrSubmitQueueFull = errors.New("nvmefile: submission queue full")

// ErrQueuePairFreed is returned for reads submitted to, or still
// queued in, a freed queue pair.
var ErrQueuePairFreed = errors.New("nvmefile: queue pair freed")
