package worker

import "time"

// Pool defaults
const (
	DefaultWorkers    = 2
	DefaultQueueSize  = 16
	DefaultJobTimeout = 5 * time.Minute
)

// LogMsgWorkerJobFailed is logged when a worker fails to process a job
const LogMsgWorkerJobFailed = "Worker job failed"

// Test pool configuration values used in pool_test.go
const (
	TestWorkerCount      = 2
	TestQueueSize        = 10
	TestExpectedJobCount = 2
)
