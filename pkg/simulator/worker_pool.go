package simulator

import (
	"runtime"
	"sync"
)

// SourceTask is one pipeline run submitted to the worker pool
type SourceTask struct {
	TaskID   int // index into the tick's source list
	Pipeline *Pipeline
}

// SourceTaskResult is the outcome of a SourceTask
type SourceTaskResult struct {
	TaskID int
	Result *SourceResult
	Error  error
}

// WorkerPool runs source pipelines in parallel. Every pipeline owns its
// histogram and random state, so workers share nothing but the scene.
type WorkerPool struct {
	taskQueue   chan SourceTask
	resultQueue chan SourceTaskResult
	numWorkers  int
	wg          sync.WaitGroup
	startOnce   sync.Once
	stopOnce    sync.Once
}

// NewWorkerPool creates a pool with numWorkers workers (0 = CPU count)
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &WorkerPool{
		taskQueue:   make(chan SourceTask, numWorkers*4),
		resultQueue: make(chan SourceTaskResult, numWorkers*4),
		numWorkers:  numWorkers,
	}
}

// Start launches the workers. Calling it again has no effect.
func (wp *WorkerPool) Start() {
	wp.startOnce.Do(func() {
		for i := 0; i < wp.numWorkers; i++ {
			wp.wg.Add(1)
			go wp.run()
		}
	})
}

// Stop lets queued tasks finish, then shuts the workers down
func (wp *WorkerPool) Stop() {
	wp.stopOnce.Do(func() {
		close(wp.taskQueue)
		wp.wg.Wait()
		close(wp.resultQueue)
	})
}

// SubmitTask queues a task, blocking while the queue is full
func (wp *WorkerPool) SubmitTask(task SourceTask) {
	wp.taskQueue <- task
}

// GetResult retrieves a completed task
func (wp *WorkerPool) GetResult() (SourceTaskResult, bool) {
	result, ok := <-wp.resultQueue
	return result, ok
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}

func (wp *WorkerPool) run() {
	defer wp.wg.Done()
	for task := range wp.taskQueue {
		result, err := task.Pipeline.Run()
		wp.resultQueue <- SourceTaskResult{TaskID: task.TaskID, Result: result, Error: err}
	}
}
