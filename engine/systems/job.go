package systems

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/terra/engine/core"
)

// JobTask is a unit of work run on one of the job system workers.
type JobTask struct {
	Name        string
	InputParams interface{}
	// OnStart does the work. Its result is handed to OnComplete.
	OnStart    func(params interface{}) (interface{}, error)
	OnComplete func(result interface{})
	OnFailure  func(err error)
}

type JobSystem struct {
	numWorkers int
	jobQueue   chan JobTask
	wg         sync.WaitGroup

	mutex  sync.RWMutex
	closed bool
}

var ErrNoWorkers = fmt.Errorf("attempting to create worker pool with less than 1 worker")
var ErrNegativeChannelSize = fmt.Errorf("attempting to create worker pool with a negative channel size")

func NewJobSystem(numWorkers int, channelSize int) (*JobSystem, error) {
	if numWorkers <= 0 {
		return nil, ErrNoWorkers
	}
	if channelSize < 0 {
		return nil, ErrNegativeChannelSize
	}

	js := &JobSystem{
		numWorkers: numWorkers,
		jobQueue:   make(chan JobTask, channelSize),
	}

	js.start()

	return js, nil
}

func (js *JobSystem) start() {
	for i := 0; i < js.numWorkers; i++ {
		js.wg.Add(1)
		go func() {
			defer js.wg.Done()
			for job := range js.jobQueue {
				runJob(job)
			}
		}()
	}
}

// runJob runs a job on the calling goroutine.
func runJob(job JobTask) {
	result, err := job.OnStart(job.InputParams)
	if err != nil {
		core.LogError("job %s failed: %s", job.Name, err)
		if job.OnFailure != nil {
			job.OnFailure(err)
		}
		return
	}
	if job.OnComplete != nil {
		job.OnComplete(result)
	}
}

/**
 * @brief Shuts the job system down. Queued jobs are drained first.
 */
func (js *JobSystem) Shutdown() error {
	js.mutex.Lock()
	if js.closed {
		js.mutex.Unlock()
		return nil
	}
	js.closed = true
	close(js.jobQueue)
	js.mutex.Unlock()

	js.wg.Wait()
	return nil
}

/**
 * @brief Submits the provided job to be queued for execution. Blocks while
 * the queue is full. Returns false once the system is shut down.
 * @param jt The description of the job to be executed.
 */
func (js *JobSystem) Submit(jt JobTask) bool {
	js.mutex.RLock()
	defer js.mutex.RUnlock()
	if js.closed {
		return false
	}
	js.jobQueue <- jt
	return true
}

// TrySubmit queues the job only if there is room, and never blocks.
func (js *JobSystem) TrySubmit(jt JobTask) bool {
	js.mutex.RLock()
	defer js.mutex.RUnlock()
	if js.closed {
		return false
	}
	select {
	case js.jobQueue <- jt:
		return true
	default:
		return false
	}
}
