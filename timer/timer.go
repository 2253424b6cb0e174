// Package timer runs delayed and periodic jobs, such as the idle client
// sweep and the metrics gauge refresh.
package timer

import (
	"container/heap"
	"sync"
	"time"
)

type TimerTask struct {
	Id       int64
	Execute  time.Time
	Interval time.Duration
	Callback func()
	index    int
}

// taskHeap orders tasks by due time.
type taskHeap []*TimerTask

func (h taskHeap) Len() int           { return len(h) }
func (h taskHeap) Less(i, j int) bool { return h[i].Execute.Before(h[j].Execute) }

func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *taskHeap) Push(x any) {
	task := x.(*TimerTask)
	task.index = len(*h)
	*h = append(*h, task)
}

func (h *taskHeap) Pop() any {
	old := *h
	last := old[len(old)-1]
	old[len(old)-1] = nil
	last.index = -1
	*h = old[:len(old)-1]
	return last
}

// TimerManager sleeps until the earliest task is due. Adding or removing a
// task wakes the loop so it can re-arm for the new earliest deadline.
type TimerManager struct {
	tasks    taskHeap
	byId     map[int64]*TimerTask
	mutex    sync.Mutex
	nextId   int64
	wake     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewTimerManager() *TimerManager {
	m := &TimerManager{
		byId:   make(map[int64]*TimerTask),
		nextId: 1,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	m.wg.Add(1)
	go m.run()
	return m
}

// AddTimer schedules callback after delay, then every interval when
// interval is positive. Callbacks run on their own goroutine.
func (m *TimerManager) AddTimer(delay time.Duration, interval time.Duration, callback func()) int64 {
	m.mutex.Lock()
	task := &TimerTask{
		Id:       m.nextId,
		Execute:  time.Now().Add(delay),
		Interval: interval,
		Callback: callback,
	}
	m.nextId++
	heap.Push(&m.tasks, task)
	m.byId[task.Id] = task
	m.mutex.Unlock()

	m.poke()
	return task.Id
}

// RemoveTimer cancels a task. Unknown ids are ignored.
func (m *TimerManager) RemoveTimer(timerId int64) {
	m.mutex.Lock()
	task, ok := m.byId[timerId]
	if ok {
		heap.Remove(&m.tasks, task.index)
		delete(m.byId, timerId)
	}
	m.mutex.Unlock()

	if ok {
		m.poke()
	}
}

// Len is the number of pending tasks.
func (m *TimerManager) Len() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.tasks.Len()
}

// Stop halts the loop. Callbacks already started keep running.
func (m *TimerManager) Stop() {
	m.stopOnce.Do(func() { close(m.done) })
	m.wg.Wait()
}

func (m *TimerManager) poke() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

func (m *TimerManager) run() {
	defer m.wg.Done()
	sleep := time.NewTimer(time.Hour)
	defer sleep.Stop()

	for {
		for _, fn := range m.due(time.Now()) {
			go fn()
		}

		sleep.Reset(m.untilNext(time.Now()))
		select {
		case <-m.done:
			return
		case <-m.wake:
		case <-sleep.C:
		}
	}
}

// untilNext is the wait before the earliest task; an hour when idle.
func (m *TimerManager) untilNext(now time.Time) time.Duration {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.tasks.Len() == 0 {
		return time.Hour
	}
	return max(m.tasks[0].Execute.Sub(now), 0)
}

// due pops every task whose time has come and reschedules periodic ones.
func (m *TimerManager) due(now time.Time) []func() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	var ready []func()
	for m.tasks.Len() > 0 && !m.tasks[0].Execute.After(now) {
		task := heap.Pop(&m.tasks).(*TimerTask)
		ready = append(ready, task.Callback)

		if task.Interval > 0 {
			task.Execute = now.Add(task.Interval)
			heap.Push(&m.tasks, task)
		} else {
			delete(m.byId, task.Id)
		}
	}
	return ready
}
