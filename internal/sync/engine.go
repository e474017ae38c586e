// Package sync reconciles the device-local store with the central
// server. Local changes are pushed first, then the server's view is
// pulled down; rows still awaiting push are never overwritten by the
// pull.
package sync

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"gorm.io/datatypes"

	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/api"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/apperr"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/models"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/store"
)

// ErrSyncInProgress is returned when a manual sync is requested while
// another run holds the engine.
var ErrSyncInProgress = errors.New("sync already in progress")

const pullPageSize = 100

// Result summarizes one complete sync run.
type Result struct {
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Pushed     int       `json:"pushed"`
	Pulled     int       `json:"pulled"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
}

// Status is a snapshot of the engine for UIs and diagnostics.
type Status struct {
	Running    bool    `json:"running"`
	InProgress bool    `json:"inProgress"`
	Last       *Result `json:"last,omitempty"`
}

// Engine drives periodic and on-demand sync runs against one server.
type Engine struct {
	store    store.Store
	client   *api.Client
	interval time.Duration

	mu         sync.Mutex
	running    bool
	inProgress bool
	last       *Result
	stop       chan struct{}
	done       chan struct{}
}

func NewEngine(st store.Store, client *api.Client, interval time.Duration) *Engine {
	return &Engine{
		store:    st,
		client:   client,
		interval: interval,
	}
}

// Start launches the background loop. Safe to call once; a second call
// while running is a no-op.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.stop = make(chan struct{})
	e.done = make(chan struct{})
	e.mu.Unlock()

	go e.loop(ctx)
	log.Printf("🔄 Sync engine started (every %s)", e.interval)
}

// Stop halts the background loop and waits for an in-flight run to
// finish.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	close(e.stop)
	done := e.done
	e.mu.Unlock()

	<-done
	log.Println("🔄 Sync engine stopped")
}

func (e *Engine) loop(ctx context.Context) {
	defer close(e.done)

	// First cycle runs right away; a freshly started device should not
	// sit on its queue for a full interval.
	if _, err := e.SyncNow(ctx); err != nil && !errors.Is(err, ErrSyncInProgress) {
		log.Printf("⚠️ Background sync failed: %v", err)
	}

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := e.SyncNow(ctx); err != nil && !errors.Is(err, ErrSyncInProgress) {
				log.Printf("⚠️ Background sync failed: %v", err)
			}
		case <-e.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// SyncNow runs one full push-then-pull cycle. Only one run may be
// active at a time; concurrent callers get ErrSyncInProgress.
func (e *Engine) SyncNow(ctx context.Context) (*Result, error) {
	e.mu.Lock()
	if e.inProgress {
		e.mu.Unlock()
		return nil, ErrSyncInProgress
	}
	e.inProgress = true
	e.mu.Unlock()

	result := &Result{StartedAt: time.Now().UTC(), Success: true}
	err := e.syncAll(ctx, result)
	result.FinishedAt = time.Now().UTC()
	if err != nil {
		result.Success = false
		result.Error = err.Error()
	}

	e.saveLog(ctx, result)

	e.mu.Lock()
	e.inProgress = false
	e.last = result
	e.mu.Unlock()

	if err != nil {
		return result, err
	}
	return result, nil
}

// Status reports the engine state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Status{Running: e.running, InProgress: e.inProgress, Last: e.last}
}

func (e *Engine) syncAll(ctx context.Context, result *Result) error {
	token, err := e.store.GetSetting(ctx, models.SettingToken)
	if apperr.IsKind(err, apperr.KindNotFound) || (err == nil && token == "") {
		return apperr.New(apperr.KindUnauthorized, "device is not paired with a server")
	}
	if err != nil {
		return err
	}

	if err := e.syncUp(ctx, result); err != nil {
		return err
	}
	return e.syncDown(ctx, result)
}

func (e *Engine) saveLog(ctx context.Context, result *Result) {
	detail, err := json.Marshal(result)
	if err != nil {
		log.Printf("⚠️ Failed to encode sync log: %v", err)
		return
	}
	entry := &models.SyncLog{
		StartedAt:  result.StartedAt,
		FinishedAt: result.FinishedAt,
		Pushed:     result.Pushed,
		Pulled:     result.Pulled,
		Skipped:    result.Skipped,
		Success:    result.Success,
		Detail:     datatypes.JSON(detail),
	}
	if err := e.store.SaveSyncLog(ctx, entry); err != nil {
		log.Printf("⚠️ Failed to save sync log: %v", err)
	}
}
