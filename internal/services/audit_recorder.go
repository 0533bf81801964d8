package services

import (
	"context"
	"log"
	"sync"
	"time"

	"byggmart/internal/models"
	"byggmart/internal/repositories"
)

// AuditRecorder emits audit entries without ever blocking or failing the
// mutation that produced them. Entries that cannot be written immediately go
// to a bounded in-memory retry queue drained by a background job, so delivery
// is at least once while the store is reachable.
type AuditRecorder interface {
	Record(entry *models.AuditLog)
	Flush(ctx context.Context) error
	Pending() int
}

const (
	auditWriteTimeout  = 5 * time.Second
	auditRetryCapacity = 1000
)

type auditRecorder struct {
	repo repositories.AuditLogsRepository

	mu      sync.Mutex
	pending []*models.AuditLog
}

func NewAuditRecorder(repo repositories.AuditLogsRepository) AuditRecorder {
	return &auditRecorder{repo: repo}
}

// Record hands the entry off to a goroutine and returns immediately. A
// failed insert queues the entry for the background flush; when the queue is
// full the oldest entry is dropped and logged.
func (a *auditRecorder) Record(entry *models.AuditLog) {
	if entry == nil {
		return
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("ERROR: audit record panicked: %v", r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), auditWriteTimeout)
		defer cancel()

		if err := a.repo.Create(ctx, entry); err != nil {
			log.Printf("WARN: audit write failed, queuing for retry: %v", err)
			a.enqueue(entry)
		}
	}()
}

func (a *auditRecorder) enqueue(entry *models.AuditLog) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.pending) >= auditRetryCapacity {
		log.Printf("ERROR: audit retry queue full, dropping entry %s", a.pending[0].ID)
		a.pending = a.pending[1:]
	}
	a.pending = append(a.pending, entry)
}

// Flush retries every queued entry. Entries that fail again go back on the
// queue for the next run.
func (a *auditRecorder) Flush(ctx context.Context) error {
	a.mu.Lock()
	batch := a.pending
	a.pending = nil
	a.mu.Unlock()

	var lastErr error
	for _, entry := range batch {
		if err := a.repo.Create(ctx, entry); err != nil {
			lastErr = err
			a.enqueue(entry)
		}
	}
	return lastErr
}

func (a *auditRecorder) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending)
}
