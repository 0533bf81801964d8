package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"byggmart/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func auditEntry(orgID uuid.UUID) *models.AuditLog {
	return &models.AuditLog{
		OrgID:      orgID,
		EntityType: models.EntityInvoiceBasis,
		EntityID:   uuid.New().String(),
		Action:     models.ActionHeaderUpdate,
		NewData:    models.JSONB{"our_ref": "Anna"},
	}
}

func TestAuditRecorder_RecordWrites(t *testing.T) {
	done := make(chan struct{})
	repo := &MockAuditLogsRepository{}
	repo.On("Create", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		close(done)
	}).Return(nil)
	recorder := NewAuditRecorder(repo)

	recorder.Record(auditEntry(uuid.New()))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("audit write never happened")
	}
	assert.Equal(t, 0, recorder.Pending())
}

func TestAuditRecorder_FailureQueuesForRetry(t *testing.T) {
	repo := &MockAuditLogsRepository{}
	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("connection refused")).Once()
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	recorder := NewAuditRecorder(repo)

	recorder.Record(auditEntry(uuid.New()))

	require.Eventually(t, func() bool {
		return recorder.Pending() == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, recorder.Flush(context.Background()))
	assert.Equal(t, 0, recorder.Pending())
}

func TestAuditRecorder_FlushKeepsFailedEntries(t *testing.T) {
	repo := &MockAuditLogsRepository{}
	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("still down"))
	recorder := NewAuditRecorder(repo)

	recorder.Record(auditEntry(uuid.New()))
	require.Eventually(t, func() bool {
		return recorder.Pending() == 1
	}, time.Second, 10*time.Millisecond)

	err := recorder.Flush(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 1, recorder.Pending(), "entries stay queued until a write succeeds")
}

func TestAuditRecorder_NilEntryIgnored(t *testing.T) {
	repo := &MockAuditLogsRepository{}
	recorder := NewAuditRecorder(repo)

	recorder.Record(nil)

	time.Sleep(20 * time.Millisecond)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
