package pgsql

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/SscSPs/municipal_tax_ledger/internal/apperrors"
)

func TestTxManager_LockKeyOutsideTransaction(t *testing.T) {
	m := &txManager{}
	err := m.LockKey(context.Background(), "filer:springfield:filer-1")
	assert.ErrorIs(t, err, apperrors.ErrInternal)
}

func TestTxManager_AfterCommitWithoutTransactionRunsNow(t *testing.T) {
	m := &txManager{}
	ran := false
	m.AfterCommit(context.Background(), func() { ran = true })
	assert.True(t, ran)
}
