package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-pos/models"
)

var ctxBG = context.Background()

func TestStartSessionMarksTableActive(t *testing.T) {
	f := setupFixture(t)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	freezeTime(t, at)

	sessionID, err := f.svc.Sessions.StartSession(ctxBG, f.tableID)
	require.NoError(t, err)

	table := f.table(t, f.tableID)
	assert.Equal(t, models.TableStatusActive, table.Status)
	require.NotNil(t, table.ActiveSessionID)
	assert.Equal(t, sessionID, *table.ActiveSessionID)
	require.NotNil(t, table.ActiveSince)
	assert.WithinDuration(t, at, *table.ActiveSince, time.Second)

	var session models.TableSession
	require.NoError(t, f.store.DB.First(&session, sessionID).Error)
	assert.Equal(t, models.SessionStatusActive, session.Status)
	assert.Len(t, session.SessionKey, 36)
	assert.Nil(t, session.EndedAt)
}

func TestStartSessionRejectsSecondActiveSession(t *testing.T) {
	f := setupFixture(t)

	_, err := f.svc.Sessions.StartSession(ctxBG, f.tableID)
	require.NoError(t, err)

	_, err = f.svc.Sessions.StartSession(ctxBG, f.tableID)
	assert.ErrorIs(t, err, ErrSessionAlreadyActive)

	assert.Equal(t, int64(1), f.count(t, &models.TableSession{}, "table_id = ? AND status = ?", f.tableID, models.SessionStatusActive))
}

func TestStartSessionUnknownTable(t *testing.T) {
	f := setupFixture(t)

	_, err := f.svc.Sessions.StartSession(ctxBG, 9999)
	assert.ErrorIs(t, err, ErrNotFound)

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "table", nf.Entity)
	assert.Equal(t, uint(9999), nf.ID)
}

func TestActiveSessionIDRepairsMissingPointer(t *testing.T) {
	f := setupFixture(t)

	sessionID, err := f.svc.Sessions.StartSession(ctxBG, f.tableID)
	require.NoError(t, err)

	// Simulasikan cache yang tertinggal
	require.NoError(t, f.store.DB.Model(&models.Table{}).Where("id = ?", f.tableID).
		Update("active_session_id", nil).Error)

	got, ok, err := f.svc.Sessions.ActiveSessionID(ctxBG, f.tableID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, sessionID, got)

	table := f.table(t, f.tableID)
	require.NotNil(t, table.ActiveSessionID)
	assert.Equal(t, sessionID, *table.ActiveSessionID)
}

func TestActiveSessionIDClearsPointerToCompletedSession(t *testing.T) {
	f := setupFixture(t)

	stale := models.TableSession{TableID: f.tableID, StartedAt: time.Now(), Status: models.SessionStatusCompleted}
	require.NoError(t, f.store.DB.Omit("Table").Create(&stale).Error)
	require.NoError(t, f.store.DB.Model(&models.Table{}).Where("id = ?", f.tableID).
		Update("active_session_id", stale.ID).Error)

	_, ok, err := f.svc.Sessions.ActiveSessionID(ctxBG, f.tableID)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, f.table(t, f.tableID).ActiveSessionID)
}

func TestActiveSessionIDIdleTable(t *testing.T) {
	f := setupFixture(t)

	id, ok, err := f.svc.Sessions.ActiveSessionID(ctxBG, f.tableID)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, id)
}

func TestEndSessionClearsOnlyThePointer(t *testing.T) {
	f := setupFixture(t)

	sessionID, err := f.svc.Sessions.StartSession(ctxBG, f.tableID)
	require.NoError(t, err)
	require.NoError(t, f.svc.Sessions.EndSession(ctxBG, sessionID))

	var session models.TableSession
	require.NoError(t, f.store.DB.First(&session, sessionID).Error)
	assert.Equal(t, models.SessionStatusCompleted, session.Status)
	assert.NotNil(t, session.EndedAt)

	table := f.table(t, f.tableID)
	assert.Nil(t, table.ActiveSessionID)
	// Status meja hanya direset oleh settlement
	assert.Equal(t, models.TableStatusActive, table.Status)

	// Idempotent
	assert.NoError(t, f.svc.Sessions.EndSession(ctxBG, sessionID))
	assert.ErrorIs(t, f.svc.Sessions.EndSession(ctxBG, 4242), ErrNotFound)
}

func TestNewSessionAfterSettlementGetsNewKey(t *testing.T) {
	f := setupFixture(t)

	first, err := f.svc.Sessions.StartSession(ctxBG, f.tableID)
	require.NoError(t, err)
	require.NoError(t, f.svc.Sessions.EndSession(ctxBG, first))

	second, err := f.svc.Sessions.StartSession(ctxBG, f.tableID)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	var sessions []models.TableSession
	require.NoError(t, f.store.DB.Where("table_id = ?", f.tableID).Find(&sessions).Error)
	require.Len(t, sessions, 2)
	assert.NotEqual(t, sessions[0].SessionKey, sessions[1].SessionKey)
}
