package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/conference-requests/internal/application/dispatcher"
	"github.com/garyjia/conference-requests/internal/domain/event"
	domainwf "github.com/garyjia/conference-requests/internal/domain/workflow"
)

func TestNotificationService_HandleStatusChanged(t *testing.T) {
	evt := event.NewStatusChanged(2, mary, domainwf.StatePendingManager, domainwf.StatePendingOrgDev, domainwf.TriggerManagerApprove)

	logger := &mockLogger{}
	require.NoError(t, NewNotificationService(false, logger).HandleStatusChanged(context.Background(), evt))
	assert.Equal(t, []string{"Request status changed"}, logger.infos)
	assert.Equal(t, domainwf.StageOrgDev, logger.field("Request status changed", "awaiting"))

	logger = &mockLogger{}
	require.NoError(t, NewNotificationService(true, logger).HandleStatusChanged(context.Background(), evt))
	assert.Equal(t, []string{
		"Request status changed",
		"Email notification skipped, no delivery channel configured",
	}, logger.infos)
}

func TestNotificationService_Register(t *testing.T) {
	d := dispatcher.NewDispatcher()

	logger := &mockLogger{}
	NewNotificationService(false, logger).Register(d)
	assert.Equal(t, []string{"status-notifier"}, d.Handlers(event.TypeStatusChanged))
	assert.Empty(t, d.Handlers(event.TypeDraftSaved))

	evt := event.NewStatusChanged(3, mary, domainwf.StatePendingOrgDev, domainwf.StateDenied, domainwf.TriggerOrgDevDeny)
	d.DispatchAsync(context.Background(), evt)
	require.NoError(t, d.Close())
	assert.Equal(t, []string{"Request status changed"}, logger.infos)
	assert.Nil(t, logger.field("Request status changed", "awaiting"), "denied requests await no one")
}
