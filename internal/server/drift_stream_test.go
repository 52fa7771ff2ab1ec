package server

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/driftline/ballast/internal/database"
	"github.com/driftline/ballast/internal/domain"
	"github.com/driftline/ballast/internal/events"
	"github.com/driftline/ballast/internal/modules/accounts"
	"github.com/driftline/ballast/internal/modules/allocation"
	"github.com/driftline/ballast/internal/modules/drift"
	"github.com/driftline/ballast/internal/modules/settings"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
)

func wsURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http")
}

func TestDriftStreamPushesEvents(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	bus := events.NewBus(log)
	handler := NewDriftStreamHandler(bus, nil, log)

	srv := httptest.NewServer(handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL(srv.URL), nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	require.Eventually(t, func() bool {
		return handler.ClientCount() == 1
	}, time.Second, 10*time.Millisecond)

	bus.Publish("drift", &events.DriftStatusChangedData{Previous: "GREEN", Current: "YELLOW"})

	msgType, data, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, websocket.MessageText, msgType)
	assert.Contains(t, string(data), `"type":"DRIFT_STATUS_CHANGED"`)
	assert.Contains(t, string(data), `"current":"YELLOW"`)
}

func TestDriftStreamSendsSnapshotOnConnect(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	dir := t.TempDir()

	configDB := openTestDB(t, dir, "config", database.ProfileStandard)
	portfolioDB := openTestDB(t, dir, "portfolio", database.ProfileLedger)

	bus := events.NewBus(log)
	settingsRepo := settings.NewRepository(configDB.Conn(), log)
	allocationSvc := allocation.NewService(allocation.NewRepository(configDB.Conn(), log), bus, log)
	accountsSvc := accounts.NewService(accounts.NewRepository(portfolioDB.Conn(), log), bus, log)
	driftSvc := drift.NewService(allocationSvc, accountsSvc, settingsRepo, domain.DefaultThresholds(), bus, log)

	handler := NewDriftStreamHandler(bus, driftSvc, log)

	srv := httptest.NewServer(handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL(srv.URL), nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	msgType, data, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, websocket.MessageText, msgType)
	assert.Contains(t, string(data), `"type":"snapshot"`)
	assert.Contains(t, string(data), `"classes"`)
}

func TestDriftStreamRemovesDisconnectedClients(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	bus := events.NewBus(log)
	handler := NewDriftStreamHandler(bus, nil, log)

	srv := httptest.NewServer(handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL(srv.URL), nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return handler.ClientCount() == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, ""))

	require.Eventually(t, func() bool {
		return handler.ClientCount() == 0
	}, time.Second, 10*time.Millisecond)
}
