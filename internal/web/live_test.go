package web

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/D0M3-lab/7eMezzo-Digital-Manager/internal/event"
	"github.com/D0M3-lab/7eMezzo-Digital-Manager/internal/game"
)

func dialLive(t *testing.T, f *webFixture) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(f.ts.URL, "http") + "/live"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readLive(t *testing.T, conn *websocket.Conn) liveMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg liveMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestLiveFeedPushesTableUpdates(t *testing.T) {
	f := newWebFixture(t, []game.Card{7, 5, 3})
	ctx := context.Background()

	p, err := f.store.CreatePlayer(ctx, "anna", decimal.NewFromInt(100))
	require.NoError(t, err)

	conn := dialLive(t, f)

	hello := readLive(t, conn)
	require.Equal(t, "snapshot", hello.Event)
	require.False(t, hello.Table.Active)

	require.NoError(t, f.svc.Start(ctx, p.ID, decimal.NewFromInt(20)))
	started := readLive(t, conn)
	require.Equal(t, "round.started", started.Event)
	require.True(t, started.Table.Active)
	require.Equal(t, []string{"7"}, started.Table.PlayerCards)
	require.Empty(t, started.Table.DealerScore, "hole card must stay hidden on the feed")

	require.NoError(t, f.svc.Hit(ctx))
	settledMsg := readLive(t, conn)
	require.Equal(t, "round.settled", settledMsg.Event)
	require.True(t, settledMsg.Table.Settled)
	require.True(t, settledMsg.Table.Bust)
	require.Equal(t, "Hai Sballato! Vince il Banco.", settledMsg.Table.Message)
}

func TestLiveFeedSurvivesSubscriberChurn(t *testing.T) {
	f := newWebFixture(t)

	first := dialLive(t, f)
	readLive(t, first)
	second := dialLive(t, f)
	readLive(t, second)

	first.Close()

	// The surviving subscriber still gets updates after the other hangs up.
	f.bus.Publish(event.RoundUpdated, f.svc.Snapshot())
	msg := readLive(t, second)
	require.Equal(t, event.RoundUpdated, msg.Event)
}
