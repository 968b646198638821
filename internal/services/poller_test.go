package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countCalls(calls []string, name string) int {
	n := 0
	for _, c := range calls {
		if c == name {
			n++
		}
	}
	return n
}

func TestNowPlayingPoller_PollsUntilStopped(t *testing.T) {
	player := newPlayingDevice(50)
	logger, _ := test.NewNullLogger()
	poller := NewNowPlayingPoller(player, 10*time.Millisecond, logger)

	poller.Start(context.Background())
	poller.Start(context.Background())
	require.Eventually(t, func() bool {
		return countCalls(player.Calls(), "current") >= 3
	}, time.Second, 5*time.Millisecond)

	latest, err := poller.Latest()
	require.NoError(t, err)
	require.True(t, latest.HasTrack())
	assert.Equal(t, "Song", latest.Track.Name)
	assert.True(t, poller.Running())

	poller.Stop()
	assert.False(t, poller.Running())
	stopped := countCalls(player.Calls(), "current")
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, stopped, countCalls(player.Calls(), "current"), "no polls after Stop")

	latest, _ = poller.Latest()
	assert.Nil(t, latest)
}

func TestNowPlayingPoller_KeepsLastStateOnError(t *testing.T) {
	player := newPlayingDevice(50)
	logger, _ := test.NewNullLogger()
	poller := NewNowPlayingPoller(player, time.Hour, logger)

	poller.poll(context.Background())
	player.mu.Lock()
	player.stateErr = errors.New("bad gateway")
	player.mu.Unlock()
	poller.poll(context.Background())

	latest, err := poller.Latest()
	assert.Error(t, err)
	assert.True(t, latest.HasTrack())
}

func TestNowPlayingPoller_StopsOnDisconnect(t *testing.T) {
	ts := newTokenServer(t)
	auth, _ := newTestAuth(t, ts)

	logger, _ := test.NewNullLogger()
	poller := NewNowPlayingPoller(newPlayingDevice(50), 10*time.Millisecond, logger)
	auth.OnDisconnect(poller.Stop)

	poller.Start(context.Background())
	require.NoError(t, auth.Disconnect(context.Background()))
	assert.False(t, poller.Running())
}
