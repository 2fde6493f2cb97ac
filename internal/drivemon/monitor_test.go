package drivemon_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/drivebay/drivebay/internal/drivemon"
	"github.com/drivebay/drivebay/internal/drivemon/mocks"
	"github.com/drivebay/drivebay/internal/events"
	"github.com/drivebay/drivebay/internal/registry"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setup(t *testing.T) (*registry.Store, *events.Bus) {
	t.Helper()
	reg, err := registry.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = reg.Close() })

	bus := events.NewBus(testLogger())
	t.Cleanup(func() { _ = bus.Close() })
	return reg, bus
}

func drain(t *testing.T, ch <-chan events.Event) events.Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
		return nil
	}
}

func TestMonitor_ConnectDisconnect(t *testing.T) {
	ctrl := gomock.NewController(t)
	reg, bus := setup(t)

	connCh := bus.Subscribe(events.TypeVolumeConnected, 10)
	discCh := bus.Subscribe(events.TypeVolumeDisconnected, 10)

	enum := mocks.NewMockEnumerator(ctrl)
	vol := drivemon.EnumeratedVolume{UUID: "1234-ABCD", Label: "USB", MountRoot: "/mnt/usb", Removable: true}

	// First poll sees the volume, second poll sees nothing.
	gomock.InOrder(
		enum.EXPECT().Enumerate(gomock.Any()).Return([]drivemon.EnumeratedVolume{vol}, nil),
		enum.EXPECT().Enumerate(gomock.Any()).Return(nil, nil),
	)

	m := drivemon.NewMonitor(enum, reg, bus, time.Second, time.Second, testLogger())

	require.NoError(t, m.Poll(context.Background()))
	e := drain(t, connCh)
	connected, ok := e.(events.VolumeConnected)
	require.True(t, ok)
	assert.Equal(t, "1234-ABCD", connected.VolumeID)
	assert.Equal(t, "/mnt/usb", connected.MountRoot)

	got, err := reg.Get("1234-ABCD")
	require.NoError(t, err)
	assert.True(t, got.Connected)
	assert.Equal(t, registry.ConfidenceHigh, got.Confidence)

	require.NoError(t, m.Poll(context.Background()))
	e = drain(t, discCh)
	disconnected, ok := e.(events.VolumeDisconnected)
	require.True(t, ok)
	assert.Equal(t, "1234-ABCD", disconnected.VolumeID)

	got, err = reg.Get("1234-ABCD")
	require.NoError(t, err)
	assert.False(t, got.Connected, "registry should retain the volume, disconnected")
}

func TestMonitor_SteadyStateEmitsNothing(t *testing.T) {
	ctrl := gomock.NewController(t)
	reg, bus := setup(t)

	connCh := bus.Subscribe(events.TypeVolumeConnected, 10)

	enum := mocks.NewMockEnumerator(ctrl)
	vol := drivemon.EnumeratedVolume{UUID: "1234-ABCD", Label: "USB", MountRoot: "/mnt/usb"}
	enum.EXPECT().Enumerate(gomock.Any()).Return([]drivemon.EnumeratedVolume{vol}, nil).Times(2)

	m := drivemon.NewMonitor(enum, reg, bus, time.Second, time.Second, testLogger())

	require.NoError(t, m.Poll(context.Background()))
	drain(t, connCh)

	require.NoError(t, m.Poll(context.Background()))
	select {
	case e := <-connCh:
		t.Fatalf("unexpected event on steady state: %v", e.EventType())
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMonitor_EnumerationFailureIsRetriable(t *testing.T) {
	ctrl := gomock.NewController(t)
	reg, bus := setup(t)

	connCh := bus.Subscribe(events.TypeVolumeConnected, 10)

	enum := mocks.NewMockEnumerator(ctrl)
	vol := drivemon.EnumeratedVolume{UUID: "1234-ABCD", Label: "USB", MountRoot: "/mnt/usb"}
	gomock.InOrder(
		enum.EXPECT().Enumerate(gomock.Any()).Return(nil, errors.New("wmi timeout")),
		enum.EXPECT().Enumerate(gomock.Any()).Return([]drivemon.EnumeratedVolume{vol}, nil),
	)

	m := drivemon.NewMonitor(enum, reg, bus, time.Second, time.Second, testLogger())

	// A failed poll reports the error but does not poison the monitor.
	assert.Error(t, m.Poll(context.Background()))

	require.NoError(t, m.Poll(context.Background()))
	e := drain(t, connCh)
	assert.Equal(t, events.TypeVolumeConnected, e.EventType())
}

func TestMonitor_FallbackIdentity(t *testing.T) {
	ctrl := gomock.NewController(t)
	reg, bus := setup(t)

	connCh := bus.Subscribe(events.TypeVolumeConnected, 10)

	enum := mocks.NewMockEnumerator(ctrl)
	vol := drivemon.EnumeratedVolume{Label: "NOUUID", MountRoot: "/mnt/nouuid"}
	enum.EXPECT().Enumerate(gomock.Any()).Return([]drivemon.EnumeratedVolume{vol}, nil)

	m := drivemon.NewMonitor(enum, reg, bus, time.Second, time.Second, testLogger())
	require.NoError(t, m.Poll(context.Background()))

	e := drain(t, connCh)
	connected := e.(events.VolumeConnected)
	require.NotEmpty(t, connected.VolumeID)

	got, err := reg.Get(connected.VolumeID)
	require.NoError(t, err)
	assert.Equal(t, registry.ConfidenceLow, got.Confidence)
}
