package events

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := NewBus(nil)
	defer bus.Close()

	// Subscribe before publishing
	ch := bus.Subscribe(TypeVolumeConnected, 10)

	e := NewVolumeConnected("vol-1", "USB Drive", "/mnt/usb", true)
	err := bus.Publish(context.Background(), e)
	require.NoError(t, err)

	select {
	case received := <-ch:
		assert.Equal(t, TypeVolumeConnected, received.EventType())
		assert.Equal(t, "vol-1", received.EntityID())
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestBus_SubscribeAll(t *testing.T) {
	bus := NewBus(nil)
	defer bus.Close()

	ch := bus.SubscribeAll(10)

	err := bus.Publish(context.Background(), NewVolumeConnected("vol-1", "A", "/mnt/a", false))
	require.NoError(t, err)
	err = bus.Publish(context.Background(), NewRescanNeeded("vol-1", "fs_change"))
	require.NoError(t, err)

	received := make([]Event, 0, 2)
	timeout := time.After(time.Second)
	for i := 0; i < 2; i++ {
		select {
		case e := <-ch:
			received = append(received, e)
		case <-timeout:
			t.Fatalf("timeout waiting for event %d", i+1)
		}
	}

	assert.Len(t, received, 2)
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus(nil)
	defer bus.Close()

	ch := bus.Subscribe(TypeVolumeDisconnected, 10)
	bus.Unsubscribe(ch)

	// Publish should not block even with no subscribers
	err := bus.Publish(context.Background(), NewVolumeDisconnected("vol-1"))
	require.NoError(t, err)

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel should be closed")
	default:
		// Also acceptable - channel is closed
	}
}

func TestBus_ConcurrentPublish(t *testing.T) {
	bus := NewBus(nil)
	defer bus.Close()

	ch := bus.SubscribeAll(100)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = bus.Publish(context.Background(), NewRescanNeeded("vol-"+strconv.Itoa(n), "poll"))
		}(i)
	}

	wg.Wait()

	count := 0
	timeout := time.After(time.Second)
loop:
	for {
		select {
		case <-ch:
			count++
			if count == 10 {
				break loop
			}
		case <-timeout:
			break loop
		}
	}

	assert.Equal(t, 10, count)
}
