package monitor

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeDevice is an in-memory serial port: reads are fed through a channel,
// writes accumulate in a buffer.
type fakeDevice struct {
	reads chan []byte

	mu      sync.Mutex
	written bytes.Buffer

	closed    chan struct{}
	closeOnce sync.Once
	readErr   error
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		reads:  make(chan []byte, 16),
		closed: make(chan struct{}),
	}
}

func (d *fakeDevice) Read(p []byte) (int, error) {
	select {
	case chunk := <-d.reads:
		return copy(p, chunk), nil
	case <-d.closed:
		if d.readErr != nil {
			return 0, d.readErr
		}
		return 0, io.EOF
	}
}

func (d *fakeDevice) Write(p []byte) (int, error) {
	select {
	case <-d.closed:
		return 0, errors.New("device closed")
	default:
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.written.Write(p)
}

func (d *fakeDevice) Close() error {
	d.closeOnce.Do(func() { close(d.closed) })
	return nil
}

func (d *fakeDevice) writtenString() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.written.String()
}

func (d *fakeDevice) isClosed() bool {
	select {
	case <-d.closed:
		return true
	default:
		return false
	}
}

// recordedEvent is one broadcast captured by recordingHub.
type recordedEvent struct {
	Room    string
	Event   string
	Payload any
}

type recordingHub struct {
	events chan recordedEvent
}

func newRecordingHub() *recordingHub {
	return &recordingHub{events: make(chan recordedEvent, 128)}
}

func (h *recordingHub) Broadcast(room, event string, payload any) {
	h.events <- recordedEvent{Room: room, Event: event, Payload: payload}
}

func (h *recordingHub) next(t *testing.T) recordedEvent {
	t.Helper()
	select {
	case ev := <-h.events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for broadcast event")
		return recordedEvent{}
	}
}

func TestConcurrentFirstSubscribersStartOneEngine(t *testing.T) {
	var opens atomic.Int32
	dev := newFakeDevice()
	open := func(port string, baud int) (io.ReadWriteCloser, error) {
		opens.Add(1)
		return dev, nil
	}
	reg := NewRegistry(open, newRecordingHub())

	const n = 32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reg.Subscribe("X", 9600)
		}()
	}
	wg.Wait()

	require.Equal(t, n, reg.Clients("X"))
	require.Eventually(t, func() bool { return opens.Load() == 1 },
		time.Second, 5*time.Millisecond)

	for i := 0; i < n; i++ {
		reg.Unsubscribe("X")
	}
	require.Equal(t, 0, reg.Clients("X"))
	require.Eventually(t, dev.isClosed, time.Second, 5*time.Millisecond)
	require.EqualValues(t, 1, opens.Load())
}

func TestInboundLinesFannedOutInOrder(t *testing.T) {
	dev := newFakeDevice()
	hub := newRecordingHub()
	var mu sync.Mutex
	var gotPort string
	var gotBaud int
	reg := NewRegistry(func(port string, baud int) (io.ReadWriteCloser, error) {
		mu.Lock()
		gotPort, gotBaud = port, baud
		mu.Unlock()
		return dev, nil
	}, hub)

	reg.Subscribe("X", 9600)
	t.Cleanup(func() { reg.Unsubscribe("X") })

	dev.reads <- []byte("a=1\r\nb=2\n")

	ev := hub.next(t)
	require.Equal(t, "X", ev.Room)
	require.Equal(t, EventDataRecv, ev.Event)
	require.Equal(t, DataPayload{Data: "a=1"}, ev.Payload)

	ev = hub.next(t)
	require.Equal(t, EventDataRecv, ev.Event)
	require.Equal(t, DataPayload{Data: "b=2"}, ev.Payload)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, "X", gotPort)
	require.Equal(t, 9600, gotBaud)
}

func TestOutboundMessagesWrittenInEnqueueOrder(t *testing.T) {
	dev := newFakeDevice()
	reg := NewRegistry(func(string, int) (io.ReadWriteCloser, error) { return dev, nil }, newRecordingHub())

	reg.Subscribe("X", 115200)
	t.Cleanup(func() { reg.Unsubscribe("X") })

	for i := 1; i <= 3; i++ {
		reg.Send("X", Message{Data: fmt.Sprintf("m%d", i)})
	}

	require.Eventually(t, func() bool {
		return dev.writtenString() == "m1\r\nm2\r\nm3\r\n"
	}, time.Second, 5*time.Millisecond)
}

func TestSendWithExplicitTerminator(t *testing.T) {
	dev := newFakeDevice()
	reg := NewRegistry(func(string, int) (io.ReadWriteCloser, error) { return dev, nil }, newRecordingHub())

	reg.Subscribe("X", 115200)
	t.Cleanup(func() { reg.Unsubscribe("X") })

	reg.Send("X", Message{Data: "PING", EndWith: "\n"})

	require.Eventually(t, func() bool {
		return dev.writtenString() == "PING\n"
	}, time.Second, 5*time.Millisecond)
}

func TestSendToUnknownPortIsDropped(t *testing.T) {
	opened := false
	reg := NewRegistry(func(string, int) (io.ReadWriteCloser, error) {
		opened = true
		return newFakeDevice(), nil
	}, newRecordingHub())

	reg.Send("nope", Message{Data: "lost"})
	require.False(t, opened)
	require.Equal(t, 0, reg.Clients("nope"))
}

func TestUnsubscribeUnknownPortIsNoop(t *testing.T) {
	reg := NewRegistry(func(string, int) (io.ReadWriteCloser, error) { return newFakeDevice(), nil }, newRecordingHub())
	reg.Unsubscribe("ghost")
	require.Equal(t, 0, reg.Clients("ghost"))
}

func TestLastUnsubscribeReleasesDeviceAndAllowsRestart(t *testing.T) {
	var devices []*fakeDevice
	var mu sync.Mutex
	reg := NewRegistry(func(string, int) (io.ReadWriteCloser, error) {
		d := newFakeDevice()
		mu.Lock()
		devices = append(devices, d)
		mu.Unlock()
		return d, nil
	}, newRecordingHub())

	reg.Subscribe("X", 9600)
	reg.Subscribe("X", 19200) // second client, first client's baud wins
	require.Equal(t, 2, reg.Clients("X"))

	reg.Unsubscribe("X")
	require.Equal(t, 1, reg.Clients("X"))
	reg.Unsubscribe("X")
	require.Equal(t, 0, reg.Clients("X"))

	mu.Lock()
	first := devices[0]
	mu.Unlock()
	require.Eventually(t, first.isClosed, time.Second, 5*time.Millisecond)

	// A new subscribe starts a fresh engine on a fresh device.
	reg.Subscribe("X", 9600)
	t.Cleanup(func() { reg.Unsubscribe("X") })
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(devices) == 2
	}, time.Second, 5*time.Millisecond)
}

func TestOpenFailureEmitsOneErrorAndRemovesSession(t *testing.T) {
	hub := newRecordingHub()
	reg := NewRegistry(func(port string, baud int) (io.ReadWriteCloser, error) {
		return nil, errors.New("no such device")
	}, hub)

	reg.Subscribe("/dev/ttyBOGUS", 115200)

	ev := hub.next(t)
	require.Equal(t, EventError, ev.Event)
	require.Equal(t, "/dev/ttyBOGUS", ev.Room)
	require.Equal(t, ErrorPayload{Port: "/dev/ttyBOGUS", Message: "no such device"}, ev.Payload)

	require.Eventually(t, func() bool { return reg.Clients("/dev/ttyBOGUS") == 0 },
		time.Second, 5*time.Millisecond)
	select {
	case ev := <-hub.events:
		t.Fatalf("unexpected extra event: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDeviceFaultInFlightEmitsError(t *testing.T) {
	dev := newFakeDevice()
	dev.readErr = errors.New("input/output error")
	hub := newRecordingHub()
	reg := NewRegistry(func(string, int) (io.ReadWriteCloser, error) { return dev, nil }, hub)

	reg.Subscribe("X", 9600)

	// Simulate the device disappearing.
	dev.Close()

	ev := hub.next(t)
	require.Equal(t, EventError, ev.Event)
	require.Equal(t, ErrorPayload{Port: "X", Message: "input/output error"}, ev.Payload)

	require.Eventually(t, func() bool { return reg.Clients("X") == 0 },
		time.Second, 5*time.Millisecond)
}

func TestSubscribeUnsubscribeRaces(t *testing.T) {
	reg := NewRegistry(func(string, int) (io.ReadWriteCloser, error) { return newFakeDevice(), nil }, newRecordingHub())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reg.Subscribe("X", 115200)
			reg.Unsubscribe("X")
		}()
	}
	wg.Wait()

	require.Equal(t, 0, reg.Clients("X"))
}

func TestMessageBytes(t *testing.T) {
	require.Equal(t, []byte("hi\r\n"), Message{Data: "hi"}.Bytes())
	require.Equal(t, []byte("hi\r\n"), Message{Data: "hi\r\n"}.Bytes())
	require.Equal(t, []byte("hi\n"), Message{Data: "hi", EndWith: "\n"}.Bytes())
	require.Equal(t, []byte("hi\n"), Message{Data: "hi\n", EndWith: "\n"}.Bytes())
	require.Equal(t, []byte("\r\n"), Message{}.Bytes())
}
