package protocol

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/creachadair/jrpc2"
)

// RPCMessage is one message seen by an RPCTracker.
type RPCMessage struct {
	Method   string
	Request  *jrpc2.Request
	Response *jrpc2.Response
	// Pushed holds the params of a server-to-client message.
	Pushed any
	Time   time.Time
}

func (m RPCMessage) IsPush() bool {
	return m.Request == nil && m.Response == nil
}

// RPCTracker records the traffic of a server so tests can wait on it.
type RPCTracker struct {
	mu sync.RWMutex

	messages     []RPCMessage
	subs         map[chan<- RPCMessage]struct{}
	knownMethods map[string]string
}

var _ CallbackRPCLogger = (*RPCTracker)(nil)

func NewRPCTracker() *RPCTracker {
	return &RPCTracker{
		subs:         make(map[chan<- RPCMessage]struct{}),
		knownMethods: make(map[string]string),
	}
}

func (me *RPCTracker) LogRequest(_ context.Context, req *jrpc2.Request) {
	if id := req.ID(); id != "" {
		me.mu.Lock()
		me.knownMethods[id] = req.Method()
		me.mu.Unlock()
	}
	me.Track(RPCMessage{Method: req.Method(), Request: req})
}

func (me *RPCTracker) LogResponse(_ context.Context, resp *jrpc2.Response) {
	me.mu.RLock()
	method := me.knownMethods[resp.ID()]
	me.mu.RUnlock()
	me.Track(RPCMessage{Method: method, Response: resp})
}

func (me *RPCTracker) LogCallbackRequestRaw(_ context.Context, method string, params any) {
	me.Track(RPCMessage{Method: method, Pushed: params})
}

func (me *RPCTracker) LogCallbackResponse(context.Context, *jrpc2.Response) {}

// Track stores msg and hands it to subscribers that have room for it.
func (me *RPCTracker) Track(msg RPCMessage) {
	me.mu.Lock()
	defer me.mu.Unlock()

	msg.Time = time.Now()
	me.messages = append(me.messages, msg)

	for ch := range me.subs {
		select {
		case ch <- msg:
		default:
		}
	}
}

func (me *RPCTracker) subscribe(size int) (<-chan RPCMessage, func()) {
	me.mu.Lock()
	defer me.mu.Unlock()

	ch := make(chan RPCMessage, size)
	me.subs[ch] = struct{}{}

	return ch, func() {
		me.mu.Lock()
		defer me.mu.Unlock()
		delete(me.subs, ch)
	}
}

func (me *RPCTracker) Messages() []RPCMessage {
	me.mu.RLock()
	defer me.mu.RUnlock()
	return append([]RPCMessage{}, me.messages...)
}

func (me *RPCTracker) MessagesSinceLike(since time.Time, predicate func(RPCMessage) bool) []RPCMessage {
	return slices.DeleteFunc(me.Messages(), func(msg RPCMessage) bool {
		return msg.Time.Before(since) || !predicate(msg)
	})
}

// WaitForMessages waits until count messages since since match predicate. It
// reports whether enough arrived before timeout.
func (me *RPCTracker) WaitForMessages(since time.Time, count int, timeout time.Duration, predicate func(RPCMessage) bool) ([]RPCMessage, bool) {
	ch, unsub := me.subscribe(64)
	defer unsub()

	match := func(msg RPCMessage) bool {
		return !msg.Time.Before(since) && predicate(msg)
	}

	all := me.Messages()
	result := slices.DeleteFunc(slices.Clone(all), func(msg RPCMessage) bool { return !match(msg) })
	if len(result) >= count {
		return result, true
	}
	seen := len(all)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-ch:
			// re-read so nothing dropped from a full channel is missed
			all = me.Messages()
			for _, msg := range all[seen:] {
				if match(msg) {
					result = append(result, msg)
				}
			}
			seen = len(all)
			if len(result) >= count {
				return result, true
			}
		case <-timer.C:
			return result, false
		}
	}
}
