package msgbus

import (
	"sync"
	"sync/atomic"

	"learnkit/common"
)

type BusMessage struct {
	MsgType common.LocalMsgType
	Source  string
	Msg     interface{}
}

type Subscriber interface {
	HandleMsgFromMsgBus(msg *BusMessage) error
}

// SubscriberFunc adapts a plain function to Subscriber. Function values are not
// comparable, so a SubscriberFunc is never deduplicated by Register and cannot be
// removed by UnRegister; use a pointer subscriber when either is needed.
type SubscriberFunc func(msg *BusMessage) error

func (f SubscriberFunc) HandleMsgFromMsgBus(msg *BusMessage) error {
	return f(msg)
}

// MessageBus dispatches synchronously: Publish returns after every subscriber of the
// topic has handled the message, in registration order, on the caller's goroutine.
type MessageBus interface {
	Register(topic common.LocalMsgType, sub Subscriber)
	UnRegister(topic common.LocalMsgType, sub Subscriber)
	Publish(source string, t common.LocalMsgType, payload interface{}) error
	Reset()
}

type Topic interface {
	Register(sub Subscriber)
	UnRegister(sub Subscriber)
	Publish(msg *BusMessage) error
}

type topicImpl struct {
	subs  atomic.Value //[]Subscriber
	mutex sync.Mutex
}

func newTopic() Topic {
	t := &topicImpl{}
	t.subs.Store([]Subscriber{})
	return t
}

func sameSubscriber(a, b Subscriber) (same bool) {
	// 函数类型的订阅者不可比较, == 会panic
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}

func (t *topicImpl) Register(sub Subscriber) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	subs := t.subs.Load().([]Subscriber)
	//去重
	for _, s := range subs {
		if sameSubscriber(s, sub) {
			return
		}
	}
	newSubs := make([]Subscriber, len(subs), len(subs)+1)
	copy(newSubs, subs)
	t.subs.Store(append(newSubs, sub))
}

func (t *topicImpl) UnRegister(sub Subscriber) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	subs := t.subs.Load().([]Subscriber)
	for i, s := range subs {
		if sameSubscriber(s, sub) {
			newSubs := make([]Subscriber, 0, len(subs)-1)
			newSubs = append(newSubs, subs[:i]...)
			newSubs = append(newSubs, subs[i+1:]...)
			t.subs.Store(newSubs)
			return
		}
	}
}

// Publish hands msg to every subscriber and returns the first error; later subscribers
// still see the message.
func (t *topicImpl) Publish(msg *BusMessage) error {
	var first error
	for _, sub := range t.subs.Load().([]Subscriber) {
		if err := sub.HandleMsgFromMsgBus(msg); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type messageBusImpl struct {
	topics sync.Map //一级MsgType->Topic
}

// NewMessageBus returns an empty bus. Each runner or test owns its own.
func NewMessageBus() MessageBus {
	return &messageBusImpl{}
}

func (mb *messageBusImpl) Register(topic common.LocalMsgType, sub Subscriber) {
	firstClassTopic := topic.Type()
	v, _ := mb.topics.LoadOrStore(firstClassTopic, newTopic())
	v.(Topic).Register(sub)
}

func (mb *messageBusImpl) UnRegister(topic common.LocalMsgType, sub Subscriber) {
	firstClassTopic := topic.Type()
	v, ok := mb.topics.Load(firstClassTopic)
	if !ok {
		return
	}
	v.(Topic).UnRegister(sub)
}

// Publish on a topic nobody registered for is a no-op.
func (mb *messageBusImpl) Publish(source string, topic common.LocalMsgType, msg interface{}) error {
	firstClassTopic := topic.Type()
	v, ok := mb.topics.Load(firstClassTopic)
	if !ok {
		return nil
	}
	return v.(Topic).Publish(&BusMessage{MsgType: topic, Source: source, Msg: msg})
}

func (mb *messageBusImpl) Reset() {
	mb.topics.Range(func(k, _ interface{}) bool {
		mb.topics.Delete(k)
		return true
	})
}

type nopBus struct{}

func (nopBus) Register(common.LocalMsgType, Subscriber) {}
func (nopBus) UnRegister(common.LocalMsgType, Subscriber) {}
func (nopBus) Publish(string, common.LocalMsgType, interface{}) error { return nil }
func (nopBus) Reset() {}

// Nop is a bus that drops everything.
var Nop MessageBus = nopBus{}
