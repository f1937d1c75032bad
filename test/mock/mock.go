package mock

import (
	"fmt"
	"sync"

	"learnkit/common"
	"learnkit/core/msgbus"
)

// MockLog records log lines instead of writing them.
type MockLog struct {
	Name  string
	mutex sync.Mutex
	lines []string
}

func (l *MockLog) record(level, msg string) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.lines = append(l.lines, "["+level+"] "+msg)
}

func (l *MockLog) Debug(args ...interface{}) {
	l.record("DEBUG", fmt.Sprint(args...))
}
func (l *MockLog) Debugf(format string, args ...interface{}) {
	l.record("DEBUG", fmt.Sprintf(format, args...))
}

func (l *MockLog) Info(args ...interface{}) {
	l.record("INFO", fmt.Sprint(args...))
}

func (l *MockLog) Infof(format string, args ...interface{}) {
	l.record("INFO", fmt.Sprintf(format, args...))
}

func (l *MockLog) Warn(args ...interface{}) {
	l.record("WARN", fmt.Sprint(args...))
}

func (l *MockLog) Warnf(format string, args ...interface{}) {
	l.record("WARN", fmt.Sprintf(format, args...))
}

func (l *MockLog) Error(args ...interface{}) {
	l.record("ERROR", fmt.Sprint(args...))
}

func (l *MockLog) Errorf(format string, args ...interface{}) {
	l.record("ERROR", fmt.Sprintf(format, args...))
}

// Lines returns everything logged so far.
func (l *MockLog) Lines() []string {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return append([]string(nil), l.lines...)
}

func GetMockLogger(name string) *MockLog {
	return &MockLog{Name: name}
}

var _ common.Logger = (*MockLog)(nil)

// Recorder is a bus subscriber that keeps every message it sees.
type Recorder struct {
	mutex    sync.Mutex
	Messages []*msgbus.BusMessage
	Err      error // returned from every HandleMsgFromMsgBus call
}

func (r *Recorder) HandleMsgFromMsgBus(msg *msgbus.BusMessage) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.Messages = append(r.Messages, msg)
	return r.Err
}

// Epochs returns the reports published on t, in order.
func (r *Recorder) Epochs(t common.LocalMsgType) []common.EpochReport {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	var out []common.EpochReport
	for _, m := range r.Messages {
		if rep, ok := m.Msg.(common.EpochReport); ok && m.MsgType == t {
			out = append(out, rep)
		}
	}
	return out
}

// NewRecordingBus returns a bus with rec registered on every topic.
func NewRecordingBus(rec *Recorder) msgbus.MessageBus {
	bus := msgbus.NewMessageBus()
	bus.Register(common.LocalTrainMsg, rec)
	bus.Register(common.LocalEvalMsg, rec)
	return bus
}
