package msgbus

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnkit/common"
)

type recorder struct {
	name string
	log  *[]string
	err  error
}

func (r *recorder) HandleMsgFromMsgBus(msg *BusMessage) error {
	*r.log = append(*r.log, r.name)
	return r.err
}

func TestPublishInOrder(t *testing.T) {
	var seen []string
	bus := NewMessageBus()
	a := &recorder{name: "a", log: &seen}
	b := &recorder{name: "b", log: &seen}
	bus.Register(common.LocalTrainMsg, a)
	bus.Register(common.LocalTrainMsg_Epoch, b)
	bus.Register(common.LocalTrainMsg, a)

	require.NoError(t, bus.Publish("test", common.LocalTrainMsg_Converged, nil))
	assert.Equal(t, []string{"a", "b"}, seen)

	require.NoError(t, bus.Publish("test", common.LocalEvalMsg_Accuracy, nil))
	assert.Len(t, seen, 2, "no subscriber on eval topic")
}

func TestPublishCarriesMessage(t *testing.T) {
	bus := NewMessageBus()
	var got *BusMessage
	bus.Register(common.LocalEvalMsg, SubscriberFunc(func(msg *BusMessage) error {
		got = msg
		return nil
	}))

	rep := common.AccuracyReport{Model: "bp", Correct: 3, Total: 4, Accuracy: 0.75}
	require.NoError(t, bus.Publish("bp", common.LocalEvalMsg_Accuracy, rep))
	require.NotNil(t, got)
	assert.Equal(t, common.LocalEvalMsg_Accuracy, got.MsgType)
	assert.Equal(t, "bp", got.Source)
	assert.Equal(t, rep, got.Msg)
}

func TestPublishReturnsFirstError(t *testing.T) {
	var seen []string
	bus := NewMessageBus()
	boom := errors.New("boom")
	bus.Register(common.LocalTrainMsg, &recorder{name: "a", log: &seen, err: boom})
	bus.Register(common.LocalTrainMsg, &recorder{name: "b", log: &seen, err: errors.New("later")})

	err := bus.Publish("test", common.LocalTrainMsg_Epoch, nil)
	assert.Equal(t, boom, err)
	assert.Equal(t, []string{"a", "b"}, seen)
}

func TestUnRegisterAndReset(t *testing.T) {
	var seen []string
	bus := NewMessageBus()
	a := &recorder{name: "a", log: &seen}
	b := &recorder{name: "b", log: &seen}
	bus.Register(common.LocalTrainMsg, a)
	bus.Register(common.LocalTrainMsg, b)
	bus.UnRegister(common.LocalTrainMsg, a)
	bus.UnRegister(common.LocalEvalMsg, a)

	require.NoError(t, bus.Publish("test", common.LocalTrainMsg_Epoch, nil))
	assert.Equal(t, []string{"b"}, seen)

	bus.Reset()
	require.NoError(t, bus.Publish("test", common.LocalTrainMsg_Epoch, nil))
	assert.Equal(t, []string{"b"}, seen)
}

func TestFuncSubscribersAreNotDeduplicated(t *testing.T) {
	n := 0
	f := SubscriberFunc(func(*BusMessage) error { n++; return nil })
	bus := NewMessageBus()
	bus.Register(common.LocalTrainMsg, f)
	bus.Register(common.LocalTrainMsg, f)
	require.NoError(t, bus.Publish("test", common.LocalTrainMsg_Epoch, nil))
	assert.Equal(t, 2, n)

	bus.UnRegister(common.LocalTrainMsg, f)
	require.NoError(t, bus.Publish("test", common.LocalTrainMsg_Epoch, nil))
	assert.Equal(t, 4, n, "func subscribers cannot be unregistered")
}

func TestNop(t *testing.T) {
	var seen []string
	Nop.Register(common.LocalTrainMsg, &recorder{name: "a", log: &seen})
	assert.NoError(t, Nop.Publish("test", common.LocalTrainMsg_Epoch, nil))
	assert.Empty(t, seen)
}
