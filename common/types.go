package common

type LocalMsgType uint32

func (lt *LocalMsgType) Type() LocalMsgType {
	return (*lt) & (0xff00)
}

func (lt *LocalMsgType) SubType() LocalMsgType {
	return (*lt) & (0x00ff)
}

// |--type--|-subtype-|
// 0000 0000 0000 0000
const (
	LocalNoUseType           LocalMsgType = 0
	LocalTrainMsg            LocalMsgType = 1 << 8
	LocalTrainMsg_Epoch      LocalMsgType = LocalTrainMsg | 1
	LocalTrainMsg_Converged  LocalMsgType = LocalTrainMsg | 2
	LocalTrainMsg_NoConverge LocalMsgType = LocalTrainMsg | 3
	LocalEvalMsg             LocalMsgType = 2 << 8
	LocalEvalMsg_Accuracy    LocalMsgType = LocalEvalMsg | 1
)

// EpochReport is published on LocalTrainMsg topics after every epoch and once more when
// training stops.
type EpochReport struct {
	Model   string
	Epoch   int
	Updates int     // perceptron: misclassified examples this epoch
	Loss    float64 // bp: accumulated squared error; perceptron: Updates
}

// AccuracyReport is published on LocalEvalMsg_Accuracy after an evaluation.
type AccuracyReport struct {
	Model    string
	Correct  int
	Total    int
	Accuracy float64
}
