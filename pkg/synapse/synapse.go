package synapse

import (
	"encoding/json"
	"time"

	"github.com/Robogera/crowd/pkg/object"
)

// Envelope published for every processed frame
type Command struct {
	Id        uint64   `json:"id"`
	Sender    string   `json:"sender"`
	Type      string   `json:"type"`
	Initiator string   `json:"initiator"`
	Subject   string   `json:"subject"`
	Message   *Message `json:"message"`
}

type Message struct {
	Frame     uint64          `json:"frame"`
	Timestamp time.Time       `json:"timestamp"`
	Tracks    []ExportedTrack `json:"tracks"`
}

type ExportedTrack struct {
	Id         uint64     `json:"id"`
	State      string     `json:"state"`
	Class      int        `json:"class"`
	Confidence float64    `json:"confidence"`
	Box        [4]float64 `json:"box"`
	Predicted  bool       `json:"predicted,omitempty"`
}

func Export(tracked []object.Tracked) []ExportedTrack {
	out := make([]ExportedTrack, 0, len(tracked))
	for _, t := range tracked {
		out = append(out, ExportedTrack{
			Id:         t.ID,
			State:      t.State.String(),
			Class:      t.Class,
			Confidence: t.Confidence,
			Box:        [4]float64{t.Box.X1, t.Box.Y1, t.Box.X2, t.Box.Y2},
			Predicted:  t.Predicted,
		})
	}
	return out
}

// run_id ties messages of one process together
func NewTracksCommand(run_id string, frame uint64, t time.Time, tracked []object.Tracked) *Command {
	return &Command{
		Id:        frame,
		Sender:    run_id,
		Type:      "tracks",
		Initiator: "tracker",
		Subject:   "frame",
		Message: &Message{
			Frame:     frame,
			Timestamp: t,
			Tracks:    Export(tracked),
		},
	}
}

func (c *Command) ToPayload() ([]byte, error) {
	return json.Marshal(c)
}
