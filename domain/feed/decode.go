// Package feed ingests detection frames from the external vision pipeline and runs
// target selection on them.
package feed

import (
	"errors"
	"fmt"
	"time"

	json "github.com/json-iterator/go"

	"github.com/soocke/cursor-pilot/domain/target"
)

// ErrMalformedFrame marks a line that could not be decoded into a frame.
var ErrMalformedFrame = errors.New("malformed frame")

var api = json.ConfigCompatibleWithStandardLibrary

// wireFrame is one JSON line:
//
//	{"seq":12,"screen":[1920,1080],"objects":[{"class":"person","box":[x1,y1,x2,y2],"distance":2.4,"confidence":0.87}]}
type wireFrame struct {
	Seq     uint64       `json:"seq"`
	Screen  []int        `json:"screen"`
	Objects []wireObject `json:"objects"`
}

type wireObject struct {
	Class      string    `json:"class"`
	Box        []float64 `json:"box"`
	Distance   float64   `json:"distance"`
	Confidence float64   `json:"confidence"`
}

// Frame is one decoded detection cycle. Err is set for malformed input, in which
// case Objects is empty and the frame counts as "no target".
type Frame struct {
	Seq        uint64
	ScreenW    int
	ScreenH    int
	Objects    []target.DetectedObject
	ReceivedAt time.Time
	Err        error
}

// Decode parses one line. Boxes must have exactly four numbers; ordering of the
// bounds is checked later by selection.
func Decode(line []byte) (Frame, error) {
	var wf wireFrame
	if err := api.Unmarshal(line, &wf); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	f := Frame{Seq: wf.Seq}
	if len(wf.Screen) == 2 {
		f.ScreenW, f.ScreenH = wf.Screen[0], wf.Screen[1]
	}
	f.Objects = make([]target.DetectedObject, 0, len(wf.Objects))
	for i, o := range wf.Objects {
		if len(o.Box) != 4 {
			return Frame{Seq: wf.Seq}, fmt.Errorf("%w: object %d box has %d values", ErrMalformedFrame, i, len(o.Box))
		}
		f.Objects = append(f.Objects, target.DetectedObject{
			Class:      target.ClassFromName(o.Class),
			ClassName:  o.Class,
			Box:        target.Rect{MinX: o.Box[0], MinY: o.Box[1], MaxX: o.Box[2], MaxY: o.Box[3]},
			DistanceM:  o.Distance,
			Confidence: o.Confidence,
		})
	}
	return f, nil
}
