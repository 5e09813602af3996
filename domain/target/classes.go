package target

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownClass is returned when a class token matches neither a name nor an id.
var ErrUnknownClass = errors.New("unknown class")

// ClassID identifies a COCO object class.
type ClassID int

// ClassUnknown marks detections whose class name is not in the table.
const ClassUnknown ClassID = -1

// ClassPerson is the class preferred by LargestPersonPreferred selection.
const ClassPerson ClassID = 0

var classNames = [...]string{
	"person", "bicycle", "car", "motorcycle", "airplane", "bus",
	"train", "truck", "boat", "traffic light", "fire hydrant",
	"stop sign", "parking meter", "bench", "bird", "cat",
	"dog", "horse", "sheep", "cow", "elephant", "bear",
	"zebra", "giraffe", "backpack", "umbrella", "handbag",
	"tie", "suitcase", "frisbee", "skis", "snowboard",
	"sports ball", "kite", "baseball bat", "baseball glove",
	"skateboard", "surfboard", "tennis racket", "bottle",
	"wine glass", "cup", "fork", "knife", "spoon",
	"bowl", "banana", "apple", "sandwich", "orange",
	"broccoli", "carrot", "hot dog", "pizza", "donut",
	"cake", "chair", "couch", "potted plant", "bed",
	"dining table", "toilet", "tv", "laptop", "mouse",
	"remote", "keyboard", "cell phone", "microwave",
	"oven", "toaster", "sink", "refrigerator", "book",
	"clock", "vase", "scissors", "teddy bear", "hair drier",
	"toothbrush",
}

var classByName = func() map[string]ClassID {
	m := make(map[string]ClassID, len(classNames))
	for i, n := range classNames {
		m[n] = ClassID(i)
	}
	return m
}()

// NumClasses is the size of the class table.
const NumClasses = len(classNames)

func (c ClassID) String() string {
	if c < 0 || int(c) >= len(classNames) {
		return "unknown"
	}
	return classNames[c]
}

// Known reports whether c is a table entry.
func (c ClassID) Known() bool { return c >= 0 && int(c) < len(classNames) }

// ClassFromName resolves a class name case-insensitively. Unknown names map to
// ClassUnknown.
func ClassFromName(name string) ClassID {
	if id, ok := classByName[strings.ToLower(strings.TrimSpace(name))]; ok {
		return id
	}
	return ClassUnknown
}

// ParseClass accepts either a class name or a numeric class id.
func ParseClass(token string) (ClassID, error) {
	t := strings.TrimSpace(token)
	if n, err := strconv.Atoi(t); err == nil {
		id := ClassID(n)
		if !id.Known() {
			return ClassUnknown, fmt.Errorf("%w: id %d", ErrUnknownClass, n)
		}
		return id, nil
	}
	id := ClassFromName(t)
	if id == ClassUnknown {
		return ClassUnknown, fmt.Errorf("%w: %q", ErrUnknownClass, token)
	}
	return id, nil
}

// nonIgnored lists the classes tracked by default; everything else starts ignored.
var nonIgnored = map[ClassID]bool{
	0: true, 14: true, 15: true, 16: true, 17: true, 18: true,
	19: true, 20: true, 21: true, 22: true, 23: true, 26: true,
}

// DefaultIgnoredClasses returns the names of classes ignored out of the box.
func DefaultIgnoredClasses() []string {
	out := make([]string, 0, len(classNames)-len(nonIgnored))
	for i, n := range classNames {
		if !nonIgnored[ClassID(i)] {
			out = append(out, n)
		}
	}
	return out
}
