package zipp

import (
	"archive/zip"

	"github.com/nguyengg/zipp/message"
)

// Action is either ActionAdd or ActionUpdate.
type Action int

const (
	// ActionAdd means the entry did not exist in the archive.
	ActionAdd Action = iota
	// ActionUpdate means an existing entry was replaced.
	ActionUpdate
)

func (a Action) String() string {
	if a == ActionUpdate {
		return "update"
	}
	return "add"
}

// Kind classifies the compression method of an entry.
type Kind int

const (
	// KindStored is method 0.
	KindStored Kind = iota
	// KindCompressed is any method from 1 to 7 (shrink, reduce, implode).
	KindCompressed
	// KindDeflated is method 8 and above.
	KindDeflated
)

// KindOf classifies a ZIP compression method identifier.
func KindOf(method uint16) Kind {
	switch {
	case method == zip.Store:
		return KindStored
	case method < zip.Deflate:
		return KindCompressed
	default:
		return KindDeflated
	}
}

func (k Kind) String() string {
	return message.Default.Lookup(k.key())
}

func (k Kind) key() message.Key {
	switch k {
	case KindStored:
		return message.Stored
	case KindCompressed:
		return message.Compressed
	default:
		return message.Deflated
	}
}

// Outcome is the result of adding one file to the archive.
//
// If Err is non-nil, the file could not be added and only Source, Name, and Action are meaningful.
type Outcome struct {
	// Source is the path of the file being added.
	Source string
	// Name is the name of the entry in the archive.
	Name   string
	Action Action

	Size           uint64
	CompressedSize uint64
	Method         uint16
	Kind           Kind
	// Ratio is the space saving in percent, (Size - CompressedSize) / Size * 100; 0 for empty files.
	Ratio float64

	Err error
}

// Ratio computes the space saving in percent.
//
// Returns 0 if size is 0. A negative value means the entry is bigger than its source.
func Ratio(size, compressedSize uint64) float64 {
	if size == 0 {
		return 0
	}

	return (float64(size) - float64(compressedSize)) * 100.0 / float64(size)
}
