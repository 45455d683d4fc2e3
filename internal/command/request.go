package command

import (
	"fmt"
	"math"

	"github.com/giantswarm/perslc/internal/nsm"
	"github.com/giantswarm/perslc/internal/sentinel"
)

// ErrKindOutOfRange is returned by Encode when the request kind does not fit
// into the 16 bits reserved for it.
const ErrKindOutOfRange = sentinel.Error("request kind does not fit command word")

// ErrStatusOutOfRange is returned by Encode when the status does not fit into
// a signed 16-bit field.
const ErrStatusOutOfRange = sentinel.Error("request status does not fit command word")

const (
	kindShift   = 0
	statusShift = 16
	idShift     = 32
	fieldMask   = 0xffff
)

// Request is a shutdown request accepted by the handler. It is passed by
// value and never modified after construction.
type Request struct {
	Kind      nsm.ShutdownType
	RequestID uint32
	Status    nsm.ErrorStatus
}

// String formats the request for logs.
func (r Request) String() string {
	return fmt.Sprintf("%s/%d/%s", r.Kind, r.RequestID, r.Status)
}

// Encode packs r into a command word.
func Encode(r Request) (uint64, error) {
	if uint32(r.Kind) > fieldMask {
		return 0, fmt.Errorf("encode %s: %w", r, ErrKindOutOfRange)
	}
	if r.Status < math.MinInt16 || r.Status > math.MaxInt16 {
		return 0, fmt.Errorf("encode %s: %w", r, ErrStatusOutOfRange)
	}
	status := uint64(uint16(int16(r.Status))) //nolint:gosec // range checked above
	return uint64(r.RequestID)<<idShift |
		status<<statusShift |
		uint64(r.Kind)<<kindShift, nil
}

// Decode unpacks a command word produced by Encode.
func Decode(word uint64) Request {
	return Request{
		Kind:      nsm.ShutdownType((word >> kindShift) & fieldMask),
		Status:    nsm.ErrorStatus(int16(uint16((word >> statusShift) & fieldMask))), //nolint:gosec // 16-bit field
		RequestID: uint32(word >> idShift),                                          //nolint:gosec // upper 32 bits
	}
}
