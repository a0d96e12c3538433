// Package protocol implements the Modbus TCP wire format: MBAP framing
// and the PDU helpers the server needs to answer (or corrupt) requests.
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	// HeaderLen is the fixed MBAP header size in bytes.
	HeaderLen = 7

	// TCPProtocolID is the only protocol identifier defined for Modbus TCP.
	TCPProtocolID uint16 = 0

	// MaxPDULen bounds a PDU per the Modbus spec (253 bytes + unit ID = 254).
	MaxPDULen = 253
)

var (
	ErrShortHeader       = errors.New("protocol: short MBAP header")
	ErrInvalidProtocolID = errors.New("protocol: invalid MBAP protocol identifier")
	ErrLengthRange       = errors.New("protocol: MBAP length out of range")
	ErrTruncatedPDU      = errors.New("protocol: truncated PDU")
	ErrPDUTooLarge       = errors.New("protocol: PDU too large")
	ErrEmptyPDU          = errors.New("protocol: empty PDU")
)

// Header is the MBAP header. Length covers the unit ID plus the PDU.
type Header struct {
	TransactionID uint16
	ProtocolID    uint16
	Length        uint16
	UnitID        uint8
}

// ADU is one complete Modbus TCP application data unit.
type ADU struct {
	Header Header
	PDU    []byte
}

// FunctionCode returns the PDU function code, or 0 for an empty PDU.
func (a ADU) FunctionCode() uint8 {
	if len(a.PDU) == 0 {
		return 0
	}
	return a.PDU[0]
}

func ReadADU(r io.Reader) (ADU, error) {
	var fixed [HeaderLen]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return ADU{}, ErrShortHeader
		}
		return ADU{}, err
	}

	h := DecodeHeader(fixed[:])
	if h.ProtocolID != TCPProtocolID {
		return ADU{}, fmt.Errorf("%w: %d", ErrInvalidProtocolID, h.ProtocolID)
	}
	if h.Length < 2 || h.Length > MaxPDULen+1 {
		return ADU{}, fmt.Errorf("%w: %d", ErrLengthRange, h.Length)
	}

	pdu := make([]byte, h.Length-1)
	if _, err := io.ReadFull(r, pdu); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return ADU{}, ErrTruncatedPDU
		}
		return ADU{}, err
	}

	return ADU{Header: h, PDU: pdu}, nil
}

func WriteADU(w io.Writer, a ADU) error {
	if len(a.PDU) == 0 {
		return ErrEmptyPDU
	}
	if len(a.PDU) > MaxPDULen {
		return fmt.Errorf("%w: %d", ErrPDUTooLarge, len(a.PDU))
	}

	h := a.Header
	h.ProtocolID = TCPProtocolID
	h.Length = uint16(len(a.PDU) + 1)

	buf := make([]byte, 0, HeaderLen+len(a.PDU))
	buf = append(buf, EncodeHeader(h)...)
	buf = append(buf, a.PDU...)
	_, err := w.Write(buf)
	return err
}

func EncodeHeader(h Header) []byte {
	buf := make([]byte, HeaderLen)
	binary.BigEndian.PutUint16(buf[0:2], h.TransactionID)
	binary.BigEndian.PutUint16(buf[2:4], h.ProtocolID)
	binary.BigEndian.PutUint16(buf[4:6], h.Length)
	buf[6] = h.UnitID
	return buf
}

func DecodeHeader(b []byte) Header {
	return Header{
		TransactionID: binary.BigEndian.Uint16(b[0:2]),
		ProtocolID:    binary.BigEndian.Uint16(b[2:4]),
		Length:        binary.BigEndian.Uint16(b[4:6]),
		UnitID:        b[6],
	}
}
