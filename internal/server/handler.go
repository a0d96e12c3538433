package server

import (
	"encoding/binary"

	"github.com/danmuck/modbusctl/internal/protocol"
)

// handlePDU produces the normal-mode response PDU for one request PDU.
// Malformed or out-of-range requests get the matching exception; the
// connection itself stays healthy.
func (s *Server) handlePDU(pdu []byte) []byte {
	fc := pdu[0]
	body := pdu[1:]

	switch fc {
	case protocol.FuncReadCoils:
		return s.respondReadBits(fc, body, s.data.ReadCoils)
	case protocol.FuncReadDiscreteInputs:
		return s.respondReadBits(fc, body, s.data.ReadDiscreteInputs)
	case protocol.FuncReadHoldingRegisters:
		return s.respondReadWords(fc, body, s.data.ReadHoldingRegisters)
	case protocol.FuncReadInputRegisters:
		return s.respondReadWords(fc, body, s.data.ReadInputRegisters)
	case protocol.FuncWriteSingleCoil:
		return s.writeSingleCoil(fc, body)
	case protocol.FuncWriteSingleRegister:
		return s.writeSingleRegister(fc, body)
	case protocol.FuncWriteMultipleCoils:
		return s.writeMultipleCoils(fc, body)
	case protocol.FuncWriteMultipleRegisters:
		return s.writeMultipleRegisters(fc, body)
	default:
		return protocol.ExceptionResponse(fc, protocol.ExcIllegalFunction)
	}
}

func (s *Server) respondReadBits(fc uint8, body []byte, read func(addr, count int) ([]bool, error)) []byte {
	if len(body) != 4 {
		return protocol.ExceptionResponse(fc, protocol.ExcIllegalDataValue)
	}
	addr := int(binary.BigEndian.Uint16(body[0:2]))
	count := int(binary.BigEndian.Uint16(body[2:4]))
	if count < 1 || count > protocol.MaxReadBits {
		return protocol.ExceptionResponse(fc, protocol.ExcIllegalDataValue)
	}
	bits, err := read(addr, count)
	if err != nil {
		return protocol.ExceptionResponse(fc, protocol.ExcIllegalDataAddress)
	}
	packed := protocol.PackBits(bits)
	out := make([]byte, 0, 2+len(packed))
	out = append(out, fc, byte(len(packed)))
	return append(out, packed...)
}

func (s *Server) respondReadWords(fc uint8, body []byte, read func(addr, count int) ([]uint16, error)) []byte {
	if len(body) != 4 {
		return protocol.ExceptionResponse(fc, protocol.ExcIllegalDataValue)
	}
	addr := int(binary.BigEndian.Uint16(body[0:2]))
	count := int(binary.BigEndian.Uint16(body[2:4]))
	if count < 1 || count > protocol.MaxReadRegisters {
		return protocol.ExceptionResponse(fc, protocol.ExcIllegalDataValue)
	}
	words, err := read(addr, count)
	if err != nil {
		return protocol.ExceptionResponse(fc, protocol.ExcIllegalDataAddress)
	}
	out := make([]byte, 2+2*len(words))
	out[0] = fc
	out[1] = byte(2 * len(words))
	for i, w := range words {
		binary.BigEndian.PutUint16(out[2+2*i:], w)
	}
	return out
}

func (s *Server) writeSingleCoil(fc uint8, body []byte) []byte {
	if len(body) != 4 {
		return protocol.ExceptionResponse(fc, protocol.ExcIllegalDataValue)
	}
	addr := int(binary.BigEndian.Uint16(body[0:2]))
	raw := binary.BigEndian.Uint16(body[2:4])
	var value bool
	switch raw {
	case 0xFF00:
		value = true
	case 0x0000:
		value = false
	default:
		return protocol.ExceptionResponse(fc, protocol.ExcIllegalDataValue)
	}
	if err := s.data.WriteCoil(addr, value); err != nil {
		return protocol.ExceptionResponse(fc, protocol.ExcIllegalDataAddress)
	}
	// Response echoes the request.
	out := make([]byte, 0, 5)
	out = append(out, fc)
	return append(out, body...)
}

func (s *Server) writeSingleRegister(fc uint8, body []byte) []byte {
	if len(body) != 4 {
		return protocol.ExceptionResponse(fc, protocol.ExcIllegalDataValue)
	}
	addr := int(binary.BigEndian.Uint16(body[0:2]))
	value := binary.BigEndian.Uint16(body[2:4])
	if err := s.data.WriteHoldingRegister(addr, value); err != nil {
		return protocol.ExceptionResponse(fc, protocol.ExcIllegalDataAddress)
	}
	out := make([]byte, 0, 5)
	out = append(out, fc)
	return append(out, body...)
}

func (s *Server) writeMultipleCoils(fc uint8, body []byte) []byte {
	if len(body) < 5 {
		return protocol.ExceptionResponse(fc, protocol.ExcIllegalDataValue)
	}
	addr := int(binary.BigEndian.Uint16(body[0:2]))
	count := int(binary.BigEndian.Uint16(body[2:4]))
	byteCount := int(body[4])
	data := body[5:]
	if count < 1 || count > protocol.MaxWriteBits ||
		byteCount != (count+7)/8 || len(data) != byteCount {
		return protocol.ExceptionResponse(fc, protocol.ExcIllegalDataValue)
	}
	if err := s.data.WriteCoils(addr, protocol.UnpackBits(data, count)); err != nil {
		return protocol.ExceptionResponse(fc, protocol.ExcIllegalDataAddress)
	}
	out := make([]byte, 5)
	out[0] = fc
	copy(out[1:5], body[0:4])
	return out
}

func (s *Server) writeMultipleRegisters(fc uint8, body []byte) []byte {
	if len(body) < 5 {
		return protocol.ExceptionResponse(fc, protocol.ExcIllegalDataValue)
	}
	addr := int(binary.BigEndian.Uint16(body[0:2]))
	count := int(binary.BigEndian.Uint16(body[2:4]))
	byteCount := int(body[4])
	data := body[5:]
	if count < 1 || count > protocol.MaxWriteRegisters ||
		byteCount != 2*count || len(data) != byteCount {
		return protocol.ExceptionResponse(fc, protocol.ExcIllegalDataValue)
	}
	values := make([]uint16, count)
	for i := range values {
		values[i] = binary.BigEndian.Uint16(data[2*i:])
	}
	if err := s.data.WriteHoldingRegisters(addr, values); err != nil {
		return protocol.ExceptionResponse(fc, protocol.ExcIllegalDataAddress)
	}
	out := make([]byte, 5)
	out[0] = fc
	copy(out[1:5], body[0:4])
	return out
}
