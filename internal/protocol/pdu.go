package protocol

// Function codes served by the simulation server.
const (
	FuncReadCoils              uint8 = 0x01
	FuncReadDiscreteInputs     uint8 = 0x02
	FuncReadHoldingRegisters   uint8 = 0x03
	FuncReadInputRegisters     uint8 = 0x04
	FuncWriteSingleCoil        uint8 = 0x05
	FuncWriteSingleRegister    uint8 = 0x06
	FuncWriteMultipleCoils     uint8 = 0x0F
	FuncWriteMultipleRegisters uint8 = 0x10
)

// ExceptionBit is OR-ed into the function code of an exception response.
const ExceptionBit uint8 = 0x80

type ExceptionCode uint8

const (
	ExcIllegalFunction    ExceptionCode = 0x01
	ExcIllegalDataAddress ExceptionCode = 0x02
	ExcIllegalDataValue   ExceptionCode = 0x03
	ExcServerFailure      ExceptionCode = 0x04
	ExcAcknowledge        ExceptionCode = 0x05
	ExcServerBusy         ExceptionCode = 0x06
)

// ExceptionResponse builds the two-byte exception PDU for a request
// function code.
func ExceptionResponse(function uint8, code ExceptionCode) []byte {
	return []byte{function | ExceptionBit, byte(code)}
}

// IsException reports whether a response PDU carries an exception.
func IsException(pdu []byte) bool {
	return len(pdu) >= 1 && pdu[0]&ExceptionBit != 0
}

// Quantity limits per function class, from the Modbus application spec.
const (
	MaxReadBits       = 2000
	MaxReadRegisters  = 125
	MaxWriteBits      = 1968
	MaxWriteRegisters = 123
)

// PackBits packs coil/discrete values LSB-first into response bytes.
func PackBits(bits []bool) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, b := range bits {
		if b {
			out[i/8] |= 1 << (uint(i) % 8)
		}
	}
	return out
}

// UnpackBits expands packed request bytes into count coil values.
func UnpackBits(data []byte, count int) []bool {
	out := make([]bool, count)
	for i := range out {
		if i/8 < len(data) && data[i/8]&(1<<(uint(i)%8)) != 0 {
			out[i] = true
		}
	}
	return out
}
