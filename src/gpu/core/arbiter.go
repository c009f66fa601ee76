package core

// suppressedReg is the architectural index whose writes are dropped. The
// register is not forced to read zero; it simply never receives writes.
const suppressedReg = 15

// WritebackArbiter selects exactly one register write per cycle. Priority
// order: a completed load first, a tensor-engine done second, the
// registered ALU result last. A load and a tensor completion landing on
// the same cycle therefore never collide silently - the load wins and
// that cycle's tensor result is dropped, which is the inherited design
// behavior.
type WritebackArbiter struct{}

// Select picks the winning port and applies the register-15 write
// suppression. The returned port is what actually commits.
func (WritebackArbiter) Select(load, tensor, alu WritebackPort) WritebackPort {
	var port WritebackPort
	switch {
	case load.Valid:
		port = load
	case tensor.Valid:
		port = tensor
	case alu.Valid:
		port = alu
	}

	if port.Valid && port.Rd == suppressedReg {
		port.Valid = false
	}
	return port
}
