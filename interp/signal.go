package interp

// signalKind says how a statement finished.
type signalKind int

const (
	sigNormal signalKind = iota
	sigBreak
	sigReturn
)

// signal is the non-error outcome of executing a statement. A break
// unwinds to the nearest while; a return unwinds to the nearest call and
// carries the returned value. Neither is ever reported as an error.
type signal struct {
	kind  signalKind
	value Value
}

var normal = signal{kind: sigNormal}

func (s signal) String() string {
	switch s.kind {
	case sigBreak:
		return "break"
	case sigReturn:
		return "return"
	default:
		return "normal"
	}
}
