package pipeline

// State tracks a transpile run through its fixed pass order. Transitions
// only ever move forward; optional passes are skipped, never reordered.
type State uint8

const (
	StateParsed State = iota
	StateTypesStripped
	StateJsxTransformed
	StateImportsProcessed
	StateDownleveled
	StateModuleConverted
	StateEmitted
)

func (s State) String() string {
	switch s {
	case StateParsed:
		return "parsed"
	case StateTypesStripped:
		return "types-stripped"
	case StateJsxTransformed:
		return "jsx-transformed"
	case StateImportsProcessed:
		return "imports-processed"
	case StateDownleveled:
		return "downleveled"
	case StateModuleConverted:
		return "module-converted"
	case StateEmitted:
		return "emitted"
	}
	return "unknown"
}
