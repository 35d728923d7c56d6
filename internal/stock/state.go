package stock

type State int

const (
	Unknown State = iota
	InStock
	OutOfStock
	Blocked
)

func (s State) String() string {
	switch s {
	case InStock:
		return "IN_STOCK"
	case OutOfStock:
		return "OUT_OF_STOCK"
	case Blocked:
		return "BLOCKED"
	}
	return "UNKNOWN"
}
