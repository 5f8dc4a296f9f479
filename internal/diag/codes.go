package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Name resolution (scope table).
	ResolveInfo        Code = 1000
	ResolveUnboundName Code = 1001
	ResolveShadow      Code = 1002
	ResolveDuplicateFn Code = 1003

	// Ownership, borrow and region checking.
	CheckInfo             Code = 3000
	CheckUseAfterMove     Code = 3001
	CheckBorrowConflict   Code = 3002
	CheckDanglingRef      Code = 3003
	CheckAssignImmutable  Code = 3004
	CheckJoinConflict     Code = 3005
	CheckWriteWhileBorrow Code = 3006

	// Internal guards. Should be unreachable on a monotonic lattice.
	CheckFixedPointDiverged Code = 3900
)

var codeDescription = map[Code]string{
	UnknownCode:             "Unknown error",
	ResolveInfo:             "Name resolution information",
	ResolveUnboundName:      "use of undeclared name",
	ResolveShadow:           "binding shadows an earlier binding with the same name",
	ResolveDuplicateFn:      "duplicate function name",
	CheckInfo:               "Ownership check information",
	CheckUseAfterMove:       "use of moved value",
	CheckBorrowConflict:     "conflicting borrow",
	CheckDanglingRef:        "reference outlives the value it points to",
	CheckAssignImmutable:    "assignment to immutable binding",
	CheckJoinConflict:       "ownership state differs between branches",
	CheckWriteWhileBorrow:   "cannot write while borrowed",
	CheckFixedPointDiverged: "loop analysis failed to converge",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("RES%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("CHK%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
