package chain

import "fmt"

// SpecId enumerates the OP Stack protocol upgrades in activation order.
// The zero value is Bedrock, the genesis upgrade every rollup config must
// carry. Later upgrades are strict supersets of earlier ones: once active,
// an upgrade is never undone, so comparing SpecIds is enough to answer any
// "is behavior X enabled" question.
type SpecId uint8

const (
	Bedrock SpecId = iota
	Regolith
	Canyon
	Delta
	Ecotone
	Fjord
	Granite
	Holocene
	Isthmus
)

var specNames = [...]string{
	Bedrock:  "bedrock",
	Regolith: "regolith",
	Canyon:   "canyon",
	Delta:    "delta",
	Ecotone:  "ecotone",
	Fjord:    "fjord",
	Granite:  "granite",
	Holocene: "holocene",
	Isthmus:  "isthmus",
}

func (s SpecId) String() string {
	if int(s) < len(specNames) {
		return specNames[s]
	}
	return fmt.Sprintf("spec(%d)", uint8(s))
}

// IsAtLeast reports whether s includes the behavior activated by other.
func (s SpecId) IsAtLeast(other SpecId) bool {
	return s >= other
}
