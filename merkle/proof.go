package merkle

import (
	"strings"

	"github.com/spacemeshos/loquat/hashing"
)

// Step is one level of an inclusion proof.
type Step struct {
	Sibling hashing.Digest
	// Left is set when the sibling is the left child, i.e. the path node is the right one.
	Left bool
}

// Proof is the ordered sibling path from a leaf to the root.
type Proof struct {
	Steps []Step
}

func (p Proof) Len() int {
	return len(p.Steps)
}

// Clone returns a deep copy of the proof.
func (p Proof) Clone() Proof {
	if p.Steps == nil {
		return Proof{}
	}
	steps := make([]Step, len(p.Steps))
	copy(steps, p.Steps)
	return Proof{Steps: steps}
}

func (p Proof) String() string {
	var sb strings.Builder
	for i, s := range p.Steps {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if s.Left {
			sb.WriteString("L:")
		} else {
			sb.WriteString("R:")
		}
		sb.WriteString(s.Sibling.String()[:4])
	}
	return sb.String()
}
