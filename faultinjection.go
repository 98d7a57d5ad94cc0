package pyv

// FaultKind selects how a fault-injection event corrupts the targeted
// instruction bits.
type FaultKind int

const (
	FaultFlip FaultKind = iota
	FaultSet
	FaultClear
)

func (k FaultKind) String() string {
	switch k {
	case FaultFlip:
		return "flip"
	case FaultSet:
		return "set"
	case FaultClear:
		return "clear"
	default:
		return "unknown"
	}
}

// FIParams describes a single fault-injection event: at Cycle, flip
// (or set, or clear) NumBits bits of the instruction IDStage is about to
// decode, starting at BitIndex.
type FIParams struct {
	Cycle    int
	BitIndex int
	NumBits  int
	Kind     FaultKind
}

// Outcome classifies how a run ended, for tallying fault-injection
// campaigns the way the reference tooling buckets (cycle, bit, kind)
// triples into named results.
type Outcome string

const (
	OutcomeOK                    Outcome = "ok"
	OutcomeTargetMeet            Outcome = "target_meet"
	OutcomeNoEffect              Outcome = "no_effect"
	OutcomeIllegalInstruction    Outcome = "illegal_instruction"
	OutcomePCOutOfBound          Outcome = "pc_out_of_bound"
	OutcomeInstructionMisaligned Outcome = "instruction_address_misaligned"
	OutcomeSegmentationFault     Outcome = "segmentation_fault"
	OutcomeInvalidWidth          Outcome = "invalid_width"
	OutcomeFunctioningViolation  Outcome = "functioning_violation"
)

// ClassifyOutcome maps an error returned by Core.Run into the named
// outcome taxonomy. A nil error (the run completed its cycle budget
// without raising) classifies as OutcomeOK; callers comparing against a
// golden result should prefer ClassifyResult, which further splits a
// clean run into target_meet/no_effect.
func ClassifyOutcome(err error) Outcome {
	switch err.(type) {
	case nil:
		return OutcomeOK
	case IllegalInstructionError:
		return OutcomeIllegalInstruction
	case PCOutOfBoundError:
		return OutcomePCOutOfBound
	case InstructionAddressMisalignedError:
		return OutcomeInstructionMisaligned
	case SegmentationFaultError:
		return OutcomeSegmentationFault
	case InvalidWidthError:
		return OutcomeInvalidWidth
	default:
		return OutcomeFunctioningViolation
	}
}

// ClassifyResult maps a completed fault-injection trial into the full
// eight-way taxonomy: an exception selects one of the six failure
// buckets via ClassifyOutcome (InvalidWidthError has its own
// invalid_width bucket), while a clean run is split
// by whether the observed memory result differs from the golden
// expectation (target_meet) or matches it (no_effect).
func ClassifyResult(err error, resultDiffers bool) Outcome {
	if err == nil {
		if resultDiffers {
			return OutcomeTargetMeet
		}
		return OutcomeNoEffect
	}
	return ClassifyOutcome(err)
}
