package opportunity

import "github.com/apolice/crm/pkg/serrors"

// ErrStageGateBlocked signals that the opportunity still has open
// checklist activities on the stage it is trying to leave.
var ErrStageGateBlocked = serrors.NewError(
	"CRM_STAGE_GATE",
	"complete the current stage activities before moving",
	"",
)

// GateBlocked builds the user-facing rejection naming the stage the
// move was aimed at.
func GateBlocked(targetStage string) *serrors.BaseError {
	return ErrStageGateBlocked.WithTemplateData(map[string]string{
		"target_stage": targetStage,
	})
}

// CanLeaveStage reports whether every activity scoped to currentStage
// is completed. An empty checklist is no gate: it returns true.
func CanLeaveStage(activities []Activity, currentStage string) bool {
	for _, a := range activities {
		if a.Stage == currentStage && !a.Completed {
			return false
		}
	}
	return true
}
