package opportunity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/apolice/crm/pkg/serrors"
)

func TestCanLeaveStage_EmptyChecklist(t *testing.T) {
	require.True(t, CanLeaveStage(nil, "Lead"))
	require.True(t, CanLeaveStage([]Activity{}, "Lead"))
}

func TestCanLeaveStage_OpenActivityBlocks(t *testing.T) {
	activities := []Activity{
		{Stage: "Lead", Completed: false},
	}
	require.False(t, CanLeaveStage(activities, "Lead"))
}

func TestCanLeaveStage_OtherStageActivitiesIgnored(t *testing.T) {
	activities := []Activity{
		{Stage: "Proposta", Completed: false},
		{Stage: "Lead", Completed: true},
	}
	require.True(t, CanLeaveStage(activities, "Lead"))
}

func TestCanLeaveStage_AllCompleted(t *testing.T) {
	activities := []Activity{
		{Stage: "Lead", Completed: true},
		{Stage: "Lead", Completed: true},
	}
	require.True(t, CanLeaveStage(activities, "Lead"))
}

func TestGateBlocked_CarriesTargetStage(t *testing.T) {
	err := GateBlocked("Proposta")
	require.True(t, errors.Is(err, ErrStageGateBlocked))
	require.Equal(t, "Proposta", err.TemplateData["target_stage"])

	var base *serrors.BaseError
	require.True(t, errors.As(error(err), &base))
	require.Equal(t, "CRM_STAGE_GATE", base.Code)
}
