package cellwatchv1

import (
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"
)

// Field names shared by every CellController response.
const (
	FieldConveyorRun  = "conveyor_run"
	FieldEmergencyOK  = "emergency_ok"
	FieldQualityScore = "quality_score"
	FieldCompromised  = "compromised"
	FieldOrderID      = "order_id"
	FieldOversized    = "oversized"
	FieldApplied      = "applied"
	FieldIgnored      = "ignored"
	FieldLength       = "length"
)

// State is the wire view of the controller flags.
type State struct {
	ConveyorRun  bool
	EmergencyOK  bool
	QualityScore int
	Compromised  bool
}

// Fields returns the state as Struct fields.
func (s State) Fields() map[string]*structpb.Value {
	return map[string]*structpb.Value{
		FieldConveyorRun:  structpb.NewBoolValue(s.ConveyorRun),
		FieldEmergencyOK:  structpb.NewBoolValue(s.EmergencyOK),
		FieldQualityScore: structpb.NewNumberValue(float64(s.QualityScore)),
		FieldCompromised:  structpb.NewBoolValue(s.Compromised),
	}
}

// StateFromStruct reads the state fields of a response.
func StateFromStruct(st *structpb.Struct) (State, error) {
	if st == nil {
		return State{}, fmt.Errorf("cellwatch: empty response")
	}
	f := st.GetFields()
	for _, k := range []string{FieldConveyorRun, FieldEmergencyOK, FieldQualityScore, FieldCompromised} {
		if _, ok := f[k]; !ok {
			return State{}, fmt.Errorf("cellwatch: response missing %q", k)
		}
	}
	q := f[FieldQualityScore].GetNumberValue()
	if q < 0 || q > 100 {
		return State{}, fmt.Errorf("cellwatch: quality_score %v out of range", q)
	}
	return State{
		ConveyorRun:  f[FieldConveyorRun].GetBoolValue(),
		EmergencyOK:  f[FieldEmergencyOK].GetBoolValue(),
		QualityScore: int(q),
		Compromised:  f[FieldCompromised].GetBoolValue(),
	}, nil
}
