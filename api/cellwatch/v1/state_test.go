package cellwatchv1

import (
	"testing"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestStateSurvivesWireEncoding(t *testing.T) {
	want := State{ConveyorRun: true, QualityScore: 87, Compromised: true}
	data, err := proto.Marshal(&structpb.Struct{Fields: want.Fields()})
	if err != nil {
		t.Fatal(err)
	}
	var st structpb.Struct
	if err := proto.Unmarshal(data, &st); err != nil {
		t.Fatal(err)
	}
	got, err := StateFromStruct(&st)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestStateFromStructRejectsIncomplete(t *testing.T) {
	if _, err := StateFromStruct(nil); err == nil {
		t.Error("expected error for nil struct")
	}
	partial := &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldConveyorRun: structpb.NewBoolValue(true),
	}}
	if _, err := StateFromStruct(partial); err == nil {
		t.Error("expected error for missing fields")
	}
	bad := &structpb.Struct{Fields: State{}.Fields()}
	bad.Fields[FieldQualityScore] = structpb.NewNumberValue(250)
	if _, err := StateFromStruct(bad); err == nil {
		t.Error("expected error for out-of-range quality")
	}
}
