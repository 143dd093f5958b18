package types_test

import (
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/itsm-lab/halosync/pkg/domain/types"
)

func TestActionID_Numeric(t *testing.T) {
	tests := []struct {
		name    string
		id      types.ActionID
		want    uint32
		wantErr bool
	}{
		{"plain number", "456", 456, false},
		{"zero", "0", 0, false},
		{"text", "abc", 0, true},
		{"negative", "-1", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := tt.id.Numeric()
			if tt.wantErr {
				gt.Error(t, err)
				return
			}
			gt.NoError(t, err)
			gt.Value(t, n).Equal(tt.want)
		})
	}
}

func TestIDSet(t *testing.T) {
	s := types.NewIDSet("1", "2", "3")
	gt.Number(t, s.Len()).Equal(3)
	gt.Bool(t, s.Has("2")).True()
	gt.Bool(t, s.Has("4")).False()

	other := types.NewIDSet("3", "4")
	s.Union(other)
	gt.Number(t, s.Len()).Equal(4)
	gt.Bool(t, s.Has("4")).True()
}
