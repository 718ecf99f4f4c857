package sweep

import (
	"reflect"
	"testing"
)

func TestUnreferenced(t *testing.T) {
	tests := []struct {
		name       string
		candidates []int
		refs       []int
		want       []int
	}{
		{
			name:       "nothing referenced",
			candidates: []int{3, 1, 2},
			want:       []int{1, 2, 3},
		},
		{
			name:       "some referenced",
			candidates: []int{1, 2, 3, 4},
			refs:       []int{2, 4, 4},
			want:       []int{1, 3},
		},
		{
			name:       "references outside candidate set are ignored",
			candidates: []int{1},
			refs:       []int{7, 8},
			want:       []int{1},
		},
		{
			name:       "all referenced",
			candidates: []int{1, 2},
			refs:       []int{1, 2},
			want:       nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Unreferenced(tt.candidates, func(keep func(int)) {
				for _, r := range tt.refs {
					keep(r)
				}
			}, func(a, b int) bool { return a < b })

			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Unreferenced() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKeys(t *testing.T) {
	m := map[string]int{"a": 1, "b": 2}
	keys := Keys(m)
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(keys))
	}
}
