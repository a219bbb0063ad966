package facematch

import "testing"

func TestRegionFromBBox(t *testing.T) {
	tests := []struct {
		name    string
		bbox    []float64
		want    Region
		wantErr bool
	}{
		{
			name: "whole pixels",
			bbox: []float64{10, 20, 110, 170},
			want: Region{Top: 20, Right: 110, Bottom: 170, Left: 10},
		},
		{
			name: "rounded",
			bbox: []float64{10.4, 19.6, 110.5, 169.2},
			want: Region{Top: 20, Right: 111, Bottom: 169, Left: 10},
		},
		{
			name:    "too short",
			bbox:    []float64{0, 0, 10},
			wantErr: true,
		},
		{
			name:    "empty",
			bbox:    nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RegionFromBBox(tt.bbox)
			if (err != nil) != tt.wantErr {
				t.Fatalf("RegionFromBBox() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("RegionFromBBox() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRegionSize(t *testing.T) {
	r := Region{Top: 20, Right: 110, Bottom: 170, Left: 10}
	if r.Width() != 100 {
		t.Errorf("Width() = %d, want 100", r.Width())
	}
	if r.Height() != 150 {
		t.Errorf("Height() = %d, want 150", r.Height())
	}
}

func TestRegionString(t *testing.T) {
	tests := []struct {
		name   string
		region Region
		want   string
	}{
		{"face", Region{Top: 20, Right: 110, Bottom: 170, Left: 10}, "top=20 right=110 bottom=170 left=10 (100x150)"},
		{"empty", Region{}, "top=0 right=0 bottom=0 left=0 (0x0)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.region.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}
