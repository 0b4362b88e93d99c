package layout

import (
	"testing"
)

func nuscenesCameras() []Camera {
	// Deliberately out of lexicographic order.
	return []Camera{
		{Name: "CAM_FRONT", InputW: 224, InputH: 126, OrigW: 1600, OrigH: 900},
		{Name: "CAM_BACK", InputW: 224, InputH: 126, OrigW: 1600, OrigH: 900},
		{Name: "CAM_FRONT_LEFT", InputW: 224, InputH: 126, OrigW: 1600, OrigH: 900},
	}
}

func TestBuildSortsByName(t *testing.T) {
	l, err := Build(nuscenesCameras(), 14, true)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	wantOrder := []string{"CAM_BACK", "CAM_FRONT", "CAM_FRONT_LEFT"}
	for i, name := range wantOrder {
		if got := l.CameraAt(i).CamName; got != name {
			t.Errorf("camera %d = %s, want %s", i, got, name)
		}
		if l.CameraAt(i).CamIndex != i {
			t.Errorf("camera %d CamIndex = %d", i, l.CameraAt(i).CamIndex)
		}
	}
}

func TestBuildPatchGeometry(t *testing.T) {
	l, err := Build(nuscenesCameras(), 14, true)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	info, ok := l.Camera("CAM_FRONT")
	if !ok {
		t.Fatal("CAM_FRONT missing")
	}
	// 126/14 = 9 rows, 224/14 = 16 cols.
	if info.PatchRows != 9 || info.PatchCols != 16 || info.NumPatches != 144 {
		t.Errorf("geometry = %dx%d (%d patches)", info.PatchRows, info.PatchCols, info.NumPatches)
	}
	if info.RowScale != 900.0/126.0 || info.ColScale != 1600.0/224.0 {
		t.Errorf("scales = %v, %v", info.RowScale, info.ColScale)
	}
}

func TestBuildClsOffsets(t *testing.T) {
	l, err := Build(nuscenesCameras(), 14, true)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// Each camera: 1 CLS + 144 patches. Sorted order: BACK, FRONT, FRONT_LEFT.
	back := l.CameraAt(0)
	front := l.CameraAt(1)
	frontLeft := l.CameraAt(2)

	if back.StartIdx != 1 {
		t.Errorf("BACK StartIdx = %d, want 1", back.StartIdx)
	}
	if front.StartIdx != 1+144+1 {
		t.Errorf("FRONT StartIdx = %d, want 146", front.StartIdx)
	}
	if frontLeft.StartIdx != 146+144+1 {
		t.Errorf("FRONT_LEFT StartIdx = %d, want 291", frontLeft.StartIdx)
	}
	if l.TokenCount() != 3*(1+144) {
		t.Errorf("TokenCount = %d, want %d", l.TokenCount(), 3*145)
	}
}

func TestBuildNoCLS(t *testing.T) {
	l, err := Build(nuscenesCameras(), 14, false)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if l.CameraAt(0).StartIdx != 0 {
		t.Errorf("first StartIdx = %d, want 0", l.CameraAt(0).StartIdx)
	}
	if l.TokenCount() != 3*144 {
		t.Errorf("TokenCount = %d, want %d", l.TokenCount(), 3*144)
	}
}

func TestBuildContiguityInvariant(t *testing.T) {
	for _, hasCLS := range []bool{true, false} {
		cams := []Camera{
			{Name: "b", InputW: 28, InputH: 28},
			{Name: "a", InputW: 42, InputH: 14},
			{Name: "c", InputW: 14, InputH: 14},
		}
		l, err := Build(cams, 14, hasCLS)
		if err != nil {
			t.Fatalf("Build: %v", err)
		}

		sum := 0
		prevEnd := -1
		for _, info := range l.Cameras() {
			sum += info.NumPatches
			if info.StartIdx <= prevEnd {
				t.Errorf("hasCLS=%v: camera %s range overlaps previous", hasCLS, info.CamName)
			}
			prevEnd = info.StartIdx + info.NumPatches - 1
		}

		want := sum
		if hasCLS {
			want += l.NumCameras()
		}
		if l.TokenCount() != want {
			t.Errorf("hasCLS=%v: TokenCount = %d, want %d", hasCLS, l.TokenCount(), want)
		}
	}
}

func TestCameraForKey(t *testing.T) {
	l, err := Build(nuscenesCameras(), 14, true)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// Index 0 is CAM_BACK's CLS token.
	if got := l.CameraForKey(0); got != nil {
		t.Errorf("CLS token mapped to camera %s", got.CamName)
	}
	if got := l.CameraForKey(1); got == nil || got.CamName != "CAM_BACK" {
		t.Errorf("key 1 camera = %v", got)
	}
	if got := l.CameraForKey(146); got == nil || got.CamName != "CAM_FRONT" {
		t.Errorf("key 146 camera = %v", got)
	}
	if got := l.CameraForKey(l.TokenCount()); got != nil {
		t.Errorf("out-of-range key mapped to camera %s", got.CamName)
	}
}

func TestBuildRejects(t *testing.T) {
	if _, err := Build(nil, 14, true); err == nil {
		t.Error("empty camera list should fail")
	}
	if _, err := Build(nuscenesCameras(), 0, true); err == nil {
		t.Error("zero patch size should fail")
	}
	dup := []Camera{
		{Name: "CAM_FRONT", InputW: 28, InputH: 28},
		{Name: "CAM_FRONT", InputW: 28, InputH: 28},
	}
	if _, err := Build(dup, 14, true); err == nil {
		t.Error("duplicate camera should fail")
	}
	tiny := []Camera{{Name: "CAM_FRONT", InputW: 8, InputH: 28}}
	if _, err := Build(tiny, 14, true); err == nil {
		t.Error("image smaller than patch should fail")
	}
}

func TestScaleDefaultsWithoutOriginals(t *testing.T) {
	cams := []Camera{{Name: "CAM_FRONT", InputW: 28, InputH: 28}}
	l, err := Build(cams, 14, false)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	info := l.CameraAt(0)
	if info.RowScale != 1 || info.ColScale != 1 {
		t.Errorf("scales = %v, %v, want 1, 1", info.RowScale, info.ColScale)
	}
}
