package emulator

import (
	"context"
	"testing"

	"github.com/jwebster45206/questline/pkg/gamemap"
)

func TestReadWarps(t *testing.T) {
	d := NewMockDriver()
	d.SetMemory(addrWarpCount, 2)
	// (y=7, x=3) -> map 40 slot 2; (y=7, x=4) -> map 40 slot 2
	d.SetMemory(addrWarpData,
		7, 3, 2, 40,
		7, 4, 2, 40,
	)

	warps, err := ReadWarps(context.Background(), d)
	if err != nil {
		t.Fatalf("ReadWarps failed: %v", err)
	}
	if len(warps) != 2 {
		t.Fatalf("expected 2 warps, got %d", len(warps))
	}
	if warps[0].X != 3 || warps[0].Y != 7 {
		t.Errorf("expected warp 0 at (3,7), got (%d,%d)", warps[0].X, warps[0].Y)
	}
	if warps[1].TargetMap != gamemap.ID(40) || warps[1].TargetIndex != 2 {
		t.Errorf("unexpected warp 1 target: map %d slot %d", warps[1].TargetMap, warps[1].TargetIndex)
	}
}

func TestReadWarpsEmpty(t *testing.T) {
	d := NewMockDriver()
	warps, err := ReadWarps(context.Background(), d)
	if err != nil {
		t.Fatalf("ReadWarps failed: %v", err)
	}
	if len(warps) != 0 {
		t.Errorf("expected no warps, got %d", len(warps))
	}
}

func TestReadWarpsClampsCorruptCount(t *testing.T) {
	d := NewMockDriver()
	d.SetMemory(addrWarpCount, 0xFF)

	warps, err := ReadWarps(context.Background(), d)
	if err != nil {
		t.Fatalf("ReadWarps failed: %v", err)
	}
	if len(warps) != maxWarps {
		t.Errorf("expected count clamped to %d, got %d", maxWarps, len(warps))
	}
}

func TestReadSigns(t *testing.T) {
	d := NewMockDriver()
	d.SetMemory(addrSignCount, 3)
	d.SetMemory(addrSignData,
		5, 9,
		5, 13,
		11, 2,
	)

	signs, err := ReadSigns(context.Background(), d)
	if err != nil {
		t.Fatalf("ReadSigns failed: %v", err)
	}
	if len(signs) != 3 {
		t.Fatalf("expected 3 signs, got %d", len(signs))
	}
	if signs[0].X != 9 || signs[0].Y != 5 {
		t.Errorf("expected sign 0 at (9,5), got (%d,%d)", signs[0].X, signs[0].Y)
	}
	if signs[2].X != 2 || signs[2].Y != 11 {
		t.Errorf("expected sign 2 at (2,11), got (%d,%d)", signs[2].X, signs[2].Y)
	}
}

func TestReadTileset(t *testing.T) {
	d := NewMockDriver()
	d.SetMemory(addrTileset, 0x0E)

	ts, err := ReadTileset(context.Background(), d)
	if err != nil {
		t.Fatalf("ReadTileset failed: %v", err)
	}
	if ts != 0x0E {
		t.Errorf("expected tileset 14, got %d", ts)
	}
}
