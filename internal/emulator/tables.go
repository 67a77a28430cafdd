package emulator

import (
	"context"
	"fmt"

	"github.com/jwebster45206/questline/pkg/gamemap"
	"github.com/jwebster45206/questline/pkg/grid"
	"github.com/jwebster45206/questline/pkg/warp"
)

// Map-header overlay tables. The loaded map's header is unpacked into
// work RAM on entry, so these addresses always describe the current
// map. Warp entries are 4 bytes (y, x, destination slot, destination
// map), sign entries 2 bytes (y, x).
const (
	addrTileset   = 0xD367
	addrWarpCount = 0xD3AE
	addrWarpData  = 0xD3AF
	addrSignCount = 0xD4B0
	addrSignData  = 0xD4B1

	warpEntrySize = 4
	maxWarps      = 32
	maxSigns      = 16
)

// ReadTileset returns the loaded map's tileset id.
func ReadTileset(ctx context.Context, d Driver) (int, error) {
	v, err := d.ReadByte(ctx, addrTileset)
	if err != nil {
		return 0, fmt.Errorf("failed to read tileset: %w", err)
	}
	return int(v), nil
}

// ReadWarps returns the current map's warp table in map-local
// coordinates. Counts past the table's capacity are clamped: a
// corrupt count byte must not turn into a giant read.
func ReadWarps(ctx context.Context, d Driver) ([]warp.Raw, error) {
	count, err := d.ReadByte(ctx, addrWarpCount)
	if err != nil {
		return nil, fmt.Errorf("failed to read warp count: %w", err)
	}
	n := int(count)
	if n == 0 {
		return nil, nil
	}
	if n > maxWarps {
		n = maxWarps
	}

	data, err := d.ReadBytes(ctx, addrWarpData, n*warpEntrySize)
	if err != nil {
		return nil, fmt.Errorf("failed to read warp table: %w", err)
	}
	out := make([]warp.Raw, 0, n)
	for i := 0; i < n; i++ {
		e := data[i*warpEntrySize : (i+1)*warpEntrySize]
		out = append(out, warp.Raw{
			Y:           int(e[0]),
			X:           int(e[1]),
			TargetIndex: int(e[2]),
			TargetMap:   gamemap.ID(e[3]),
		})
	}
	return out, nil
}

// ReadSigns returns the current map's sign tiles in map-local
// coordinates.
func ReadSigns(ctx context.Context, d Driver) ([]grid.Point, error) {
	count, err := d.ReadByte(ctx, addrSignCount)
	if err != nil {
		return nil, fmt.Errorf("failed to read sign count: %w", err)
	}
	n := int(count)
	if n == 0 {
		return nil, nil
	}
	if n > maxSigns {
		n = maxSigns
	}

	data, err := d.ReadBytes(ctx, addrSignData, n*2)
	if err != nil {
		return nil, fmt.Errorf("failed to read sign table: %w", err)
	}
	out := make([]grid.Point, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, grid.Point{Y: int(data[i*2]), X: int(data[i*2+1])})
	}
	return out, nil
}
