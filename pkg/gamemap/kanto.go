package gamemap

// Well-known map ids for the supported region. Values match the game's
// own map constants so snapshots read straight from memory line up.
const (
	PalletTown     ID = 0
	ViridianCity   ID = 1
	PewterCity     ID = 2
	CeruleanCity   ID = 3
	Route1         ID = 12
	Route2         ID = 13
	Route3         ID = 14
	Route4         ID = 15
	Route22        ID = 33
	RedsHouse1F    ID = 37
	RedsHouse2F    ID = 38
	BluesHouse     ID = 39
	OaksLab        ID = 40
	ViridianCenter ID = 41
	ViridianMart   ID = 42
	ViridianGym    ID = 45
	ForestGateN    ID = 47
	Route2Gate     ID = 49
	ForestGateS    ID = 50
	ViridianForest ID = 51
	MuseumF1       ID = 52
	PewterGym      ID = 54
	PewterMart     ID = 56
	PewterCenter   ID = 58
	MtMoon1F       ID = 59
)

// Default returns the atlas for the supported region. Overworld maps
// are stitched onto one plane along their real borders; interior maps
// occupy a disjoint strip at x >= 200 so no interior rectangle can
// overlap an outdoor one.
func Default() *Atlas {
	return NewAtlas([]Map{
		// Overworld, stitched north to south.
		{ID: PewterCity, Name: "pewter city", Width: 40, Height: 36, OffsetX: 50, OffsetY: 0},
		{ID: Route2, Name: "route 2", Width: 20, Height: 72, OffsetX: 60, OffsetY: 36},
		{ID: ViridianCity, Name: "viridian city", Width: 40, Height: 36, OffsetX: 50, OffsetY: 108},
		{ID: Route22, Name: "route 22", Width: 40, Height: 18, OffsetX: 10, OffsetY: 116},
		{ID: Route1, Name: "route 1", Width: 20, Height: 36, OffsetX: 60, OffsetY: 144},
		{ID: PalletTown, Name: "pallet town", Width: 20, Height: 18, OffsetX: 60, OffsetY: 180},
		{ID: Route3, Name: "route 3", Width: 70, Height: 18, OffsetX: 90, OffsetY: 9},
		{ID: Route4, Name: "route 4", Width: 90, Height: 18, OffsetX: 160, OffsetY: 0},

		// Interiors.
		{ID: RedsHouse1F, Name: "red's house 1f", Width: 8, Height: 8, OffsetX: 200, OffsetY: 0, Indoor: true},
		{ID: RedsHouse2F, Name: "red's house 2f", Width: 8, Height: 8, OffsetX: 210, OffsetY: 0, Indoor: true},
		{ID: BluesHouse, Name: "blue's house", Width: 8, Height: 8, OffsetX: 220, OffsetY: 0, Indoor: true},
		{ID: OaksLab, Name: "oak's lab", Width: 10, Height: 12, OffsetX: 230, OffsetY: 0, Indoor: true},
		{ID: ViridianCenter, Name: "viridian pokecenter", Width: 14, Height: 8, OffsetX: 242, OffsetY: 0, Indoor: true},
		{ID: ViridianMart, Name: "viridian mart", Width: 8, Height: 8, OffsetX: 258, OffsetY: 0, Indoor: true},
		{ID: ViridianGym, Name: "viridian gym", Width: 20, Height: 18, OffsetX: 268, OffsetY: 0, Indoor: true},
		{ID: ForestGateS, Name: "viridian forest south gate", Width: 10, Height: 8, OffsetX: 290, OffsetY: 0, Indoor: true},
		{ID: ViridianForest, Name: "viridian forest", Width: 34, Height: 48, OffsetX: 302, OffsetY: 0, Indoor: true},
		{ID: ForestGateN, Name: "viridian forest north gate", Width: 10, Height: 8, OffsetX: 338, OffsetY: 0, Indoor: true},
		{ID: Route2Gate, Name: "route 2 gate", Width: 10, Height: 8, OffsetX: 350, OffsetY: 0, Indoor: true},
		{ID: MuseumF1, Name: "pewter museum 1f", Width: 20, Height: 8, OffsetX: 362, OffsetY: 0, Indoor: true},
		{ID: PewterGym, Name: "pewter gym", Width: 10, Height: 14, OffsetX: 384, OffsetY: 0, Indoor: true},
		{ID: PewterMart, Name: "pewter mart", Width: 8, Height: 8, OffsetX: 396, OffsetY: 0, Indoor: true},
		{ID: PewterCenter, Name: "pewter pokecenter", Width: 14, Height: 8, OffsetX: 406, OffsetY: 0, Indoor: true},
		{ID: MtMoon1F, Name: "mt moon 1f", Width: 40, Height: 36, OffsetX: 422, OffsetY: 0, Indoor: true},
	})
}
