package compliance

// Absolute input ranges. Outside these the run cannot continue.
const (
	MinOverallHeight   = 20.0   // in
	MaxOverallHeight   = 300.0  // in
	MinOutsideOverPole = 10.0   // in, outside diameter must be at least pole + this
	MaxOutsideDiameter = 120.0  // in
	MinTotalRotation   = 90.0   // degrees
	MaxTotalRotation   = 1080.0 // degrees
)

// IRC R311.7.10.1 clearances.
const (
	MinClearWidth     = 26.0 // in
	MaxWalklineRadius = 24.5 // in
	MinWalklineWidth  = 6.75 // in
)

// tolerance absorbs rounding so a value set exactly to a limit passes.
const tolerance = 1e-9
