// Package dovetail computes the geometry of a through dovetail joint between
// two boards of equal thickness and assembles the finished boards through a
// kernel.Kernel.
//
// The pipeline runs leaf to root:
//
//	Parameters -> Solve -> Dimensions
//	Dimensions -> TailProfile, PinProfile
//	Dimensions -> TailOffsets, PinOffsets
//	Kernel + Parameters -> PinsBoard, TailsBoard
//	DisplayMode -> Select -> Scene
//
// Board-local coordinates put the board width on x, the board length on y
// and the stock thickness on z. The joint sits at the board end, y in
// [0, Thickness]. Profile coordinates are (x, depth) with depth measured
// from the board end.
//
// The pins board is the stock block minus the tail cutters; the tails board
// is the stock block minus the pin cutters, mirrored through the thickness
// plane and then relocated according to the Layout. All lengths are in
// millimetres and all angles in degrees.
package dovetail
