// Package gridastar provides the A* engine behind a grid pathfinding visualizer.
//
// It exposes two main entry points:
//
//   - Run: run the search to completion and get a Result.
//   - Stepper: advance the search one expansion (or one path cell) at a time
//     to drive a renderer.
//
// The search works on a Grid of orthogonally connected cells with uniform step
// cost and a Manhattan heuristic. The frontier is a binary heap ordered by f,
// then h, then insertion order, and every state change is reported as an Event
// so a renderer can replay the run.
package gridastar
