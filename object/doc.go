// Package object implements the tabletalk class-based object model.
//
// This package contains:
//   - Tagged value representation (nil, bool, int, float, string, list, map,
//     function, instance)
//   - Member records with access modifiers and declaring owners
//   - The class registry and the inheritance merge engine
//   - Access-controlled reads/writes with explicit scope tracking
//   - Instance lifecycle: instantiation, construction, finalization, cloning
//   - Structural serialization to and from plain nested maps
//   - Metamethod dispatch for operator hooks
package object
