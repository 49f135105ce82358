// Package lower turns a HIR module into IR.
//
// One scope.Tracker serves the whole module, so closure environment handles
// are unique across it. Each source function and each lambda becomes its own
// ir.Function:
//
//   - An anonymous fun gets a fresh environment and a single meta bind.
//   - A letrec group shares one environment. Members see each other through
//     a binding frame of recursive variables pushed inside the group's
//     tracking frame, and each meta bind carries its recursive variable.
//   - A lambda takes its environment as the first entry argument. Captures
//     are known only once the body is lowered, so the UnpackEnv op is
//     inserted at the start of the entry block afterwards.
//
// Scope mistakes surface as internal errors; Module converts them to an
// error for the unit.
package lower
