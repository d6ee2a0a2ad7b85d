// Package preflight verifies that a run can succeed before any job starts.
//
// These checks run in two contexts:
//   - The convert command calls Verify after discovering sources. Missing
//     tools or unwritable source directories fail the run up front.
//   - The deps command uses CheckSystemDeps to display tool availability.
package preflight
