// Package releasecmd implements the release pipeline driver.
//
// A [Pipeline] resolves the release [Context] (project root directory and
// version string) once, then runs an ordered list of named stages. Each
// stage is an external executable invoked with the context exported in its
// environment. Stages run strictly sequentially; by default the pipeline
// aborts on the first stage that exits non-zero.
package releasecmd
