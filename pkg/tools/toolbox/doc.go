// Package toolbox defines the bound-callable tool shape and an ordered
// ToolBox that resolves duplicate names first-registered-wins.
package toolbox
