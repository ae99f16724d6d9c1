//go:build production

package store

const developmentBuild = false
