//go:build !chaosdebug

package dispatcher

const debugBuild = false
